package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// BatchWebSocketHandler streams batch snapshots until the batch finishes
type BatchWebSocketHandler struct {
	runner   BatchRunner
	logger   *zap.Logger
	interval time.Duration
}

// NewBatchWebSocketHandler creates a handler polling batch state every interval
func NewBatchWebSocketHandler(runner BatchRunner, interval time.Duration, log *zap.Logger) *BatchWebSocketHandler {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &BatchWebSocketHandler{
		runner:   runner,
		logger:   log,
		interval: interval,
	}
}

// HandleWebSocket handles GET /api/v1/batches/:id/ws. A snapshot is sent on
// connect and whenever the batch changes; the server closes the connection
// after the final snapshot.
func (h *BatchWebSocketHandler) HandleWebSocket(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.runner.Get(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Debug("WebSocket client connected",
		zap.String("batch_id", id),
		zap.String("remote_addr", c.Request.RemoteAddr))

	// Read from the client only to notice when it goes away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		batch, err := h.runner.Get(id)
		if err != nil {
			return
		}

		data, err := json.Marshal(batch)
		if err != nil {
			h.logger.Error("Failed to marshal batch", zap.Error(err))
			return
		}

		if string(data) != string(last) {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			last = data
		}

		if batch.Finished() {
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(batch.Status))
			_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
			return
		}

		select {
		case <-ticker.C:
		case <-done:
			return
		}
	}
}
