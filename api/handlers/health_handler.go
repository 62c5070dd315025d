package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BatchStatus exposes the state of the batch service
type BatchStatus interface {
	Running() int
	Accepting() bool
}

// HealthHandler handles health check requests
type HealthHandler struct {
	batches BatchStatus
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(batches BatchStatus, version string) *HealthHandler {
	return &HealthHandler{
		batches: batches,
		version: version,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Batches struct {
		Running int `json:"running"`
	} `json:"batches"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}
	response.Batches.Running = h.batches.Running()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.batches.Accepting() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "shutting down",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
