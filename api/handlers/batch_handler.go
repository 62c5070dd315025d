package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/manga-dl-go/internal/app"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"go.uber.org/zap"
)

// BatchRunner plans and tracks asynchronous batches
type BatchRunner interface {
	Plan(ctx context.Context, mangaID int64, sel app.Selection) (*app.BatchPlan, error)
	Submit(plan *app.BatchPlan) (app.Batch, error)
	Get(id string) (app.Batch, error)
	List() []app.Batch
}

// BatchHandler handles batch-related HTTP requests
type BatchHandler struct {
	runner     BatchRunner
	skipLocked bool
	logger     *zap.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(runner BatchRunner, skipLocked bool, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		runner:     runner,
		skipLocked: skipLocked,
		logger:     logger,
	}
}

// StartBatchRequest represents a request to download episodes of a manga
type StartBatchRequest struct {
	MangaID       int64     `json:"manga_id" binding:"required"`
	EpisodeIDs    []int64   `json:"episode_ids,omitempty"`
	Episodes      string    `json:"episodes,omitempty"` // 1-based positions, e.g. "1,3,5-8"
	Ords          []float64 `json:"ords,omitempty"`
	All           bool      `json:"all,omitempty"`
	IncludeLocked *bool     `json:"include_locked,omitempty"`
}

func (r StartBatchRequest) selection(skipLocked bool) app.Selection {
	sel := app.Selection{
		Expr:          r.Episodes,
		Ords:          r.Ords,
		IDs:           r.EpisodeIDs,
		IncludeLocked: !skipLocked,
	}
	if r.All {
		sel.Expr = "all"
	}
	if r.IncludeLocked != nil {
		sel.IncludeLocked = *r.IncludeLocked
	}
	return sel
}

// StartBatch handles POST /api/v1/batches
func (h *BatchHandler) StartBatch(c *gin.Context) {
	var req StartBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.runner.Plan(c.Request.Context(), req.MangaID, req.selection(h.skipLocked))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidSelection):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to plan batch", zap.Int64("manga_id", req.MangaID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	batch, err := h.runner.Submit(plan)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, batch)
}

// GetBatch handles GET /api/v1/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	batch, err := h.runner.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}

	c.JSON(http.StatusOK, batch)
}

// ListBatches handles GET /api/v1/batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
	batches := h.runner.List()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(batches),
		"batches": batches,
	})
}
