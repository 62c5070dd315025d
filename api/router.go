package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/manga-dl-go/api/handlers"
	"github.com/yourusername/manga-dl-go/api/middleware"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"github.com/yourusername/manga-dl-go/pkg/logger"
)

// BatchService is what the API needs from the batch service
type BatchService interface {
	handlers.BatchRunner
	handlers.BatchStatus
}

// RouterConfig wires the router to its services
type RouterConfig struct {
	Batches        BatchService
	History        domain.HistoryRepository
	Logs           *logger.LoggerAdapter
	LogsDir        string
	SkipLocked     bool
	Version        string
	StreamInterval time.Duration
}

// SetupRouter sets up the HTTP router
func SetupRouter(config RouterConfig) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	logs := config.Logs
	if logs == nil {
		logs = logger.NewLoggerAdapter(nil, nil)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logs))
	router.Use(middleware.Recovery(logs))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(config.Batches, config.Version)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Batch endpoints
		batchHandler := handlers.NewBatchHandler(config.Batches, config.SkipLocked, logs.General())
		streamHandler := handlers.NewBatchWebSocketHandler(config.Batches, config.StreamInterval, logs.General())
		batches := v1.Group("/batches")
		{
			batches.POST("", batchHandler.StartBatch)
			batches.GET("", batchHandler.ListBatches)
			batches.GET("/:id", batchHandler.GetBatch)
			batches.GET("/:id/ws", streamHandler.HandleWebSocket)
		}

		// History endpoints
		historyHandler := handlers.NewHistoryHandler(config.History, logs.General())
		history := v1.Group("/history")
		{
			history.GET("", historyHandler.ListHistory)
			history.GET("/stats", historyHandler.GetStats)
			history.GET("/:id", historyHandler.GetRecord)
		}

		// Log endpoints
		logHandler := handlers.NewLogHandler(config.LogsDir)
		logRoutes := v1.Group("/logs")
		{
			logRoutes.GET("/categories", logHandler.GetCategories)
			logRoutes.GET("/:category", logHandler.GetLogs)
			logRoutes.GET("/:category/search", logHandler.SearchLogs)
			logRoutes.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
