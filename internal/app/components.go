package app

import (
	"fmt"

	"github.com/yourusername/manga-dl-go/internal/domain"
	"github.com/yourusername/manga-dl-go/internal/infrastructure"
	"github.com/yourusername/manga-dl-go/pkg/logger"
	"go.uber.org/zap"
)

// Components holds the long-lived collaborators shared by the CLI and the server
type Components struct {
	Client  *infrastructure.MangaClient
	History *infrastructure.SQLiteHistoryRepository
	Batches *BatchService
}

// NewComponents wires the API client, history database, optional archive
// upload and the batch service from config
func NewComponents(config *domain.Config, logs *logger.LoggerAdapter) (*Components, error) {
	if logs == nil {
		logs = logger.NewLoggerAdapter(nil, nil)
	}
	log := logs.General()

	repo, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	var uploader domain.ArchiveUploader
	if config.Storage.S3.Enabled {
		s3, err := infrastructure.NewS3ArchiveUploader(&config.Storage.S3, log)
		if err != nil {
			repo.Close()
			return nil, err
		}
		uploader = s3
		log.Info("Archive upload enabled",
			zap.String("endpoint", config.Storage.S3.Endpoint),
			zap.String("bucket", config.Storage.S3.Bucket))
	}

	client := infrastructure.NewMangaClient(&config.API, log)
	orchestrator, err := NewBatchOrchestrator(
		client,
		infrastructure.NewHTTPFetcher(config.Download.FetchTimeout),
		infrastructure.NewZipArchiveWriter(),
		uploader,
		&config.Download,
		log,
	)
	if err != nil {
		repo.Close()
		return nil, err
	}

	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	return &Components{
		Client:  client,
		History: repo,
		Batches: NewBatchService(client, orchestrator, repo, notifier, config, logs),
	}, nil
}

// Close releases the history database
func (c *Components) Close() error {
	return c.History.Close()
}
