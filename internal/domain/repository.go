package domain

// HistoryRepository defines the interface for episode download persistence
type HistoryRepository interface {
	// Create creates a new history record
	Create(download *EpisodeDownload) error

	// Update updates an existing history record
	Update(download *EpisodeDownload) error

	// FindByID finds a record by ID
	FindByID(id string) (*EpisodeDownload, error)

	// FindByBatch finds the records of one batch in creation order
	FindByBatch(batchID string) ([]*EpisodeDownload, error)

	// FindAll finds records newest first, optionally filtered by status
	FindAll(status DownloadStatus, limit int) ([]*EpisodeDownload, error)

	// GetStats returns download statistics
	GetStats() (*DownloadStats, error)
}

// DownloadStats represents download statistics
type DownloadStats struct {
	Total      int64 `json:"total"`
	Queued     int64 `json:"queued"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Bytes      int64 `json:"bytes"`
}
