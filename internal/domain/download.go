package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the current status of an episode download
type DownloadStatus string

const (
	StatusQueued     DownloadStatus = "queued"
	StatusProcessing DownloadStatus = "processing"
	StatusCompleted  DownloadStatus = "completed"
	StatusFailed     DownloadStatus = "failed"
)

// EpisodeDownload is the persisted history of one episode within a batch
type EpisodeDownload struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	BatchID      string         `json:"batch_id" gorm:"not null;index"`
	MangaID      int64          `json:"manga_id" gorm:"not null;index"`
	MangaTitle   string         `json:"manga_title"`
	EpisodeID    int64          `json:"episode_id" gorm:"not null"`
	EpisodeTitle string         `json:"episode_title"`
	Ord          float64        `json:"ord"`
	ArchiveName  string         `json:"archive_name"`
	Status       DownloadStatus `json:"status" gorm:"not null;index"`
	Stage        Stage          `json:"stage,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	FilePath     string         `json:"file_path,omitempty"`
	Pages        int            `json:"pages"`
	Completed    int            `json:"completed"`
	Bytes        int64          `json:"bytes"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// NewEpisodeDownload creates a queued history record for an episode
func NewEpisodeDownload(batchID string, manga Manga, episode Episode) *EpisodeDownload {
	now := time.Now()
	return &EpisodeDownload{
		ID:           uuid.New().String(),
		BatchID:      batchID,
		MangaID:      manga.ID,
		MangaTitle:   manga.Title,
		EpisodeID:    episode.ID,
		EpisodeTitle: episode.Title,
		Ord:          episode.Ord,
		ArchiveName:  episode.ArchiveName(),
		Status:       StatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// MarkProcessing marks the download as processing
func (d *EpisodeDownload) MarkProcessing(pages int) {
	d.Status = StatusProcessing
	d.Pages = pages
	now := time.Now()
	d.StartedAt = &now
	d.UpdatedAt = now
}

// MarkCompleted marks the download as completed
func (d *EpisodeDownload) MarkCompleted(filePath string, bytes int64) {
	d.Status = StatusCompleted
	d.FilePath = filePath
	d.Completed = d.Pages
	d.Bytes = bytes
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkFailed marks the download as failed at the given stage
func (d *EpisodeDownload) MarkFailed(stage Stage, err error) {
	d.Status = StatusFailed
	d.Stage = stage
	d.ErrorMessage = err.Error()
	d.UpdatedAt = time.Now()
}

// IsTerminal checks if the download is in a terminal state
func (d *EpisodeDownload) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed
}

// ValidateStatus checks if a status filter value is valid
func ValidateStatus(status DownloadStatus) bool {
	switch status {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}
