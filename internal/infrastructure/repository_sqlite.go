package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/manga-dl-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository creates a new SQLite repository
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate the schema for history records
	if err := db.AutoMigrate(&domain.EpisodeDownload{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Create creates a new history record
func (r *SQLiteHistoryRepository) Create(download *domain.EpisodeDownload) error {
	return r.db.Create(download).Error
}

// Update updates an existing history record
func (r *SQLiteHistoryRepository) Update(download *domain.EpisodeDownload) error {
	return r.db.Save(download).Error
}

// FindByID finds a record by ID
func (r *SQLiteHistoryRepository) FindByID(id string) (*domain.EpisodeDownload, error) {
	var download domain.EpisodeDownload
	err := r.db.First(&download, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &download, nil
}

// FindByBatch finds the records of one batch in creation order
func (r *SQLiteHistoryRepository) FindByBatch(batchID string) ([]*domain.EpisodeDownload, error) {
	var downloads []*domain.EpisodeDownload
	err := r.db.Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&downloads).Error
	return downloads, err
}

// FindAll finds records newest first. An empty status matches everything,
// a non-positive limit returns all rows.
func (r *SQLiteHistoryRepository) FindAll(status domain.DownloadStatus, limit int) ([]*domain.EpisodeDownload, error) {
	var downloads []*domain.EpisodeDownload
	query := r.db.Order("created_at DESC")

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&downloads).Error
	return downloads, err
}

// GetStats returns download statistics
func (r *SQLiteHistoryRepository) GetStats() (*domain.DownloadStats, error) {
	stats := &domain.DownloadStats{}

	// Get total count
	if err := r.db.Model(&domain.EpisodeDownload{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	// Get counts by status
	statusCounts := []struct {
		Status domain.DownloadStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.EpisodeDownload{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusQueued:
			stats.Queued = sc.Count
		case domain.StatusProcessing:
			stats.Processing = sc.Count
		case domain.StatusCompleted:
			stats.Completed = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		}
	}

	// Sum archived bytes
	var totalBytes struct{ Sum int64 }
	if err := r.db.Model(&domain.EpisodeDownload{}).
		Select("COALESCE(SUM(bytes), 0) as sum").
		Where("status = ?", domain.StatusCompleted).
		Scan(&totalBytes).Error; err != nil {
		return nil, err
	}
	stats.Bytes = totalBytes.Sum

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
