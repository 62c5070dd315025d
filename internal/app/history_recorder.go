package app

import (
	"sync"

	"github.com/yourusername/manga-dl-go/internal/domain"
	"go.uber.org/zap"
)

// HistoryRecorder persists one history record per episode of a batch
type HistoryRecorder struct {
	repo    domain.HistoryRepository
	batchID string
	manga   domain.Manga
	logger  *zap.Logger

	mu      sync.Mutex
	records map[int64]*domain.EpisodeDownload
}

// NewHistoryRecorder creates a recorder for one batch
func NewHistoryRecorder(repo domain.HistoryRepository, batchID string, manga domain.Manga, logger *zap.Logger) *HistoryRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRecorder{
		repo:    repo,
		batchID: batchID,
		manga:   manga,
		logger:  logger,
		records: make(map[int64]*domain.EpisodeDownload),
	}
}

// Prepare stores a queued record for every episode before the batch starts
func (r *HistoryRecorder) Prepare(episodes []domain.Episode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ep := range episodes {
		record := domain.NewEpisodeDownload(r.batchID, r.manga, ep)
		if err := r.repo.Create(record); err != nil {
			return err
		}
		r.records[ep.ID] = record
	}
	return nil
}

func (r *HistoryRecorder) EpisodeStarted(episode domain.Episode, pages int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.record(episode)
	record.MarkProcessing(pages)
	r.save(record)
}

// EpisodeProgress only updates the in-memory record; it is persisted when the episode finishes
func (r *HistoryRecorder) EpisodeProgress(episode domain.Episode, completed, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(episode).Completed = completed
}

func (r *HistoryRecorder) EpisodeFinished(outcome domain.EpisodeOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.record(outcome.Episode)
	if outcome.Succeeded() {
		record.MarkCompleted(outcome.ArchivePath, outcome.Bytes)
	} else {
		record.MarkFailed(outcome.Stage, outcome.Err)
	}
	r.save(record)
}

// record returns the tracked record of episode, creating it when Prepare was skipped
func (r *HistoryRecorder) record(episode domain.Episode) *domain.EpisodeDownload {
	if record, ok := r.records[episode.ID]; ok {
		return record
	}
	record := domain.NewEpisodeDownload(r.batchID, r.manga, episode)
	if err := r.repo.Create(record); err != nil {
		r.logger.Error("Failed to create history record",
			zap.Int64("episode_id", episode.ID),
			zap.Error(err))
	}
	r.records[episode.ID] = record
	return record
}

func (r *HistoryRecorder) save(record *domain.EpisodeDownload) {
	if err := r.repo.Update(record); err != nil {
		r.logger.Error("Failed to update history record",
			zap.String("id", record.ID),
			zap.String("archive", record.ArchiveName),
			zap.Error(err))
	}
}
