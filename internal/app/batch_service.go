package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"github.com/yourusername/manga-dl-go/internal/infrastructure"
	"github.com/yourusername/manga-dl-go/pkg/logger"
	"go.uber.org/zap"
)

// BatchStatus represents the state of a submitted batch
type BatchStatus string

const (
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchPartial   BatchStatus = "completed_with_errors"
	BatchFailed    BatchStatus = "failed"
)

// ErrServiceClosed is returned by Submit after Shutdown
var ErrServiceClosed = errors.New("batch service is shutting down")

// ErrInvalidSelection wraps selections that cannot be resolved against the catalog
var ErrInvalidSelection = errors.New("invalid episode selection")

// Notifier announces finished batches
type Notifier interface {
	NotifyBatchFinished(mangaTitle string, episodes int, report domain.BatchReport)
}

// BatchPlan is a resolved selection ready to run
type BatchPlan struct {
	ID       string
	Manga    domain.Manga
	Episodes []domain.Episode
	Locked   []domain.Episode // selected but skipped
	DestDir  string
}

// EpisodeProgress is the live state of one episode in a batch
type EpisodeProgress struct {
	EpisodeID   int64                 `json:"episode_id"`
	Ord         string                `json:"ord"`
	Title       string                `json:"title"`
	ArchiveName string                `json:"archive_name"`
	Status      domain.DownloadStatus `json:"status"`
	Pages       int                   `json:"pages"`
	Completed   int                   `json:"completed"`
	Error       string                `json:"error,omitempty"`
}

// Batch is a snapshot of a submitted batch
type Batch struct {
	ID         string             `json:"id"`
	MangaID    int64              `json:"manga_id"`
	MangaTitle string             `json:"manga_title"`
	DestDir    string             `json:"dest_dir"`
	Status     BatchStatus        `json:"status"`
	Episodes   []EpisodeProgress  `json:"episodes"`
	Report     domain.BatchReport `json:"report"`
	Error      string             `json:"error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

// Finished reports whether the batch reached a terminal status
func (b Batch) Finished() bool {
	return b.Status != BatchRunning
}

// BatchService plans and runs batches, synchronously for the CLI and in the
// background for the HTTP API
type BatchService struct {
	catalog      domain.Catalog
	orchestrator *BatchOrchestrator
	repo         domain.HistoryRepository
	notifier     Notifier
	config       *domain.Config
	logs         *logger.LoggerAdapter

	mu      sync.RWMutex
	batches map[string]*trackedBatch
	closed  bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

type trackedBatch struct {
	mu    sync.Mutex
	batch Batch
	index map[int64]int
}

// NewBatchService creates a batch service; repo and notifier may be nil
func NewBatchService(
	catalog domain.Catalog,
	orchestrator *BatchOrchestrator,
	repo domain.HistoryRepository,
	notifier Notifier,
	config *domain.Config,
	logs *logger.LoggerAdapter,
) *BatchService {
	if logs == nil {
		logs = logger.NewLoggerAdapter(nil, nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchService{
		catalog:      catalog,
		orchestrator: orchestrator,
		repo:         repo,
		notifier:     notifier,
		config:       config,
		logs:         logs,
		batches:      make(map[string]*trackedBatch),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Plan looks the manga up and resolves the selection against its catalog
func (s *BatchService) Plan(ctx context.Context, mangaID int64, sel Selection) (*BatchPlan, error) {
	manga, err := s.catalog.Manga(ctx, mangaID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up manga %d: %w", mangaID, err)
	}

	episodes, err := s.catalog.Episodes(ctx, mangaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes of %d: %w", mangaID, err)
	}

	selected, locked, err := SelectEpisodes(episodes, sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no downloadable episodes selected (%d locked)", ErrInvalidSelection, len(locked))
	}

	return &BatchPlan{
		ID:       uuid.New().String(),
		Manga:    manga,
		Episodes: selected,
		Locked:   locked,
		DestDir:  filepath.Join(s.config.Download.Dir, domain.SanitizeFileName(manga.Title)),
	}, nil
}

// Execute runs plan to completion. The destination directory is locked for
// the duration of the batch.
func (s *BatchService) Execute(ctx context.Context, plan *BatchPlan, observer domain.BatchObserver) (*BatchResult, error) {
	batchLog := s.logs.Batch().With(
		zap.String("batch_id", plan.ID),
		zap.Int64("manga_id", plan.Manga.ID))

	if err := ensureDir(plan.DestDir); err != nil {
		return nil, err
	}

	unlock, err := infrastructure.LockDir(plan.DestDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			s.logs.General().Warn("Failed to release destination lock", zap.Error(err))
		}
	}()

	observers := Observers{}
	if observer != nil {
		observers = append(observers, observer)
	}
	if s.repo != nil {
		recorder := NewHistoryRecorder(s.repo, plan.ID, plan.Manga, s.logs.General())
		if err := recorder.Prepare(plan.Episodes); err != nil {
			s.logs.LogError("Failed to record batch history", zap.String("batch_id", plan.ID), zap.Error(err))
		}
		observers = append(observers, recorder)
	}

	for _, ep := range plan.Locked {
		batchLog.Warn("Skipping locked episode", zap.String("episode", ep.Label()))
	}
	batchLog.Info("batch_started",
		zap.String("manga", plan.Manga.Title),
		zap.Int("episodes", len(plan.Episodes)),
		zap.String("dest_dir", plan.DestDir))

	result, err := s.orchestrator.Run(ctx, BatchRequest{
		Manga:      plan.Manga,
		Episodes:   plan.Episodes,
		Credential: s.config.API.Cookie,
		DestDir:    plan.DestDir,
	}, observers)
	if err != nil {
		s.logs.LogError("Batch failed to start", zap.String("batch_id", plan.ID), zap.Error(err))
		return nil, err
	}

	for _, msg := range result.Report {
		batchLog.Warn("episode_failed", zap.String("message", msg))
	}
	batchLog.Info("batch_finished",
		zap.Int("succeeded", result.Succeeded()),
		zap.Int("failed", len(result.Report)),
		zap.Int64("bytes", result.Bytes()),
		zap.Duration("duration", result.Duration))

	if s.notifier != nil {
		s.notifier.NotifyBatchFinished(plan.Manga.Title, len(plan.Episodes), result.Report)
	}
	return result, nil
}

// Submit starts plan in the background and returns its initial snapshot
func (s *BatchService) Submit(plan *BatchPlan) (Batch, error) {
	tracked := newTrackedBatch(plan)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Batch{}, ErrServiceClosed
	}
	s.batches[plan.ID] = tracked
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		result, err := s.Execute(s.ctx, plan, tracked)
		tracked.finish(result, err)
	}()

	return tracked.snapshot(), nil
}

// Running returns the number of batches still in progress
func (s *BatchService) Running() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, tracked := range s.batches {
		if tracked.snapshot().Status == BatchRunning {
			n++
		}
	}
	return n
}

// Accepting reports whether Submit still takes new batches
func (s *BatchService) Accepting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// Get returns the snapshot of a submitted batch
func (s *BatchService) Get(id string) (Batch, error) {
	s.mu.RLock()
	tracked, ok := s.batches[id]
	s.mu.RUnlock()

	if !ok {
		return Batch{}, domain.ErrNotFound
	}
	return tracked.snapshot(), nil
}

// List returns every submitted batch, newest first
func (s *BatchService) List() []Batch {
	s.mu.RLock()
	batches := make([]Batch, 0, len(s.batches))
	for _, tracked := range s.batches {
		batches = append(batches, tracked.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})
	return batches
}

// Shutdown waits for running batches. When ctx expires first the batches are
// cancelled and awaited.
func (s *BatchService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

func newTrackedBatch(plan *BatchPlan) *trackedBatch {
	tracked := &trackedBatch{
		batch: Batch{
			ID:         plan.ID,
			MangaID:    plan.Manga.ID,
			MangaTitle: plan.Manga.Title,
			DestDir:    plan.DestDir,
			Status:     BatchRunning,
			Episodes:   make([]EpisodeProgress, len(plan.Episodes)),
			Report:     domain.BatchReport{},
			CreatedAt:  time.Now(),
		},
		index: make(map[int64]int, len(plan.Episodes)),
	}
	for i, ep := range plan.Episodes {
		tracked.index[ep.ID] = i
		tracked.batch.Episodes[i] = EpisodeProgress{
			EpisodeID:   ep.ID,
			Ord:         domain.FormatOrd(ep.Ord),
			Title:       ep.Title,
			ArchiveName: ep.ArchiveName(),
			Status:      domain.StatusQueued,
		}
	}
	return tracked
}

func (t *trackedBatch) EpisodeStarted(episode domain.Episode, pages int) {
	t.update(episode.ID, func(p *EpisodeProgress) {
		p.Status = domain.StatusProcessing
		p.Pages = pages
	})
}

func (t *trackedBatch) EpisodeProgress(episode domain.Episode, completed, _ int) {
	t.update(episode.ID, func(p *EpisodeProgress) {
		p.Completed = completed
	})
}

func (t *trackedBatch) EpisodeFinished(outcome domain.EpisodeOutcome) {
	t.update(outcome.Episode.ID, func(p *EpisodeProgress) {
		p.Pages = outcome.Pages
		if outcome.Succeeded() {
			p.Status = domain.StatusCompleted
			p.Completed = outcome.Pages
			return
		}
		p.Status = domain.StatusFailed
		p.Error = outcome.Message()
	})
}

func (t *trackedBatch) update(episodeID int64, fn func(*EpisodeProgress)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i, ok := t.index[episodeID]; ok {
		fn(&t.batch.Episodes[i])
	}
}

func (t *trackedBatch) finish(result *BatchResult, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.batch.FinishedAt = &now

	switch {
	case err != nil:
		t.batch.Status = BatchFailed
		t.batch.Error = err.Error()
	case result.Report.OK():
		t.batch.Status = BatchCompleted
	default:
		t.batch.Status = BatchPartial
		t.batch.Report = result.Report
	}
}

func (t *trackedBatch) snapshot() Batch {
	t.mu.Lock()
	defer t.mu.Unlock()

	batch := t.batch
	batch.Episodes = append([]EpisodeProgress(nil), t.batch.Episodes...)
	batch.Report = append(domain.BatchReport{}, t.batch.Report...)
	return batch
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	return nil
}
