package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"go.uber.org/zap"
)

// BatchRequest describes one run over a selection of episodes of a manga
type BatchRequest struct {
	Manga      domain.Manga
	Episodes   []domain.Episode
	Credential string
	DestDir    string
}

// BatchResult holds the outcome of every episode in request order
type BatchResult struct {
	Outcomes []domain.EpisodeOutcome
	Report   domain.BatchReport
	Duration time.Duration
}

// Succeeded returns the number of archived episodes
func (r *BatchResult) Succeeded() int {
	n := 0
	for _, outcome := range r.Outcomes {
		if outcome.Succeeded() {
			n++
		}
	}
	return n
}

// Bytes returns the payload size of all written archives
func (r *BatchResult) Bytes() int64 {
	var total int64
	for _, outcome := range r.Outcomes {
		total += outcome.Bytes
	}
	return total
}

// BatchOrchestrator runs the episode pipeline over a batch. Its capacity pool
// caps outstanding fetches across every batch it runs.
type BatchOrchestrator struct {
	pipeline *EpisodePipeline
	pool     *CapacityPool
	episodes int
	logger   *zap.Logger
}

// NewBatchOrchestrator creates an orchestrator
func NewBatchOrchestrator(
	resolver domain.LocatorResolver,
	fetcher domain.ResourceFetcher,
	writer domain.ArchiveWriter,
	uploader domain.ArchiveUploader,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) (*BatchOrchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.EpisodeConcurrency < 1 {
		return nil, fmt.Errorf("episode concurrency must be at least 1, got %d", config.EpisodeConcurrency)
	}

	capacity, err := NewCapacityPool(config.ResourceConcurrency)
	if err != nil {
		return nil, err
	}

	group := NewDownloadGroup(fetcher, capacity, logger)
	return &BatchOrchestrator{
		pipeline: NewEpisodePipeline(resolver, group, writer, uploader, logger),
		pool:     capacity,
		episodes: config.EpisodeConcurrency,
		logger:   logger,
	}, nil
}

// Run processes every episode of req exactly once and waits for all of them.
// Episode failures end up in the report; the returned error is only set when
// the destination directory cannot be created, before any episode runs.
func (o *BatchOrchestrator) Run(ctx context.Context, req BatchRequest, observer domain.BatchObserver) (*BatchResult, error) {
	if observer == nil {
		observer = noopObserver{}
	}

	if err := os.MkdirAll(req.DestDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	start := time.Now()
	outcomes := make([]domain.EpisodeOutcome, len(req.Episodes))

	// Pool.Wait joins every episode goroutine before the report is built
	episodes := pool.New().WithMaxGoroutines(o.episodes)
	for i, episode := range req.Episodes {
		i, episode := i, episode
		episodes.Go(func() {
			outcome := o.pipeline.Run(ctx, req.Manga, episode, req.Credential, req.DestDir, observer)
			o.logOutcome(outcome)
			outcomes[i] = outcome
			observer.EpisodeFinished(outcome)
		})
	}
	episodes.Wait()

	result := &BatchResult{
		Outcomes: outcomes,
		Report:   domain.BatchReport{},
		Duration: time.Since(start),
	}
	for _, outcome := range outcomes {
		if !outcome.Succeeded() {
			result.Report = append(result.Report, outcome.Message())
		}
	}
	return result, nil
}

// ResourceConcurrency returns the size of the shared capacity pool
func (o *BatchOrchestrator) ResourceConcurrency() int {
	return o.pool.Size()
}

func (o *BatchOrchestrator) logOutcome(outcome domain.EpisodeOutcome) {
	if outcome.Succeeded() {
		o.logger.Info("Episode archived",
			zap.String("archive", outcome.ArchiveName),
			zap.Int("pages", outcome.Pages),
			zap.Int64("bytes", outcome.Bytes))
		return
	}
	o.logger.Warn("Episode failed",
		zap.String("archive", outcome.ArchiveName),
		zap.String("stage", string(outcome.Stage)),
		zap.Error(outcome.Err))
}
