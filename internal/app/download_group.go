package app

import (
	"context"
	"sync"

	"github.com/yourusername/manga-dl-go/internal/domain"
	"go.uber.org/zap"
)

// ProgressFunc receives the completed resource count of a group.
// Calls are serialized and completed never decreases.
type ProgressFunc func(completed, total int)

// DownloadGroup fetches every resource of one episode under a shared capacity pool
type DownloadGroup struct {
	fetcher domain.ResourceFetcher
	pool    *CapacityPool
	logger  *zap.Logger
}

// NewDownloadGroup creates a download group drawing units from pool
func NewDownloadGroup(fetcher domain.ResourceFetcher, pool *CapacityPool, logger *zap.Logger) *DownloadGroup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadGroup{
		fetcher: fetcher,
		pool:    pool,
		logger:  logger,
	}
}

// DownloadAll fetches locators concurrently and returns payloads in locator
// order. The first failure fails the whole group: fetches still waiting for
// a unit are skipped, fetches already running finish and are discarded.
func (g *DownloadGroup) DownloadAll(ctx context.Context, locators []string, progress ProgressFunc) ([][]byte, error) {
	total := len(locators)
	payloads := make([][]byte, total)
	if total == 0 {
		return payloads, nil
	}

	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		failOnce  sync.Once
		groupErr  *domain.GroupError
		mu        sync.Mutex
		completed int
	)

	fail := func(index int, err error) {
		failOnce.Do(func() {
			groupErr = &domain.GroupError{Index: index, Total: total, Err: err}
			cancel()
		})
	}

	for i, locator := range locators {
		wg.Add(1)
		go func(index int, locator string) {
			defer wg.Done()

			if err := g.pool.Acquire(groupCtx); err != nil {
				fail(index, err)
				return
			}

			// The unit may have been granted after the group failed
			if groupCtx.Err() != nil {
				g.pool.Release()
				fail(index, groupCtx.Err())
				return
			}

			// In-flight fetches run on the caller's context so they are not
			// torn down by a sibling failure
			data, err := g.fetcher.Fetch(ctx, locator)
			// Release before logging and progress so observers never hold a unit
			g.pool.Release()
			if err != nil {
				g.logger.Debug("Resource fetch failed",
					zap.Int("index", index),
					zap.String("locator", domain.RedactLocator(locator)),
					zap.Error(err))
				fail(index, err)
				return
			}

			payloads[index] = data

			mu.Lock()
			completed++
			if progress != nil {
				progress(completed, total)
			}
			mu.Unlock()
		}(i, locator)
	}

	wg.Wait()

	if groupErr != nil {
		return nil, groupErr
	}
	return payloads, nil
}
