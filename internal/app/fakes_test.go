package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/manga-dl-go/internal/domain"
)

type fakeResource struct {
	data   []byte
	status int // non-zero makes the fetch fail with this status
	delay  time.Duration
}

// fakeFetcher serves resources from memory and records concurrency
type fakeFetcher struct {
	resources map[string]fakeResource

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32

	mu      sync.Mutex
	fetched []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{resources: make(map[string]fakeResource)}
}

func (f *fakeFetcher) add(locator string, res fakeResource) {
	f.resources[locator] = res
}

func (f *fakeFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	f.calls.Add(1)
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if current <= peak || f.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}

	f.mu.Lock()
	f.fetched = append(f.fetched, locator)
	f.mu.Unlock()

	res, ok := f.resources[locator]
	if !ok {
		return nil, &domain.FetchError{Locator: locator, StatusCode: 404}
	}

	if res.delay > 0 {
		select {
		case <-time.After(res.delay):
		case <-ctx.Done():
			return nil, &domain.FetchError{Locator: locator, Err: ctx.Err()}
		}
	}

	if res.status != 0 {
		return nil, &domain.FetchError{Locator: locator, StatusCode: res.status}
	}
	return res.data, nil
}

// fakeResolver returns fixed locator lists per episode
type fakeResolver struct {
	locators map[int64][]string
	errs     map[int64]error

	mu    sync.Mutex
	calls map[int64]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		locators: make(map[int64][]string),
		errs:     make(map[int64]error),
		calls:    make(map[int64]int),
	}
}

func (r *fakeResolver) ResolveLocators(_ context.Context, _, episodeID int64, _ string) ([]string, error) {
	r.mu.Lock()
	r.calls[episodeID]++
	r.mu.Unlock()

	if err, ok := r.errs[episodeID]; ok {
		return nil, err
	}
	return r.locators[episodeID], nil
}

func (r *fakeResolver) callCount(episodeID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[episodeID]
}

// fakeCatalog serves one manga
type fakeCatalog struct {
	manga    domain.Manga
	episodes []domain.Episode
	err      error
}

func (c *fakeCatalog) Search(context.Context, string) ([]domain.Manga, error) {
	return []domain.Manga{c.manga}, c.err
}

func (c *fakeCatalog) Manga(_ context.Context, id int64) (domain.Manga, error) {
	if c.err != nil {
		return domain.Manga{}, c.err
	}
	if id != c.manga.ID {
		return domain.Manga{}, fmt.Errorf("manga %d: %w", id, domain.ErrNotFound)
	}
	return c.manga, nil
}

func (c *fakeCatalog) Episodes(context.Context, int64) ([]domain.Episode, error) {
	return c.episodes, c.err
}

// memoryHistory is an in-memory HistoryRepository
type memoryHistory struct {
	mu      sync.Mutex
	records map[string]domain.EpisodeDownload
	order   []string
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{records: make(map[string]domain.EpisodeDownload)}
}

func (m *memoryHistory) Create(d *domain.EpisodeDownload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[d.ID]; ok {
		return fmt.Errorf("duplicate id %s", d.ID)
	}
	m.records[d.ID] = *d
	m.order = append(m.order, d.ID)
	return nil
}

func (m *memoryHistory) Update(d *domain.EpisodeDownload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[d.ID]; !ok {
		return domain.ErrNotFound
	}
	m.records[d.ID] = *d
	return nil
}

func (m *memoryHistory) FindByID(id string) (*domain.EpisodeDownload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (m *memoryHistory) FindByBatch(batchID string) ([]*domain.EpisodeDownload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.EpisodeDownload
	for _, id := range m.order {
		if d := m.records[id]; d.BatchID == batchID {
			out = append(out, &d)
		}
	}
	return out, nil
}

func (m *memoryHistory) FindAll(status domain.DownloadStatus, limit int) ([]*domain.EpisodeDownload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.EpisodeDownload
	for i := len(m.order) - 1; i >= 0; i-- {
		d := m.records[m.order[i]]
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, &d)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryHistory) GetStats() (*domain.DownloadStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.DownloadStats{}
	for _, d := range m.records {
		stats.Total++
		switch d.Status {
		case domain.StatusQueued:
			stats.Queued++
		case domain.StatusProcessing:
			stats.Processing++
		case domain.StatusCompleted:
			stats.Completed++
			stats.Bytes += d.Bytes
		case domain.StatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// recordingObserver captures batch notifications
type recordingObserver struct {
	mu       sync.Mutex
	started  map[int64]int
	progress map[int64][]int
	finished []domain.EpisodeOutcome
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		started:  make(map[int64]int),
		progress: make(map[int64][]int),
	}
}

func (o *recordingObserver) EpisodeStarted(ep domain.Episode, pages int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started[ep.ID] = pages
}

func (o *recordingObserver) EpisodeProgress(ep domain.Episode, completed, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress[ep.ID] = append(o.progress[ep.ID], completed)
}

func (o *recordingObserver) EpisodeFinished(outcome domain.EpisodeOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, outcome)
}

func (o *recordingObserver) finishedIDs() []int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]int64, 0, len(o.finished))
	for _, outcome := range o.finished {
		ids = append(ids, outcome.Episode.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// fakeNotifier records batch notifications
type fakeNotifier struct {
	mu      sync.Mutex
	reports []domain.BatchReport
}

func (n *fakeNotifier) NotifyBatchFinished(_ string, _ int, report domain.BatchReport) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report)
}

// locatorsFor registers count resources for an episode and returns their locators
func locatorsFor(fetcher *fakeFetcher, episodeID int64, count int, delay time.Duration) []string {
	locators := make([]string, count)
	for i := range locators {
		locators[i] = fmt.Sprintf("https://cdn.test/%d/%d.jpg?token=t%d", episodeID, i, i)
		fetcher.add(locators[i], fakeResource{
			data:  []byte(fmt.Sprintf("episode-%d-page-%d", episodeID, i)),
			delay: delay,
		})
	}
	return locators
}
