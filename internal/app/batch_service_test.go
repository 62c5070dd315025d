package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"github.com/yourusername/manga-dl-go/internal/infrastructure"
)

type serviceFixture struct {
	service  *BatchService
	catalog  *fakeCatalog
	resolver *fakeResolver
	fetcher  *fakeFetcher
	repo     *memoryHistory
	notifier *fakeNotifier
	config   *domain.Config
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	config := domain.DefaultConfig()
	config.Download.Dir = t.TempDir()
	config.API.Cookie = "session"

	f := &serviceFixture{
		catalog: &fakeCatalog{
			manga: domain.Manga{ID: 26470, Title: "My Manga: Vol/1"},
			episodes: []domain.Episode{
				{ID: 1, Title: "One", Ord: 1},
				{ID: 2, Title: "Two", Ord: 2},
				{ID: 3, Title: "Three", Ord: 3, Locked: true},
			},
		},
		resolver: newFakeResolver(),
		fetcher:  newFakeFetcher(),
		repo:     newMemoryHistory(),
		notifier: &fakeNotifier{},
		config:   config,
	}
	f.resolver.locators[1] = locatorsFor(f.fetcher, 1, 2, 0)
	f.resolver.locators[2] = locatorsFor(f.fetcher, 2, 3, 0)
	f.resolver.locators[3] = locatorsFor(f.fetcher, 3, 1, 0)

	orchestrator, err := NewBatchOrchestrator(f.resolver, f.fetcher, infrastructure.NewZipArchiveWriter(), nil, &config.Download, nil)
	require.NoError(t, err)

	f.service = NewBatchService(f.catalog, orchestrator, f.repo, f.notifier, config, nil)
	return f
}

func TestBatchService_Plan(t *testing.T) {
	f := newServiceFixture(t)

	plan, err := f.service.Plan(context.Background(), 26470, Selection{Expr: "all"})
	require.NoError(t, err)

	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, []int64{1, 2}, episodeIDs(plan.Episodes))
	assert.Equal(t, []int64{3}, episodeIDs(plan.Locked))
	assert.Equal(t, filepath.Join(f.config.Download.Dir, "MyMangaVol1"), plan.DestDir)
}

func TestBatchService_PlanErrors(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Plan(context.Background(), 1, Selection{Expr: "all"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.service.Plan(context.Background(), 26470, Selection{Expr: "3"})
	assert.ErrorContains(t, err, "no downloadable episodes")
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = f.service.Plan(context.Background(), 26470, Selection{Expr: "7"})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	f.catalog.err = errors.New("api down")
	_, err = f.service.Plan(context.Background(), 26470, Selection{Expr: "all"})
	assert.Error(t, err)
}

func TestBatchService_Execute(t *testing.T) {
	f := newServiceFixture(t)
	delete(f.fetcher.resources, f.resolver.locators[2][0])

	plan, err := f.service.Plan(context.Background(), 26470, Selection{Expr: "1-2"})
	require.NoError(t, err)

	result, err := f.service.Execute(context.Background(), plan, nil)
	require.NoError(t, err)

	require.Len(t, result.Report, 1)
	assert.Contains(t, result.Report[0], "[2]Two.zip download failed")
	assert.FileExists(t, filepath.Join(plan.DestDir, "[1]One.zip"))

	records, err := f.repo.FindByBatch(plan.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.StatusCompleted, records[0].Status)
	assert.Equal(t, domain.StatusFailed, records[1].Status)
	assert.Equal(t, domain.StageFetch, records[1].Stage)

	require.Len(t, f.notifier.reports, 1)
	assert.Equal(t, result.Report, f.notifier.reports[0])
}

func TestBatchService_ExecuteRejectsLockedDirectory(t *testing.T) {
	f := newServiceFixture(t)

	plan, err := f.service.Plan(context.Background(), 26470, Selection{Expr: "1"})
	require.NoError(t, err)

	require.NoError(t, ensureDir(plan.DestDir))
	unlock, err := infrastructure.LockDir(plan.DestDir)
	require.NoError(t, err)
	defer unlock()

	_, err = f.service.Execute(context.Background(), plan, nil)
	assert.ErrorIs(t, err, infrastructure.ErrDirLocked)
}

func TestBatchService_SubmitAndShutdown(t *testing.T) {
	f := newServiceFixture(t)

	plan, err := f.service.Plan(context.Background(), 26470, Selection{IDs: []int64{1, 2}})
	require.NoError(t, err)

	batch, err := f.service.Submit(plan)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, batch.ID)
	assert.Equal(t, "My Manga: Vol/1", batch.MangaTitle)
	require.Len(t, batch.Episodes, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.service.Shutdown(ctx))

	done, err := f.service.Get(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, BatchCompleted, done.Status)
	assert.NotNil(t, done.FinishedAt)
	assert.Empty(t, done.Report)
	for _, ep := range done.Episodes {
		assert.Equal(t, domain.StatusCompleted, ep.Status)
		assert.Equal(t, ep.Pages, ep.Completed)
	}

	assert.Len(t, f.service.List(), 1)
	assert.Equal(t, 0, f.service.Running())
	assert.False(t, f.service.Accepting())

	_, err = f.service.Submit(plan)
	assert.ErrorIs(t, err, ErrServiceClosed)

	_, err = f.service.Get("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBatchService_SubmitPartialFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.resolver.errs[2] = errors.New("token expired")

	plan, err := f.service.Plan(context.Background(), 26470, Selection{Expr: "1,2"})
	require.NoError(t, err)
	_, err = f.service.Submit(plan)
	require.NoError(t, err)
	require.NoError(t, f.service.Shutdown(context.Background()))

	done, err := f.service.Get(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, BatchPartial, done.Status)
	require.Len(t, done.Report, 1)
	assert.Contains(t, done.Report[0], "[2]Two.zip locator resolution failed")
	assert.Equal(t, domain.StatusFailed, done.Episodes[1].Status)
}
