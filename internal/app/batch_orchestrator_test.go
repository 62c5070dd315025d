package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"github.com/yourusername/manga-dl-go/internal/infrastructure"
)

func newTestOrchestrator(t *testing.T, resolver domain.LocatorResolver, fetcher domain.ResourceFetcher, resources, episodes int) *BatchOrchestrator {
	t.Helper()
	orchestrator, err := NewBatchOrchestrator(resolver, fetcher, infrastructure.NewZipArchiveWriter(), nil,
		&domain.DownloadConfig{ResourceConcurrency: resources, EpisodeConcurrency: episodes}, nil)
	require.NoError(t, err)
	return orchestrator
}

func TestNewBatchOrchestrator_InvalidConfig(t *testing.T) {
	_, err := NewBatchOrchestrator(newFakeResolver(), newFakeFetcher(), infrastructure.NewZipArchiveWriter(), nil,
		&domain.DownloadConfig{ResourceConcurrency: 0, EpisodeConcurrency: 1}, nil)
	assert.Error(t, err)

	_, err = NewBatchOrchestrator(newFakeResolver(), newFakeFetcher(), infrastructure.NewZipArchiveWriter(), nil,
		&domain.DownloadConfig{ResourceConcurrency: 2, EpisodeConcurrency: 0}, nil)
	assert.Error(t, err)
}

func TestBatchOrchestrator_IsolatesEpisodeFailure(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "Test Manga")
	fetcher := newFakeFetcher()
	resolver := newFakeResolver()

	episodes := []domain.Episode{
		{ID: 1, Title: "One", Ord: 1},
		{ID: 2, Title: "Two", Ord: 2},
		{ID: 3, Title: "Three", Ord: 3},
	}
	resolver.locators[1] = locatorsFor(fetcher, 1, 4, time.Millisecond)
	resolver.locators[2] = locatorsFor(fetcher, 2, 4, time.Millisecond)
	resolver.locators[3] = locatorsFor(fetcher, 3, 5, time.Millisecond)
	// second locator of episode 2 is missing on the server
	delete(fetcher.resources, resolver.locators[2][1])

	observer := newRecordingObserver()
	result, err := newTestOrchestrator(t, resolver, fetcher, 6, 3).Run(context.Background(), BatchRequest{
		Manga:    testManga,
		Episodes: episodes,
		DestDir:  dest,
	}, observer)
	require.NoError(t, err)

	require.Len(t, result.Report, 1)
	assert.Contains(t, result.Report[0], "[2]Two.zip")
	assert.Contains(t, result.Report[0], "download")
	assert.False(t, result.Report.OK())

	assert.Equal(t, []string{"0.jpg", "1.jpg", "2.jpg", "3.jpg"}, zipEntries(t, filepath.Join(dest, "[1]One.zip")))
	assert.Len(t, zipEntries(t, filepath.Join(dest, "[3]Three.zip")), 5)
	assert.NoFileExists(t, filepath.Join(dest, "[2]Two.zip"))

	for _, ep := range episodes {
		assert.Equal(t, 1, resolver.callCount(ep.ID))
	}
	assert.Equal(t, []int64{1, 2, 3}, observer.finishedIDs())
	assert.Equal(t, 2, result.Succeeded())
}

func TestBatchOrchestrator_OutcomesInInputOrder(t *testing.T) {
	fetcher := newFakeFetcher()
	resolver := newFakeResolver()

	// the first episode is the slowest, so it completes last
	episodes := []domain.Episode{
		{ID: 1, Title: "A", Ord: 1},
		{ID: 2, Title: "B", Ord: 2},
		{ID: 3, Title: "C", Ord: 3},
	}
	resolver.locators[1] = locatorsFor(fetcher, 1, 2, 40*time.Millisecond)
	resolver.locators[2] = locatorsFor(fetcher, 2, 2, 0)
	resolver.locators[3] = locatorsFor(fetcher, 3, 2, 0)
	resolver.errs[1] = errors.New("first broken")
	resolver.errs[3] = errors.New("third broken")

	result, err := newTestOrchestrator(t, resolver, fetcher, 2, 3).Run(context.Background(), BatchRequest{
		Manga:    testManga,
		Episodes: episodes,
		DestDir:  t.TempDir(),
	}, nil)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 3)
	for i, outcome := range result.Outcomes {
		assert.Equal(t, episodes[i].ID, outcome.Episode.ID)
	}
	require.Len(t, result.Report, 2)
	assert.Contains(t, result.Report[0], "[1]A.zip locator resolution failed")
	assert.Contains(t, result.Report[1], "[3]C.zip locator resolution failed")
}

func TestBatchOrchestrator_CapSharedAcrossEpisodes(t *testing.T) {
	fetcher := newFakeFetcher()
	resolver := newFakeResolver()
	resolver.locators[1] = locatorsFor(fetcher, 1, 5, 5*time.Millisecond)
	resolver.locators[2] = locatorsFor(fetcher, 2, 5, 5*time.Millisecond)

	result, err := newTestOrchestrator(t, resolver, fetcher, 2, 2).Run(context.Background(), BatchRequest{
		Manga:    testManga,
		Episodes: []domain.Episode{{ID: 1, Title: "A", Ord: 1}, {ID: 2, Title: "B", Ord: 2}},
		DestDir:  t.TempDir(),
	}, nil)
	require.NoError(t, err)

	assert.True(t, result.Report.OK())
	assert.LessOrEqual(t, fetcher.maxInFlight.Load(), int32(2))
	assert.Equal(t, int32(10), fetcher.calls.Load())
}

func TestBatchOrchestrator_EmptyBatch(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")

	result, err := newTestOrchestrator(t, newFakeResolver(), newFakeFetcher(), 2, 1).Run(context.Background(), BatchRequest{
		Manga:   testManga,
		DestDir: dest,
	}, nil)
	require.NoError(t, err)

	assert.True(t, result.Report.OK())
	assert.Empty(t, result.Outcomes)
	assert.DirExists(t, dest)
}

func TestBatchOrchestrator_DestinationNotCreatable(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0644))

	resolver := newFakeResolver()
	_, err := newTestOrchestrator(t, resolver, newFakeFetcher(), 2, 1).Run(context.Background(), BatchRequest{
		Manga:    testManga,
		Episodes: []domain.Episode{{ID: 1, Ord: 1}},
		DestDir:  filepath.Join(parent, "sub"),
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 0, resolver.callCount(1))
}
