package app

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"github.com/yourusername/manga-dl-go/internal/infrastructure"
)

type failingWriter struct{}

func (failingWriter) WriteArchive(_ [][]byte, destPath string) error {
	return &domain.WriteError{Path: destPath, Err: errors.New("disk full")}
}

type fakeUploader struct {
	uploaded []string
	err      error
}

func (u *fakeUploader) Upload(_ context.Context, _ string, archivePath string) error {
	u.uploaded = append(u.uploaded, archivePath)
	return u.err
}

func newTestPipeline(t *testing.T, resolver domain.LocatorResolver, fetcher domain.ResourceFetcher, writer domain.ArchiveWriter, uploader domain.ArchiveUploader) *EpisodePipeline {
	t.Helper()
	return NewEpisodePipeline(resolver, newTestGroup(t, fetcher, 3), writer, uploader, nil)
}

func zipEntries(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

var testManga = domain.Manga{ID: 26470, Title: "Test Manga"}

func TestEpisodePipeline_Success(t *testing.T) {
	dir := t.TempDir()
	fetcher := newFakeFetcher()
	resolver := newFakeResolver()
	resolver.locators[10] = locatorsFor(fetcher, 10, 3, 0)
	uploader := &fakeUploader{}
	observer := newRecordingObserver()

	episode := domain.Episode{ID: 10, Title: "The End: Part 1", Ord: 6.5}
	outcome := newTestPipeline(t, resolver, fetcher, infrastructure.NewZipArchiveWriter(), uploader).
		Run(context.Background(), testManga, episode, "cookie", dir, observer)

	require.True(t, outcome.Succeeded(), outcome.Message())
	assert.Equal(t, "[6.5]TheEndPart1.zip", outcome.ArchiveName)
	assert.Equal(t, filepath.Join(dir, "[6.5]TheEndPart1.zip"), outcome.ArchivePath)
	assert.Equal(t, 3, outcome.Pages)
	assert.Equal(t, int64(len("episode-10-page-0")*3), outcome.Bytes)
	assert.Equal(t, []string{"0.jpg", "1.jpg", "2.jpg"}, zipEntries(t, outcome.ArchivePath))

	assert.Equal(t, []string{outcome.ArchivePath}, uploader.uploaded)
	assert.Equal(t, 3, observer.started[10])
	assert.Equal(t, []int{1, 2, 3}, observer.progress[10])
}

func TestEpisodePipeline_ResolutionFailure(t *testing.T) {
	dir := t.TempDir()
	fetcher := newFakeFetcher()
	resolver := newFakeResolver()
	resolver.errs[10] = errors.New("image index: code 1")
	observer := newRecordingObserver()

	episode := domain.Episode{ID: 10, Title: "Ch", Ord: 1}
	outcome := newTestPipeline(t, resolver, fetcher, infrastructure.NewZipArchiveWriter(), nil).
		Run(context.Background(), testManga, episode, "", dir, observer)

	require.False(t, outcome.Succeeded())
	assert.Equal(t, domain.StageResolve, outcome.Stage)
	var resErr *domain.ResolutionError
	assert.True(t, errors.As(outcome.Err, &resErr))
	assert.Contains(t, outcome.Message(), "[1]Ch.zip locator resolution failed")

	assert.Equal(t, int32(0), fetcher.calls.Load())
	assert.Empty(t, observer.started)
	assert.NoFileExists(t, filepath.Join(dir, "[1]Ch.zip"))
}

func TestEpisodePipeline_NoResources(t *testing.T) {
	resolver := newFakeResolver()
	resolver.locators[10] = []string{}

	outcome := newTestPipeline(t, resolver, newFakeFetcher(), infrastructure.NewZipArchiveWriter(), nil).
		Run(context.Background(), testManga, domain.Episode{ID: 10, Ord: 2}, "", t.TempDir(), nil)

	assert.Equal(t, domain.StageResolve, outcome.Stage)
	assert.ErrorIs(t, outcome.Err, errNoResources)
}

func TestEpisodePipeline_DownloadFailure(t *testing.T) {
	dir := t.TempDir()
	fetcher := newFakeFetcher()
	resolver := newFakeResolver()
	resolver.locators[10] = locatorsFor(fetcher, 10, 4, 0)
	fetcher.add(resolver.locators[10][2], fakeResource{status: 403})
	uploader := &fakeUploader{}

	episode := domain.Episode{ID: 10, Title: "Ch", Ord: 3}
	outcome := newTestPipeline(t, resolver, fetcher, infrastructure.NewZipArchiveWriter(), uploader).
		Run(context.Background(), testManga, episode, "", dir, nil)

	require.False(t, outcome.Succeeded())
	assert.Equal(t, domain.StageFetch, outcome.Stage)
	assert.Contains(t, outcome.Message(), "[3]Ch.zip download failed")
	var groupErr *domain.GroupError
	assert.True(t, errors.As(outcome.Err, &groupErr))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, uploader.uploaded)
}

func TestEpisodePipeline_ArchiveFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	resolver := newFakeResolver()
	resolver.locators[10] = locatorsFor(fetcher, 10, 2, 0)

	episode := domain.Episode{ID: 10, Title: "Ch", Ord: 4}
	outcome := newTestPipeline(t, resolver, fetcher, failingWriter{}, nil).
		Run(context.Background(), testManga, episode, "", t.TempDir(), nil)

	require.False(t, outcome.Succeeded())
	assert.Equal(t, domain.StageArchive, outcome.Stage)
	assert.Contains(t, outcome.Message(), "[4]Ch.zip archive write failed")
	assert.Empty(t, outcome.ArchivePath)
}

func TestEpisodePipeline_UploadFailureKeepsSuccess(t *testing.T) {
	fetcher := newFakeFetcher()
	resolver := newFakeResolver()
	resolver.locators[10] = locatorsFor(fetcher, 10, 1, 0)
	uploader := &fakeUploader{err: errors.New("bucket unreachable")}

	outcome := newTestPipeline(t, resolver, fetcher, infrastructure.NewZipArchiveWriter(), uploader).
		Run(context.Background(), testManga, domain.Episode{ID: 10, Title: "Ch", Ord: 5}, "", t.TempDir(), nil)

	assert.True(t, outcome.Succeeded())
	assert.Len(t, uploader.uploaded, 1)
}
