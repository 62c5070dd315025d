package app

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/yourusername/manga-dl-go/internal/domain"
	"go.uber.org/zap"
)

var errNoResources = errors.New("episode has no resources")

// EpisodePipeline drives one episode from locator resolution to a written archive
type EpisodePipeline struct {
	resolver domain.LocatorResolver
	group    *DownloadGroup
	writer   domain.ArchiveWriter
	uploader domain.ArchiveUploader
	logger   *zap.Logger
}

// NewEpisodePipeline creates a pipeline; uploader may be nil
func NewEpisodePipeline(
	resolver domain.LocatorResolver,
	group *DownloadGroup,
	writer domain.ArchiveWriter,
	uploader domain.ArchiveUploader,
	logger *zap.Logger,
) *EpisodePipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EpisodePipeline{
		resolver: resolver,
		group:    group,
		writer:   writer,
		uploader: uploader,
		logger:   logger,
	}
}

// Run processes one episode and stops at the first failing stage.
// No stage is retried.
func (p *EpisodePipeline) Run(
	ctx context.Context,
	manga domain.Manga,
	episode domain.Episode,
	credential string,
	destDir string,
	observer domain.BatchObserver,
) domain.EpisodeOutcome {
	outcome := domain.EpisodeOutcome{
		Episode:     episode,
		ArchiveName: episode.ArchiveName(),
	}
	if observer == nil {
		observer = noopObserver{}
	}

	locators, err := p.resolver.ResolveLocators(ctx, manga.ID, episode.ID, credential)
	if err == nil && len(locators) == 0 {
		err = errNoResources
	}
	if err != nil {
		var resErr *domain.ResolutionError
		if !errors.As(err, &resErr) {
			err = &domain.ResolutionError{EpisodeID: episode.ID, Err: err}
		}
		return failed(outcome, domain.StageResolve, err)
	}

	outcome.Pages = len(locators)
	observer.EpisodeStarted(episode, len(locators))

	payloads, err := p.group.DownloadAll(ctx, locators, func(completed, total int) {
		observer.EpisodeProgress(episode, completed, total)
	})
	if err != nil {
		return failed(outcome, domain.StageFetch, err)
	}

	destPath := filepath.Join(destDir, outcome.ArchiveName)
	if err := p.writer.WriteArchive(payloads, destPath); err != nil {
		return failed(outcome, domain.StageArchive, err)
	}

	outcome.ArchivePath = destPath
	for _, payload := range payloads {
		outcome.Bytes += int64(len(payload))
	}

	p.upload(ctx, manga, outcome)
	return outcome
}

// upload failures are logged only; the archive is already on disk
func (p *EpisodePipeline) upload(ctx context.Context, manga domain.Manga, outcome domain.EpisodeOutcome) {
	if p.uploader == nil {
		return
	}
	if err := p.uploader.Upload(ctx, manga.Title, outcome.ArchivePath); err != nil {
		p.logger.Warn("Archive upload failed",
			zap.String("archive", outcome.ArchiveName),
			zap.Error(err))
	}
}

func failed(outcome domain.EpisodeOutcome, stage domain.Stage, err error) domain.EpisodeOutcome {
	outcome.Stage = stage
	outcome.Err = err
	return outcome
}
