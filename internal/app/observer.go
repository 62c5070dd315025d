package app

import "github.com/yourusername/manga-dl-go/internal/domain"

// Observers fans batch notifications out to several observers
type Observers []domain.BatchObserver

func (o Observers) EpisodeStarted(episode domain.Episode, pages int) {
	for _, observer := range o {
		observer.EpisodeStarted(episode, pages)
	}
}

func (o Observers) EpisodeProgress(episode domain.Episode, completed, total int) {
	for _, observer := range o {
		observer.EpisodeProgress(episode, completed, total)
	}
}

func (o Observers) EpisodeFinished(outcome domain.EpisodeOutcome) {
	for _, observer := range o {
		observer.EpisodeFinished(outcome)
	}
}

type noopObserver struct{}

func (noopObserver) EpisodeStarted(domain.Episode, int)       {}
func (noopObserver) EpisodeProgress(domain.Episode, int, int) {}
func (noopObserver) EpisodeFinished(domain.EpisodeOutcome)    {}
