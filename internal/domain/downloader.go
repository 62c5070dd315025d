package domain

import "context"

// Catalog resolves titles and their episode lists
type Catalog interface {
	// Search returns the comics matching keyword
	Search(ctx context.Context, keyword string) ([]Manga, error)

	// Manga returns the title details of a manga
	Manga(ctx context.Context, mangaID int64) (Manga, error)

	// Episodes returns the episodes of a manga in catalog order
	Episodes(ctx context.Context, mangaID int64) ([]Episode, error)
}

// LocatorResolver turns an episode into its ordered resource URLs.
// Locators may embed short-lived tokens, so they must not be cached.
type LocatorResolver interface {
	ResolveLocators(ctx context.Context, mangaID, episodeID int64, credential string) ([]string, error)
}

// CredentialValidator checks whether a credential is accepted by the remote API
type CredentialValidator interface {
	ValidateCredential(ctx context.Context, credential string) (bool, error)
}

// ResourceFetcher retrieves one resource and returns its raw bytes
type ResourceFetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// ArchiveWriter packages ordered payloads into one archive file
type ArchiveWriter interface {
	WriteArchive(payloads [][]byte, destPath string) error
}

// ArchiveUploader ships a finished archive to secondary storage
type ArchiveUploader interface {
	Upload(ctx context.Context, mangaTitle, archivePath string) error
}

// BatchObserver receives progress notifications from a running batch.
// Calls may arrive concurrently from different episodes.
type BatchObserver interface {
	EpisodeStarted(episode Episode, pages int)
	EpisodeProgress(episode Episode, completed, total int)
	EpisodeFinished(outcome EpisodeOutcome)
}
