package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Stage identifies the pipeline step an episode failed in
type Stage string

const (
	StageResolve Stage = "locator resolution"
	StageFetch   Stage = "download"
	StageArchive Stage = "archive write"
)

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = errors.New("not found")

// ResolutionError reports that the locator collaborator failed for an episode
type ResolutionError struct {
	EpisodeID int64
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve locators for episode %d: %v", e.EpisodeID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// FetchError reports a single failed resource download
type FetchError struct {
	Locator    string
	StatusCode int // zero for transport and read failures
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", RedactLocator(e.Locator), e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", RedactLocator(e.Locator), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// GroupError reports that at least one fetch of a download group failed.
// Index is the position of the first recorded failure in the locator list.
type GroupError struct {
	Index int
	Total int
	Err   error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("resource %d of %d: %v", e.Index+1, e.Total, e.Err)
}

func (e *GroupError) Unwrap() error { return e.Err }

// WriteError reports an archive creation or entry write failure
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write archive %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// RedactLocator drops the query string so access tokens never reach logs
func RedactLocator(locator string) string {
	if i := strings.IndexByte(locator, '?'); i >= 0 {
		return locator[:i]
	}
	return locator
}
