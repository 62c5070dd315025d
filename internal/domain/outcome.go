package domain

import "fmt"

// EpisodeOutcome is the result of running one episode through the pipeline
type EpisodeOutcome struct {
	Episode     Episode
	ArchiveName string
	ArchivePath string // set on success
	Pages       int
	Bytes       int64
	Stage       Stage // set on failure
	Err         error
}

// Succeeded reports whether the episode archive was written
func (o EpisodeOutcome) Succeeded() bool {
	return o.Err == nil
}

// Message returns the one-line failure description reported to the user
func (o EpisodeOutcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s %s failed: %v", o.ArchiveName, o.Stage, o.Err)
}

// BatchReport lists one failure message per failed episode, in episode order.
// An empty report means every episode was archived.
type BatchReport []string

// OK reports whether the batch finished without failures
func (r BatchReport) OK() bool {
	return len(r) == 0
}
