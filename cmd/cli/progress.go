package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/yourusername/manga-dl-go/internal/domain"
)

// progressObserver renders one bar over the pages of the whole batch. The
// bar grows as episodes resolve their page counts. Without a terminal it
// prints one line per finished episode instead.
type progressObserver struct {
	out         io.Writer
	interactive bool
	bar         *progressbar.ProgressBar
	mu          sync.Mutex
	done        map[int64]int
	episodes    int
	finished    int
}

func newProgressObserver(episodes int, out io.Writer, interactive bool) *progressObserver {
	return &progressObserver{
		out:         out,
		interactive: interactive,
		done:        make(map[int64]int),
		episodes:    episodes,
	}
}

// isTerminal reports whether f is attached to a terminal
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (o *progressObserver) EpisodeStarted(episode domain.Episode, pages int) {
	if !o.interactive {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	// The bar is created with the first page count; a zero max renders badly
	if o.bar == nil {
		o.bar = progressbar.NewOptions(pages,
			progressbar.OptionSetWriter(o.out),
			progressbar.OptionSetDescription(o.description()),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
		return
	}
	o.bar.ChangeMax(o.bar.GetMax() + pages)
}

func (o *progressObserver) EpisodeProgress(episode domain.Episode, completed, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bar == nil {
		return
	}

	delta := completed - o.done[episode.ID]
	o.done[episode.ID] = completed
	if delta > 0 {
		o.bar.Add(delta)
	}
}

func (o *progressObserver) EpisodeFinished(outcome domain.EpisodeOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.finished++
	if !o.interactive {
		status := "ok"
		if !outcome.Succeeded() {
			status = "FAILED"
		}
		fmt.Fprintf(o.out, "[%d/%d] %s %s\n", o.finished, o.episodes, outcome.ArchiveName, status)
		return
	}

	if o.bar != nil {
		o.bar.Describe(o.description())
	}
}

// Close clears the bar
func (o *progressObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bar != nil {
		o.bar.Finish()
	}
}

func (o *progressObserver) description() string {
	return fmt.Sprintf("episodes %d/%d", o.finished, o.episodes)
}
