package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Manga is a title returned by the catalog search
type Manga struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Type  int    `json:"type"`
}

// Episode is one downloadable chapter of a manga.
// Ord is for display and file naming only; catalog order is the real order.
type Episode struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Ord    float64 `json:"ord"`
	Locked bool    `json:"is_locked"`
}

// unsafeFileNameChars matches path separators, wildcards, quotes, angle
// brackets, pipe and Unicode whitespace (\s alone is ASCII only in RE2).
var unsafeFileNameChars = regexp.MustCompile(`[\\/:*?"<>|\s\p{Z}\v\x{85}]`)

// SanitizeFileName strips filesystem-unsafe characters from name.
// The result is not reversible and distinct titles may collapse to the same name.
func SanitizeFileName(name string) string {
	return unsafeFileNameChars.ReplaceAllString(name, "")
}

// FormatOrd renders an ordering key the shortest way: 6 -> "6", 6.5 -> "6.5".
func FormatOrd(ord float64) string {
	return strconv.FormatFloat(ord, 'f', -1, 32)
}

// ArchiveName returns the archive file name for the episode: "[<ord>]<title>.zip"
func (e Episode) ArchiveName() string {
	return fmt.Sprintf("[%s]%s.zip", FormatOrd(e.Ord), SanitizeFileName(e.Title))
}

// Label returns the display label used in episode listings
func (e Episode) Label() string {
	return fmt.Sprintf("[%s]%s", FormatOrd(e.Ord), e.Title)
}
