package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/manga-dl-go/internal/domain"
)

// Selection picks episodes out of a catalog. Expr holds 1-based catalog
// positions ("1,3,5-8" or "all"); Ords and IDs match episodes directly.
type Selection struct {
	Expr          string
	Ords          []float64
	IDs           []int64
	IncludeLocked bool
}

// Empty reports whether nothing was requested
func (s Selection) Empty() bool {
	return strings.TrimSpace(s.Expr) == "" && len(s.Ords) == 0 && len(s.IDs) == 0
}

// SelectEpisodes resolves a selection against the catalog. The result keeps
// catalog order without duplicates; locked episodes are returned separately
// unless IncludeLocked is set.
func SelectEpisodes(catalog []domain.Episode, sel Selection) (selected, locked []domain.Episode, err error) {
	if sel.Empty() {
		return nil, nil, fmt.Errorf("no episodes selected")
	}

	picked := make([]bool, len(catalog))

	if strings.TrimSpace(sel.Expr) != "" {
		positions, err := ParseEpisodeRange(sel.Expr, len(catalog))
		if err != nil {
			return nil, nil, err
		}
		for _, pos := range positions {
			picked[pos] = true
		}
	}

	for _, ord := range sel.Ords {
		want := domain.FormatOrd(ord)
		found := false
		for i, ep := range catalog {
			if domain.FormatOrd(ep.Ord) == want {
				picked[i] = true
				found = true
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("no episode with ord %s", want)
		}
	}

	for _, id := range sel.IDs {
		found := false
		for i, ep := range catalog {
			if ep.ID == id {
				picked[i] = true
				found = true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("no episode with id %d", id)
		}
	}

	for i, ep := range catalog {
		if !picked[i] {
			continue
		}
		if ep.Locked && !sel.IncludeLocked {
			locked = append(locked, ep)
			continue
		}
		selected = append(selected, ep)
	}
	return selected, locked, nil
}

// ParseEpisodeRange parses a list of 1-based positions and ranges into
// sorted, unique 0-based indexes below total
func ParseEpisodeRange(expr string, total int) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if strings.EqualFold(expr, "all") {
		indexes := make([]int, total)
		for i := range indexes {
			indexes[i] = i
		}
		return indexes, nil
	}

	seen := make([]bool, total)
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		from, to, err := parseRangePart(part)
		if err != nil {
			return nil, err
		}
		if from < 1 || to > total || from > to {
			return nil, fmt.Errorf("episode range %q out of bounds 1-%d", part, total)
		}
		for pos := from; pos <= to; pos++ {
			seen[pos-1] = true
		}
	}

	var indexes []int
	for i, ok := range seen {
		if ok {
			indexes = append(indexes, i)
		}
	}
	if len(indexes) == 0 {
		return nil, fmt.Errorf("episode range %q selects nothing", expr)
	}
	return indexes, nil
}

func parseRangePart(part string) (int, int, error) {
	lo, hi, isRange := strings.Cut(part, "-")
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid episode number %q", part)
	}
	if !isRange {
		return from, from, nil
	}
	to, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid episode range %q", part)
	}
	return from, to, nil
}
