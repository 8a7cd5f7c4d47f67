// Package datasets discovers candidate dataset files for interactive upload.
package datasets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MaxCandidates caps how many files the selection menu shows.
const MaxCandidates = 5

// Candidate is a local file eligible for upload.
type Candidate struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Label renders a menu entry for the candidate.
func (c Candidate) Label() string {
	return fmt.Sprintf("%s  (%s, %s)", c.Name, humanSize(c.Size), c.ModTime.Format("2006-01-02 15:04"))
}

// Discover lists regular files in dir matching ext (e.g. ".csv"), sorted by
// modification time descending, capped at MaxCandidates. A missing or empty
// directory yields an empty slice, not an error.
func Discover(dir, ext string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var candidates []Candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ModTime.After(candidates[j].ModTime)
	})

	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	return candidates, nil
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
