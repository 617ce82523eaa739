package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"arbor/pkg/condition"
	"arbor/pkg/models"
	"arbor/pkg/tree"
	"arbor/pkg/utils"
)

// TreeStats summarizes a built tree and the files a matcher keeps in it
type TreeStats struct {
	Root                string         `json:"root"`
	Directories         int            `json:"directories"`
	TerminalDirectories int            `json:"terminal_directories"`
	MaxDepth            int            `json:"max_depth"`
	TotalFiles          int            `json:"total_files"`
	MatchingFiles       int            `json:"matching_files"`
	Extensions          map[string]int `json:"extensions"`
	BuildDuration       string         `json:"build_duration"`
}

// Calculator handles tree statistics calculation
type Calculator struct{}

// NewCalculator creates a new stats calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute walks root once. Extensions counts matching files only, files
// without an extension under "".
func (c *Calculator) Compute(root *tree.Directory, m condition.Matcher, buildDuration time.Duration) *TreeStats {
	stats := &TreeStats{
		Root:          utils.ToSlash(root.Path()),
		Extensions:    make(map[string]int),
		BuildDuration: buildDuration.String(),
	}

	var walk func(d *tree.Directory, depth int)
	walk = func(d *tree.Directory, depth int) {
		stats.Directories++
		if d.IsTerminal() {
			stats.TerminalDirectories++
		}
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		for _, file := range d.Files() {
			stats.TotalFiles++
			if m != nil && !m.Match(file, d.IsTerminal()) {
				continue
			}
			stats.MatchingFiles++
			stats.Extensions[condition.Extension(utils.BaseName(file))]++
		}
		for _, child := range d.Children() {
			walk(child, depth+1)
		}
	}
	walk(root, 0)

	return stats
}

// Write prints stats as aligned text, or as json for FormatJSON
func (s *TreeStats) Write(w io.Writer, format models.OutputFormat) error {
	if format == models.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	if _, err := fmt.Fprintf(w, "%s\n  directories:  %d (%d terminal)\n  max depth:    %d\n  files:        %d (%d matching)\n",
		s.Root, s.Directories, s.TerminalDirectories, s.MaxDepth, s.TotalFiles, s.MatchingFiles); err != nil {
		return err
	}

	exts := make([]string, 0, len(s.Extensions))
	for ext := range s.Extensions {
		exts = append(exts, ext)
	}
	// most frequent first
	sort.Slice(exts, func(i, j int) bool {
		if s.Extensions[exts[i]] != s.Extensions[exts[j]] {
			return s.Extensions[exts[i]] > s.Extensions[exts[j]]
		}
		return exts[i] < exts[j]
	})
	for _, ext := range exts {
		label := "." + ext
		if ext == "" {
			label = "(none)"
		}
		if _, err := fmt.Fprintf(w, "  %-12s  %d\n", label, s.Extensions[ext]); err != nil {
			return err
		}
	}
	return nil
}
