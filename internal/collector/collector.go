// Package collector gathers the paths of a tree that match a set of
// conditions and prints them.
package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"arbor/pkg/condition"
	"arbor/pkg/models"
	"arbor/pkg/tree"
)

// Collector pairs a built tree with the matcher applied to it
type Collector struct {
	root    *tree.Directory
	matcher condition.Matcher
}

// New wraps an already built tree. A nil matcher collects every file.
func New(m condition.Matcher, root *tree.Directory) *Collector {
	return &Collector{root: root, matcher: m}
}

func (c *Collector) Root() *tree.Directory {
	return c.root
}

// Paths returns the matching paths nested like the tree
func (c *Collector) Paths() tree.Group {
	return c.root.Collect(c.matcher, false)
}

// Serialize returns the matching paths as one list
func (c *Collector) Serialize() []string {
	return tree.Flatten(c.Paths())
}

// Grouped returns one list of matching paths per directory holding matches
func (c *Collector) Grouped() [][]string {
	return tree.GroupByDirectory(c.Paths())
}

// Write prints the matching paths to w. Text is one path per line, grouped
// separates directories by a blank line, json is nested arrays unless flatten.
func (c *Collector) Write(w io.Writer, format models.OutputFormat, flatten bool) error {
	switch format {
	case models.FormatText, "":
		return writeLines(w, c.Serialize())
	case models.FormatGrouped:
		for i, group := range c.Grouped() {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if err := writeLines(w, group); err != nil {
				return err
			}
		}
		return nil
	case models.FormatJSON:
		var v interface{} = c.Paths()
		if flatten {
			v = nonNil(c.Serialize())
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeLines(w io.Writer, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func nonNil(paths []string) []string {
	if paths == nil {
		return []string{}
	}
	return paths
}
