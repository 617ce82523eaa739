// Package condition holds the file predicates used to query, clone and copy
// directory trees.
//
// A Condition ANDs its criteria together, except that the filename-contains
// literals are ORed among themselves. Several conditions combined with AnyOf
// match a file when any one of them does. An empty criterion never rejects.
package condition

import (
	"strings"

	"arbor/pkg/utils"
)

// Predicate is a user criterion over the raw candidate path string. It sees
// the path exactly as the tree reports it, not a parsed form.
type Predicate func(path string) bool

// Matcher decides whether a file belongs to a query. inTerminal tells whether
// the file's directory has no subdirectories.
type Matcher interface {
	Match(path string, inTerminal bool) bool
}

// Condition is a reusable, composable file filter. Mutators return the same
// instance for chaining. A Condition must not be mutated while another
// goroutine evaluates it; evaluation alone is safe to share.
type Condition struct {
	onlyTerminal    bool
	containLiterals []string
	excludeLiterals []string
	containDirs     []string
	excludeDirs     []string
	extensions      []string
	predicates      []Predicate
}

// New returns a Condition that accepts every file.
func New() *Condition {
	return &Condition{}
}

// OnlyTerminal restricts matches to files directly inside terminal directories.
func (c *Condition) OnlyTerminal(on bool) *Condition {
	c.onlyTerminal = on
	return c
}

// AddContainFilename requires the file name to contain at least one of the
// registered literals.
func (c *Condition) AddContainFilename(literals ...string) *Condition {
	c.containLiterals = utils.AppendUnique(c.containLiterals, literals...)
	return c
}

func (c *Condition) RemoveContainFilename(literals ...string) *Condition {
	c.containLiterals = utils.RemoveAll(c.containLiterals, literals...)
	return c
}

// AddExcludeFilename rejects file names containing any of the literals.
func (c *Condition) AddExcludeFilename(literals ...string) *Condition {
	c.excludeLiterals = utils.AppendUnique(c.excludeLiterals, literals...)
	return c
}

func (c *Condition) RemoveExcludeFilename(literals ...string) *Condition {
	c.excludeLiterals = utils.RemoveAll(c.excludeLiterals, literals...)
	return c
}

// AddContainDir requires one of the names to appear as a directory segment
// of the file's path.
func (c *Condition) AddContainDir(names ...string) *Condition {
	c.containDirs = utils.AppendUnique(c.containDirs, names...)
	return c
}

func (c *Condition) RemoveContainDir(names ...string) *Condition {
	c.containDirs = utils.RemoveAll(c.containDirs, names...)
	return c
}

// AddExcludeDir rejects files with any of the names among their directory segments.
func (c *Condition) AddExcludeDir(names ...string) *Condition {
	c.excludeDirs = utils.AppendUnique(c.excludeDirs, names...)
	return c
}

func (c *Condition) RemoveExcludeDir(names ...string) *Condition {
	c.excludeDirs = utils.RemoveAll(c.excludeDirs, names...)
	return c
}

// SpecifyExtension allows the given extensions. "py" and ".py" are the same.
func (c *Condition) SpecifyExtension(extensions ...string) *Condition {
	c.extensions = utils.AppendUnique(c.extensions, trimDots(extensions)...)
	return c
}

func (c *Condition) RemoveExtensions(extensions ...string) *Condition {
	c.extensions = utils.RemoveAll(c.extensions, trimDots(extensions)...)
	return c
}

// AddCustomPredicate appends fn. Every custom predicate must hold.
func (c *Condition) AddCustomPredicate(fn Predicate) *Condition {
	if fn != nil {
		c.predicates = append(c.predicates, fn)
	}
	return c
}

func (c *Condition) ResetCustomPredicates() *Condition {
	c.predicates = nil
	return c
}

// Evaluate reports whether filePath satisfies every active criterion.
// Criteria are checked in a fixed order: terminal flag, directory allow-list,
// directory deny-list, extension, filename contains, filename excludes, then
// custom predicates.
func (c *Condition) Evaluate(filePath string, inTerminal bool) bool {
	if c.onlyTerminal && !inTerminal {
		return false
	}

	segments := utils.SplitSegments(filePath)
	dirs, name := segments[:len(segments)-1], segments[len(segments)-1]

	if len(c.containDirs) > 0 && !anyIn(c.containDirs, dirs) {
		return false
	}

	if anyIn(c.excludeDirs, dirs) {
		return false
	}

	if len(c.extensions) > 0 && !utils.Contains(c.extensions, Extension(name)) {
		return false
	}

	if len(c.containLiterals) > 0 && !containsAny(name, c.containLiterals) {
		return false
	}

	if containsAny(name, c.excludeLiterals) {
		return false
	}

	for _, fn := range c.predicates {
		if !fn(filePath) {
			return false
		}
	}

	return true
}

// Match implements Matcher.
func (c *Condition) Match(path string, inTerminal bool) bool {
	return c.Evaluate(path, inTerminal)
}

// IsOnlyTerminal reports the terminal-only flag.
func (c *Condition) IsOnlyTerminal() bool { return c.onlyTerminal }

// Extensions returns a copy of the allowed extensions.
func (c *Condition) Extensions() []string { return append([]string(nil), c.extensions...) }

// ContainFilenames returns a copy of the filename allow-literals.
func (c *Condition) ContainFilenames() []string { return append([]string(nil), c.containLiterals...) }

// ExcludeFilenames returns a copy of the filename deny-literals.
func (c *Condition) ExcludeFilenames() []string { return append([]string(nil), c.excludeLiterals...) }

// ContainDirs returns a copy of the directory allow-list.
func (c *Condition) ContainDirs() []string { return append([]string(nil), c.containDirs...) }

// ExcludeDirs returns a copy of the directory deny-list.
func (c *Condition) ExcludeDirs() []string { return append([]string(nil), c.excludeDirs...) }

// CustomPredicates returns the number of registered custom predicates.
func (c *Condition) CustomPredicates() int { return len(c.predicates) }

// Extension returns the part of name after its final '.', or "" when name
// has no dot.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

func trimDots(extensions []string) []string {
	trimmed := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		trimmed = append(trimmed, strings.TrimPrefix(ext, "."))
	}
	return trimmed
}

func anyIn(wanted, segments []string) bool {
	for _, w := range wanted {
		if utils.Contains(segments, w) {
			return true
		}
	}
	return false
}

func containsAny(name string, literals []string) bool {
	for _, literal := range literals {
		if strings.Contains(name, literal) {
			return true
		}
	}
	return false
}
