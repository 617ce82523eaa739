// Package tree is an in-memory model of a directory hierarchy. A Directory is
// built from an fsys.Source, then queried, cloned and materialized onto an
// fsys.Target. The model is a snapshot: it only changes on Refresh.
//
// A Directory is not safe for concurrent mutation. Clone it before handing it
// to another goroutine.
package tree

import (
	"errors"
	"fmt"
	"path/filepath"

	"arbor/pkg/fsys"
	"arbor/pkg/logger"
	"arbor/pkg/utils"

	"github.com/sirupsen/logrus"
)

// ErrInvalidArgument is returned when a Directory is constructed with an empty path.
var ErrInvalidArgument = errors.New("invalid argument")

// Directory is one directory of the hierarchy. Each child is owned by exactly
// one parent.
type Directory struct {
	name     string
	path     string
	absPath  string
	files    []string
	children []*Directory
	terminal bool
	empty    bool
	src      fsys.Source
}

// New resolves the names of the directory at path on src without listing it.
// Either separator is accepted. A bare "." becomes "../<name of cwd>"; a path
// ending in ".." is named after the directory it resolves to.
// When empty is set, Build discards the files it lists.
func New(src fsys.Source, path string, empty bool) (*Directory, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: directory path must not be empty, use \".\" for the current directory", ErrInvalidArgument)
	}

	path = utils.NormalizePath(path)
	if path == "." {
		abs, err := src.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		path = filepath.Join("..", filepath.Base(abs))
	}

	abs, err := src.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	name := filepath.Base(path)
	if name == ".." || name == string(filepath.Separator) {
		name = filepath.Base(abs)
	}

	return &Directory{
		name:     name,
		path:     path,
		absPath:  abs,
		terminal: true,
		empty:    empty,
		src:      src,
	}, nil
}

// Open constructs and builds the directory at path.
func Open(src fsys.Source, path string, empty bool) (*Directory, error) {
	d, err := New(src, path, empty)
	if err != nil {
		return nil, err
	}
	return d.Build()
}

// Build populates the directory with the empty flag given at construction.
func (d *Directory) Build() (*Directory, error) {
	if err := d.Refresh(d.empty); err != nil {
		return nil, err
	}
	return d, nil
}

// Refresh lists the directory again, discarding the previous children. Files
// are listed even when empty is set so that terminal flags stay correct.
func (d *Directory) Refresh(empty bool) error {
	entries, err := d.src.ReadDir(d.path)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", d.path, err)
	}

	d.Teardown()
	d.empty = empty

	files := make([]string, 0, len(entries))
	children := make([]*Directory, 0)
	for _, entry := range entries {
		member := filepath.Join(d.path, entry.Name)
		if !entry.IsDir {
			files = append(files, member)
			continue
		}

		child, err := New(d.src, member, empty)
		if err != nil {
			return err
		}
		children = append(children, child)
	}

	d.children = children
	d.terminal = len(children) == 0
	for _, child := range children {
		if err := child.Refresh(empty); err != nil {
			return err
		}
	}

	if empty {
		files = files[:0]
	}
	d.files = files

	logger.Logger.WithFields(logrus.Fields{
		"path":     d.path,
		"files":    len(d.files),
		"children": len(d.children),
	}).Debug("Refreshed directory")

	return nil
}

// Teardown releases the subtree, children first. It is a no-op on a terminal
// directory. Files are left in place.
func (d *Directory) Teardown() {
	if d.terminal {
		return
	}
	for _, child := range d.children {
		child.Teardown()
	}
	d.children = nil
	d.terminal = true
}

// Locate resolves a '/' or '\' separated path relative to d. Empty and "."
// segments stay on the current directory, a file name resolves to the
// directory holding it. It returns nil when nothing matches.
func (d *Directory) Locate(path string) *Directory {
	return d.locate(utils.SplitSegments(path))
}

func (d *Directory) locate(segments []string) *Directory {
	for len(segments) > 0 && (segments[0] == "" || segments[0] == ".") {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return d
	}

	head := segments[0]
	if len(segments) == 1 {
		for _, file := range d.files {
			if utils.BaseName(file) == head {
				return d
			}
		}
	}
	for _, child := range d.children {
		if child.Is(head) {
			return child.locate(segments[1:])
		}
	}
	return nil
}

// Is reports whether the directory's base name is name.
func (d *Directory) Is(name string) bool {
	return d.name == name
}

func (d *Directory) Name() string {
	return d.name
}

// Path returns the path the directory was constructed with, host separated.
func (d *Directory) Path() string {
	return d.path
}

func (d *Directory) AbsPath() string {
	return d.absPath
}

// AbsSlashPath returns the absolute path separated by '/'.
func (d *Directory) AbsSlashPath() string {
	return utils.ToSlash(d.absPath)
}

// Files returns a copy of the file paths directly in d, in listing order.
func (d *Directory) Files() []string {
	files := make([]string, len(d.files))
	copy(files, d.files)
	return files
}

// Children returns the immediate subdirectories in listing order. The
// directories themselves are shared with d.
func (d *Directory) Children() []*Directory {
	children := make([]*Directory, len(d.children))
	copy(children, d.children)
	return children
}

// IsTerminal reports whether d has no subdirectories.
func (d *Directory) IsTerminal() bool {
	return d.terminal
}

// Source returns the source the directory lists from.
func (d *Directory) Source() fsys.Source {
	return d.src
}

func (d *Directory) String() string {
	return d.path
}
