package tree

import (
	"fmt"
	"path/filepath"
	"strings"

	"arbor/pkg/condition"
	"arbor/pkg/fsys"
	"arbor/pkg/logger"
	"arbor/pkg/utils"

	"github.com/sirupsen/logrus"
)

// EventKind tags what happened to one destination path.
type EventKind string

const (
	EventMkdir     EventKind = "mkdir"
	EventCopied    EventKind = "copy"
	EventOverwrote EventKind = "ovrd"
	EventExists    EventKind = "exst"
)

// Event reports one action of Materialize or CopyMatchingFiles.
type Event struct {
	Kind   EventKind
	Source string
	Target string
	Bytes  int64
}

// String formats the event as "copy: root/a.py -> out/a.py".
func (e Event) String() string {
	if e.Kind == EventMkdir {
		return fmt.Sprintf("%s: %s", e.Kind, e.Target)
	}
	return fmt.Sprintf("%s: %s -> %s", e.Kind, e.Source, e.Target)
}

// CopyOptions controls file copying during Materialize and CopyMatchingFiles.
type CopyOptions struct {
	// Matcher selects the files to copy. Materialize copies nothing when it
	// is nil. CopyMatchingFiles copies everything.
	Matcher condition.Matcher
	// OnEvent receives every action. It may be nil.
	OnEvent func(Event)
	// Overwrite replaces files that already exist at the destination.
	Overwrite bool
}

func (o CopyOptions) emit(e Event) {
	if o.OnEvent != nil {
		o.OnEvent(e)
	}
}

// Materialize creates d as destPath/<name> on dst, then its descendants
// depth-first, copying the files opts.Matcher accepts into each created
// directory. Existing directories are reused and not counted. It returns the
// number of directories created. A directory without a plain name, such as the filesystem root, is rejected
// with ErrInvalidArgument.
func (d *Directory) Materialize(dst fsys.Target, destPath string, opts CopyOptions) (int, error) {
	if d.name == "" || d.name == "." || d.name == ".." || strings.ContainsAny(d.name, `/\`) {
		return 0, fmt.Errorf("%w: cannot materialize %q under %s", ErrInvalidArgument, d.name, destPath)
	}
	target := filepath.Join(utils.NormalizePath(destPath), d.name)

	exists, isDir, err := fsys.Exists(dst, target)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if exists && !isDir {
		return 0, fmt.Errorf("failed to create %s: a file is in the way", target)
	}

	created := 0
	if !exists {
		if err := dst.Mkdir(target); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", target, err)
		}
		created++
		opts.emit(Event{Kind: EventMkdir, Target: utils.ToSlash(target)})
	}

	if opts.Matcher != nil {
		if err := d.CopyMatchingFiles(dst, target, opts); err != nil {
			return created, err
		}
	}

	for _, child := range d.children {
		n, err := child.Materialize(dst, target, opts)
		created += n
		if err != nil {
			return created, err
		}
	}

	logger.Logger.WithFields(logrus.Fields{
		"path":        d.path,
		"destination": target,
		"created":     created,
	}).Debug("Materialized directory")

	return created, nil
}

// CopyMatchingFiles copies the files of d accepted by opts.Matcher into
// destPath under their base names. An existing destination is reported as
// EventExists and left alone unless opts.Overwrite is set. The first failing
// copy aborts the rest of the directory.
func (d *Directory) CopyMatchingFiles(dst fsys.Target, destPath string, opts CopyOptions) error {
	destPath = utils.NormalizePath(destPath)

	for _, file := range d.files {
		if !accepts(opts.Matcher, file, d.terminal) {
			continue
		}

		target := filepath.Join(destPath, utils.BaseName(file))
		event := Event{Source: utils.ToSlash(file), Target: utils.ToSlash(target)}

		exists, _, err := fsys.Exists(dst, target)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", target, err)
		}
		if exists && !opts.Overwrite {
			event.Kind = EventExists
			opts.emit(event)
			continue
		}

		n, err := fsys.CopyFile(d.src, file, dst, target)
		if err != nil {
			return err
		}

		event.Bytes = n
		event.Kind = EventCopied
		if exists {
			event.Kind = EventOverwrote
		}
		opts.emit(event)
	}
	return nil
}
