// Package fsys is the filesystem boundary of the directory tree: listing and
// reading on the source side, stat, mkdir and create on the target side.
package fsys

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Entry is one member of a directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// Source lists and reads a directory hierarchy.
type Source interface {
	// ReadDir lists the immediate members of the directory at path.
	ReadDir(path string) ([]Entry, error)
	// Open opens the file at path for reading.
	Open(path string) (io.ReadCloser, error)
	// Abs resolves path to an absolute path.
	Abs(path string) (string, error)
}

// Target is where directory structures are realized.
type Target interface {
	Stat(path string) (os.FileInfo, error)
	// Mkdir creates a single directory. The parent must exist.
	Mkdir(path string) error
	// Create creates or truncates the file at path.
	Create(path string) (io.WriteCloser, error)
}

// FileSystem is both ends at once, as the host filesystem is.
type FileSystem interface {
	Source
	Target
}

// Exists reports whether path exists on t and whether it is a directory.
// A missing path is not an error.
func Exists(t Target, path string) (exists bool, isDir bool, err error) {
	info, err := t.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, info.IsDir(), nil
}

// CopyFile copies srcPath from src to dstPath on dst byte for byte and returns
// the number of bytes written.
func CopyFile(src Source, srcPath string, dst Target, dstPath string) (int64, error) {
	in, err := src.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer in.Close()

	out, err := dst.Create(dstPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dstPath, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("failed to copy %s: %w", srcPath, err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("failed to close %s: %w", dstPath, err)
	}
	return n, nil
}
