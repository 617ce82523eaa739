package fsys

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"arbor/pkg/utils"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
)

// Billy adapts a go-billy filesystem. Relative paths are resolved against
// cwd before they reach the underlying filesystem.
type Billy struct {
	fs  billy.Filesystem
	cwd string
}

// NewHost returns the host filesystem rooted at "/" with the process working
// directory for relative paths.
func NewHost() (*Billy, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return &Billy{
		fs:  osfs.New(string(filepath.Separator)),
		cwd: cwd,
	}, nil
}

// NewMemory returns an empty in-memory filesystem whose working directory is "/".
func NewMemory() *Billy {
	return NewBilly(memfs.New(), string(filepath.Separator))
}

// NewBilly wraps an arbitrary billy filesystem.
func NewBilly(fs billy.Filesystem, cwd string) *Billy {
	return &Billy{fs: fs, cwd: cwd}
}

// Filesystem exposes the wrapped billy filesystem.
func (b *Billy) Filesystem() billy.Filesystem {
	return b.fs
}

// Abs resolves path against the working directory.
func (b *Billy) Abs(path string) (string, error) {
	path = utils.NormalizePath(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(b.cwd, path), nil
}

// ReadDir lists path. Symlinks are followed to decide between file and directory.
func (b *Billy) ReadDir(path string) ([]Entry, error) {
	abs, err := b.Abs(path)
	if err != nil {
		return nil, err
	}

	infos, err := b.fs.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		isDir := info.IsDir()
		if info.Mode()&os.ModeSymlink != 0 {
			if target, err := b.fs.Stat(filepath.Join(abs, info.Name())); err == nil {
				isDir = target.IsDir()
			}
		}
		entries = append(entries, Entry{Name: info.Name(), IsDir: isDir})
	}
	return entries, nil
}

// Open opens path for reading.
func (b *Billy) Open(path string) (io.ReadCloser, error) {
	abs, err := b.Abs(path)
	if err != nil {
		return nil, err
	}
	return b.fs.Open(abs)
}

// Stat returns file info for path.
func (b *Billy) Stat(path string) (os.FileInfo, error) {
	abs, err := b.Abs(path)
	if err != nil {
		return nil, err
	}
	return b.fs.Stat(abs)
}

// Mkdir creates path. billy only offers MkdirAll, so the parent is checked first.
func (b *Billy) Mkdir(path string) error {
	abs, err := b.Abs(path)
	if err != nil {
		return err
	}

	parent := filepath.Dir(abs)
	info, err := b.fs.Stat(parent)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to create %s: parent %s is not a directory", path, parent)
	}
	return b.fs.MkdirAll(abs, 0755)
}

// Create creates or truncates path.
func (b *Billy) Create(path string) (io.WriteCloser, error) {
	abs, err := b.Abs(path)
	if err != nil {
		return nil, err
	}
	return b.fs.Create(abs)
}

// Chroot returns the filesystem rooted at path, as gitignore matching expects.
func (b *Billy) Chroot(path string) (billy.Filesystem, error) {
	abs, err := b.Abs(path)
	if err != nil {
		return nil, err
	}
	return b.fs.Chroot(abs)
}
