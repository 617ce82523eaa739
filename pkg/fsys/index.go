package fsys

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"arbor/pkg/utils"
)

// IndexEntry is one path of a flat recursive listing, as remote APIs return them.
type IndexEntry struct {
	Path  string
	IsDir bool
}

// OpenFunc fetches the file at a root-relative slash path.
type OpenFunc func(relPath string) (io.ReadCloser, error)

// Index is a read-only Source built from a flat recursive listing. Paths given
// to it are prefixed by the root name, so a tree rooted at root lists the
// indexed hierarchy.
type Index struct {
	root string
	dirs map[string][]Entry
	open OpenFunc
}

// NewIndex builds the per-directory listing from entries. Ancestors of every
// entry are added as directories even when the listing omits them.
func NewIndex(root string, entries []IndexEntry, open OpenFunc) *Index {
	idx := &Index{
		root: path.Clean(utils.ToSlash(root)),
		dirs: map[string][]Entry{"": {}},
		open: open,
	}

	for _, entry := range entries {
		p := strings.Trim(path.Clean(utils.ToSlash(entry.Path)), "/")
		if p == "" || p == "." {
			continue
		}
		idx.add(p, entry.IsDir)
	}

	for dir := range idx.dirs {
		members := idx.dirs[dir]
		sort.Slice(members, func(i, j int) bool {
			return members[i].Name < members[j].Name
		})
	}

	return idx
}

// add records p and every missing ancestor of it.
func (idx *Index) add(p string, isDir bool) {
	parts := strings.Split(p, "/")
	parent := ""

	for i, part := range parts {
		isLastPart := i == len(parts)-1
		current := strings.Join(parts[:i+1], "/")
		partIsDir := !isLastPart || isDir

		if !idx.has(parent, part) {
			idx.dirs[parent] = append(idx.dirs[parent], Entry{Name: part, IsDir: partIsDir})
		} else if partIsDir {
			idx.markDir(parent, part)
		}
		if partIsDir {
			if _, ok := idx.dirs[current]; !ok {
				idx.dirs[current] = []Entry{}
			}
		}

		parent = current
	}
}

func (idx *Index) has(dir, name string) bool {
	for _, e := range idx.dirs[dir] {
		if e.Name == name {
			return true
		}
	}
	return false
}

func (idx *Index) markDir(dir, name string) {
	members := idx.dirs[dir]
	for i := range members {
		if members[i].Name == name {
			members[i].IsDir = true
		}
	}
}

// Root returns the name the index answers to.
func (idx *Index) Root() string {
	return idx.root
}

// relative maps a rooted path to its key in dirs.
func (idx *Index) relative(p string) (string, bool) {
	p = path.Clean(utils.ToSlash(p))
	if p == idx.root {
		return "", true
	}
	if strings.HasPrefix(p, idx.root+"/") {
		return strings.TrimPrefix(p, idx.root+"/"), true
	}
	return "", false
}

// ReadDir lists the indexed directory at p.
func (idx *Index) ReadDir(p string) ([]Entry, error) {
	rel, ok := idx.relative(p)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrNotExist}
	}
	members, ok := idx.dirs[rel]
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrNotExist}
	}

	entries := make([]Entry, len(members))
	copy(entries, members)
	return entries, nil
}

// Open fetches the file at p through the index's OpenFunc.
func (idx *Index) Open(p string) (io.ReadCloser, error) {
	rel, ok := idx.relative(p)
	if !ok || rel == "" {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	if _, isDir := idx.dirs[rel]; isDir {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fmt.Errorf("is a directory")}
	}
	if idx.open == nil {
		return nil, &fs.PathError{Op: "open", Path: p, Err: os.ErrPermission}
	}
	return idx.open(rel)
}

// Abs returns p as an absolute slash path under "/".
func (idx *Index) Abs(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	return path.Join("/", utils.ToSlash(p)), nil
}
