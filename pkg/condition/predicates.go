package condition

import (
	"fmt"
	"path"
	"strings"

	"arbor/pkg/utils"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/gobwas/glob"
)

// GlobPredicate compiles patterns into a predicate that holds when any pattern
// matches the file's base name or its whole slash path.
func GlobPredicate(patterns ...string) (Predicate, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}

	return func(filePath string) bool {
		slashed := utils.ToSlash(filePath)
		name := utils.BaseName(slashed)
		for _, g := range globs {
			if g.Match(name) || g.Match(slashed) {
				return true
			}
		}
		return false
	}, nil
}

// GitignorePredicate reads the .gitignore files found in fs (recursively,
// fs being chrooted at the tree root) and returns a predicate that holds for
// files git would not ignore. root is the path the tree was built with; paths
// outside it are never ignored. Anything under a .git directory is ignored.
func GitignorePredicate(fs billy.Filesystem, root string) (Predicate, error) {
	patterns, err := gitignore.ReadPatterns(fs, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to read gitignore patterns: %w", err)
	}
	matcher := gitignore.NewMatcher(patterns)
	root = path.Clean(utils.ToSlash(root))

	return func(filePath string) bool {
		p := path.Clean(utils.ToSlash(filePath))

		var rel string
		switch {
		case root == ".":
			rel = p
		case strings.HasPrefix(p, root+"/"):
			rel = strings.TrimPrefix(p, root+"/")
		default:
			return true
		}

		parts := strings.Split(rel, "/")
		if utils.Contains(parts[:len(parts)-1], ".git") {
			return false
		}
		return !matcher.Match(parts, false)
	}, nil
}
