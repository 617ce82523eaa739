package tree

import (
	"arbor/pkg/condition"
	"arbor/pkg/utils"
)

// Group is a query result: a Leaf of paths or a Branch of nested groups.
type Group interface {
	isGroup()
}

// Leaf is a flat list of '/' separated file paths.
type Leaf []string

// Branch nests groups. A Branch from Collect starts with the Leaf of the
// directory's own files, followed by one Branch per child.
type Branch []Group

func (Leaf) isGroup()   {}
func (Branch) isGroup() {}

// Collect returns the files of the subtree accepted by m, which is called with
// each file's path and the terminal flag of its directory. A nil m accepts
// every file. With flatten the result is a single Leaf in pre-order, this
// directory's files first. Otherwise the nesting mirrors the tree.
func (d *Directory) Collect(m condition.Matcher, flatten bool) Group {
	if flatten {
		return Leaf(d.MatchingPaths(m))
	}
	return d.collectNested(m)
}

func (d *Directory) collectNested(m condition.Matcher) Branch {
	branch := make(Branch, 0, len(d.children)+1)
	branch = append(branch, Leaf(d.matchingOwn(m)))
	for _, child := range d.children {
		branch = append(branch, child.collectNested(m))
	}
	return branch
}

// MatchingPaths is the flattened form of Collect.
func (d *Directory) MatchingPaths(m condition.Matcher) []string {
	paths := d.matchingOwn(m)
	for _, child := range d.children {
		paths = append(paths, child.MatchingPaths(m)...)
	}
	return paths
}

func (d *Directory) matchingOwn(m condition.Matcher) []string {
	paths := make([]string, 0, len(d.files))
	for _, file := range d.files {
		if accepts(m, file, d.terminal) {
			paths = append(paths, utils.ToSlash(file))
		}
	}
	return paths
}

func accepts(m condition.Matcher, file string, inTerminal bool) bool {
	return m == nil || m.Match(file, inTerminal)
}

// Flatten concatenates every path of g in depth-first order.
func Flatten(g Group) []string {
	switch v := g.(type) {
	case Leaf:
		return append([]string(nil), v...)
	case Branch:
		var paths []string
		for _, sub := range v {
			paths = append(paths, Flatten(sub)...)
		}
		return paths
	}
	return nil
}

// GroupByDirectory returns one list per Leaf of g in depth-first order,
// skipping leaves without paths. For a Collect result that is one list per
// directory holding a match.
func GroupByDirectory(g Group) [][]string {
	var groups [][]string
	switch v := g.(type) {
	case Leaf:
		if len(v) > 0 {
			groups = append(groups, append([]string(nil), v...))
		}
	case Branch:
		for _, sub := range v {
			groups = append(groups, GroupByDirectory(sub)...)
		}
	}
	return groups
}

// GroupedPaths groups the files directly in d by key(base name). Groups keep
// the order their key was first seen in.
func (d *Directory) GroupedPaths(key func(name string) string) [][]string {
	index := make(map[string]int)
	var groups [][]string
	for _, file := range d.files {
		k := key(utils.BaseName(file))
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], utils.ToSlash(file))
	}
	return groups
}

// Instances lists the directories of the subtree in pre-order. A terminal
// directory returns itself alone. With terminalOnly, only terminal
// directories are listed.
func (d *Directory) Instances(terminalOnly bool) []*Directory {
	if d.terminal {
		return []*Directory{d}
	}

	var dirs []*Directory
	if !terminalOnly {
		dirs = append(dirs, d)
	}
	for _, child := range d.children {
		dirs = append(dirs, child.Instances(terminalOnly)...)
	}
	return dirs
}

// TerminalInstances lists the leaf directories of the subtree.
func (d *Directory) TerminalInstances() []*Directory {
	return d.Instances(true)
}

// Instance is the nested form of Instances.
type Instance struct {
	Dir      *Directory
	Children []Instance
}

// InstanceTree returns every directory of the subtree nested by parent.
func (d *Directory) InstanceTree() Instance {
	inst := Instance{Dir: d}
	for _, child := range d.children {
		inst.Children = append(inst.Children, child.InstanceTree())
	}
	return inst
}
