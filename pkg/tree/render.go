package tree

import (
	"fmt"
	"sort"
	"strings"

	"arbor/pkg/condition"
	"arbor/pkg/utils"
)

// RenderUnix draws the subtree the way the Unix tree command does, with
// directories before files and each sorted by name. Only files accepted by m
// are drawn; a nil m draws them all.
func (d *Directory) RenderUnix(m condition.Matcher) string {
	var sb strings.Builder
	sb.WriteString(utils.ToSlash(d.path))
	sb.WriteString("\n")

	dirCount, fileCount := d.renderUnix(&sb, m, "")
	sb.WriteString(fmt.Sprintf("\n%d directories, %d files\n", dirCount, fileCount))

	return sb.String()
}

type renderNode struct {
	name string
	dir  *Directory
}

func (d *Directory) renderUnix(sb *strings.Builder, m condition.Matcher, prefix string) (dirCount, fileCount int) {
	dirs := make([]renderNode, 0, len(d.children))
	for _, child := range d.children {
		dirs = append(dirs, renderNode{name: child.name, dir: child})
	}
	files := make([]renderNode, 0, len(d.files))
	for _, file := range d.files {
		if accepts(m, file, d.terminal) {
			files = append(files, renderNode{name: utils.BaseName(file)})
		}
	}
	sort.SliceStable(dirs, func(i, j int) bool { return dirs[i].name < dirs[j].name })
	sort.SliceStable(files, func(i, j int) bool { return files[i].name < files[j].name })

	nodes := append(dirs, files...)
	for i, node := range nodes {
		currentPrefix, nextPrefix := prefix+"├── ", prefix+"│   "
		if i == len(nodes)-1 {
			currentPrefix, nextPrefix = prefix+"└── ", prefix+"    "
		}

		sb.WriteString(currentPrefix)
		sb.WriteString(node.name)
		sb.WriteString("\n")

		if node.dir == nil {
			fileCount++
			continue
		}
		dirCount++
		childDirs, childFiles := node.dir.renderUnix(sb, m, nextPrefix)
		dirCount += childDirs
		fileCount += childFiles
	}
	return dirCount, fileCount
}
