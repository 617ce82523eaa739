package tree

import "arbor/pkg/condition"

// Clone deep-copies the subtree. When m is non-nil each directory keeps only
// the files m accepts. Directories are never pruned.
func (d *Directory) Clone(m condition.Matcher) *Directory {
	c := &Directory{
		name:     d.name,
		path:     d.path,
		absPath:  d.absPath,
		terminal: d.terminal,
		empty:    d.empty,
		src:      d.src,
	}

	c.files = make([]string, 0, len(d.files))
	for _, file := range d.files {
		if accepts(m, file, d.terminal) {
			c.files = append(c.files, file)
		}
	}

	c.children = make([]*Directory, 0, len(d.children))
	for _, child := range d.children {
		c.children = append(c.children, child.Clone(m))
	}
	return c
}

// Hollow clones the subtree without any files.
func (d *Directory) Hollow() *Directory {
	c := d.Clone(nil)
	c.strip()
	return c
}

func (d *Directory) strip() {
	d.files = []string{}
	for _, child := range d.children {
		child.strip()
	}
}
