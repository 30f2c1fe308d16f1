// Package groups parses, merges and indexes group files into the desired
// state, and manages group files on disk.
//
// A group file lists packages per backend:
//
//	# comment
//	[pacman]
//	git
//	vim      # trailing comment
//	[flatpak]
//	org.mozilla.firefox
//
// The group name is the file's path relative to the group directory, with
// separators folded to "/" (e.g. "desktop/kde").
package groups

import (
	"sort"
	"strings"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// Group is one parsed group file.
type Group struct {
	// Name is the path relative to the group directory, "/"-separated.
	Name string

	// Path is the file the group was read from.
	Path string

	sections map[backend.ID]map[string]struct{}
	order    []backend.ID
}

func newGroup(name, path string) *Group {
	return &Group{
		Name:     name,
		Path:     path,
		sections: make(map[backend.ID]map[string]struct{}),
	}
}

func (g *Group) addSection(id backend.ID) {
	if _, ok := g.sections[id]; ok {
		return
	}
	g.sections[id] = make(map[string]struct{})
	g.order = append(g.order, id)
}

func (g *Group) add(id backend.ID, pkg string) {
	g.addSection(id)
	g.sections[id][pkg] = struct{}{}
}

// merge folds other's sections into g. Union is idempotent.
func (g *Group) merge(other *Group) {
	for _, id := range other.order {
		g.addSection(id)
		for pkg := range other.sections[id] {
			g.sections[id][pkg] = struct{}{}
		}
	}
}

// Backends returns the backends with a section in this group, in the order
// their sections first appear in the file.
func (g *Group) Backends() []backend.ID {
	out := make([]backend.ID, len(g.order))
	copy(out, g.order)
	return out
}

// Packages returns the sorted packages declared for a backend.
func (g *Group) Packages(id backend.ID) []string {
	set := g.sections[id]
	out := make([]string, 0, len(set))
	for pkg := range set {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

// Has reports whether the group declares pkg for the backend.
func (g *Group) Has(id backend.ID, pkg string) bool {
	_, ok := g.sections[id][pkg]
	return ok
}

// Len returns the number of (backend, package) entries.
func (g *Group) Len() int {
	n := 0
	for _, set := range g.sections {
		n += len(set)
	}
	return n
}

// String renders the group in canonical group-file form.
func (g *Group) String() string {
	var b strings.Builder
	for i, id := range g.order {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[" + string(id) + "]\n")
		for _, pkg := range g.Packages(id) {
			b.WriteString(pkg + "\n")
		}
	}
	return b.String()
}
