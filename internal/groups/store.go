package groups

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/fsops"
)

// Store is the merged, indexed view of every loaded group.
type Store struct {
	root   string
	groups []*Group
	byName map[string]*Group

	// owners maps backend -> package -> names of declaring groups.
	owners map[backend.ID]map[string][]string
}

func newStore(root string) *Store {
	return &Store{
		root:   root,
		byName: make(map[string]*Group),
		owners: make(map[backend.ID]map[string][]string),
	}
}

// Load reads every group file under root. Directories and symlinks are
// followed; hidden entries and editor backups ("*~") are skipped. The first
// malformed or unreadable file aborts the load.
func Load(fs fsops.FS, root string, known []backend.ID) (*Store, error) {
	info, err := fs.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrGroupDirMissing, root)
		}
		return nil, fmt.Errorf("failed to stat group directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("group directory %s is not a directory", root)
	}

	s := newStore(root)
	w := &walker{fs: fs, known: known, store: s, visited: make(map[string]bool)}
	if err := w.walk(root, ""); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFiles parses an explicit list of files. Each group is named after
// its file's base name.
func LoadFiles(fs fsops.FS, paths []string, known []backend.ID) (*Store, error) {
	s := newStore("")
	for _, path := range paths {
		g, err := parseFile(fs, filepath.Base(path), path, known)
		if err != nil {
			return nil, err
		}
		s.add(g)
	}
	return s, nil
}

type walker struct {
	fs      fsops.FS
	known   []backend.ID
	store   *Store
	visited map[string]bool
}

func (w *walker) walk(dir, rel string) error {
	resolved, err := w.fs.EvalSymlinks(dir)
	if err != nil {
		return &ParseError{File: dir, Reason: "failed to resolve directory", Err: err}
	}
	// A symlink back to an ancestor would otherwise recurse forever.
	if w.visited[resolved] {
		return nil
	}
	w.visited[resolved] = true

	entries, err := w.fs.ReadDir(dir)
	if err != nil {
		return &ParseError{File: dir, Reason: "failed to read directory", Err: err}
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
			continue
		}

		path := filepath.Join(dir, name)
		groupName := name
		if rel != "" {
			groupName = rel + "/" + name
		}

		info, err := w.fs.Stat(path)
		if err != nil {
			return &ParseError{File: path, Reason: "failed to stat group file", Err: err}
		}

		if info.IsDir() {
			if err := w.walk(path, groupName); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		g, err := parseFile(w.fs, groupName, path, w.known)
		if err != nil {
			return err
		}
		w.store.add(g)
	}
	return nil
}

func parseFile(fs fsops.FS, name, path string, known []backend.ID) (*Group, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, &ParseError{File: path, Reason: "failed to read group file", Err: err}
	}
	return Parse(name, path, bytes.NewReader(data), known)
}

// add merges g into the store. Adding a group with an already-loaded name
// unions its sections into the existing one.
func (s *Store) add(g *Group) {
	existing, ok := s.byName[g.Name]
	if !ok {
		existing = newGroup(g.Name, g.Path)
		s.byName[g.Name] = existing
		s.groups = append(s.groups, existing)
	}
	existing.merge(g)

	for _, id := range g.order {
		byPkg, ok := s.owners[id]
		if !ok {
			byPkg = make(map[string][]string)
			s.owners[id] = byPkg
		}
		for pkg := range g.sections[id] {
			if !slices.Contains(byPkg[pkg], g.Name) {
				byPkg[pkg] = append(byPkg[pkg], g.Name)
			}
		}
	}
}

// Root returns the group directory the store was loaded from.
func (s *Store) Root() string {
	return s.root
}

// Groups returns the loaded groups in discovery order.
func (s *Store) Groups() []*Group {
	out := make([]*Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Group returns the group with the given name.
func (s *Store) Group(name string) (*Group, bool) {
	g, ok := s.byName[name]
	return g, ok
}

// DesiredSet returns the sorted union of packages declared for a backend
// across all groups.
func (s *Store) DesiredSet(id backend.ID) []string {
	byPkg := s.owners[id]
	out := make([]string, 0, len(byPkg))
	for pkg := range byPkg {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

// Declared returns the sorted backends with at least one declared package.
func (s *Store) Declared() []backend.ID {
	var out []backend.ID
	for id, byPkg := range s.owners {
		if len(byPkg) > 0 {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Owners returns the sorted names of groups declaring pkg for a backend.
func (s *Store) Owners(id backend.ID, pkg string) []string {
	names := append([]string(nil), s.owners[id][pkg]...)
	sort.Strings(names)
	return names
}
