package groups

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/fsops"
)

// Manager creates, imports, removes and edits group files under a root.
type Manager struct {
	fs    fsops.FS
	root  string
	known []backend.ID
}

// NewManager creates a Manager for the group directory root.
func NewManager(fs fsops.FS, root string, known []backend.ID) *Manager {
	return &Manager{fs: fs, root: root, known: known}
}

// Root returns the group directory.
func (m *Manager) Root() string {
	return m.root
}

// Path returns the file path for a group name after validating the name.
func (m *Manager) Path(name string) (string, error) {
	if err := m.fs.ValidateGroupName(name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidGroupName, err)
	}
	return filepath.Join(m.root, filepath.FromSlash(name)), nil
}

// Exists reports whether a group file exists for name.
func (m *Manager) Exists(name string) (bool, error) {
	path, err := m.Path(name)
	if err != nil {
		return false, err
	}
	return m.fs.Exists(path)
}

// Create creates empty group files. No file is written unless every name is
// valid and none exists yet.
func (m *Manager) Create(names []string) ([]string, error) {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path, err := m.Path(name)
		if err != nil {
			return nil, err
		}
		exists, err := m.fs.Exists(path)
		if err != nil {
			return nil, fmt.Errorf("failed to check group %s: %w", name, err)
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrGroupExists, name)
		}
		paths = append(paths, path)
	}

	for _, path := range paths {
		if err := m.fs.AtomicWrite(path, nil, 0644); err != nil {
			return nil, fmt.Errorf("failed to create group file %s: %w", path, err)
		}
	}
	return paths, nil
}

// Imported is a group symlinked into the group directory.
type Imported struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Path   string `json:"path"`
}

// SkippedImport is a file Import did not link, with the reason.
type SkippedImport struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// ImportResult reports the outcome of Import.
type ImportResult struct {
	Imported []Imported      `json:"imported"`
	Skipped  []SkippedImport `json:"skipped,omitempty"`
}

// Import symlinks external files into the group directory, naming each group
// after the file's base name. Missing sources and names already taken are
// skipped with a reason. Each source must parse as a group file.
func (m *Manager) Import(sources []string) (*ImportResult, error) {
	result := &ImportResult{}
	if err := m.fs.MkdirAll(m.root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create group directory: %w", err)
	}

	for _, src := range sources {
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", src, err)
		}

		exists, err := m.fs.Exists(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", abs, err)
		}
		if !exists {
			result.Skipped = append(result.Skipped, SkippedImport{Source: src, Reason: "file not found"})
			continue
		}

		name := filepath.Base(abs)
		path, err := m.Path(name)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedImport{Source: src, Reason: err.Error()})
			continue
		}
		taken, err := m.fs.Exists(path)
		if err != nil {
			return nil, fmt.Errorf("failed to check group %s: %w", name, err)
		}
		if taken {
			result.Skipped = append(result.Skipped, SkippedImport{Source: src, Reason: "group " + name + " already exists"})
			continue
		}

		if _, err := parseFile(m.fs, name, abs, m.known); err != nil {
			return nil, err
		}

		if err := m.fs.Symlink(abs, path); err != nil {
			return nil, fmt.Errorf("failed to link %s: %w", abs, err)
		}
		result.Imported = append(result.Imported, Imported{Name: name, Source: abs, Path: path})
	}
	return result, nil
}

// Remove deletes group files. Every name must exist before any is removed.
// Imported groups lose only their symlink.
func (m *Manager) Remove(names []string) ([]string, error) {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path, err := m.Path(name)
		if err != nil {
			return nil, err
		}
		info, err := m.fs.Lstat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("group %s is a directory", name)
		}
		paths = append(paths, path)
	}

	for _, path := range paths {
		if err := m.fs.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return paths, nil
}

// Addition is a set of packages to add under one backend's section.
type Addition struct {
	Backend  backend.ID `json:"backend"`
	Packages []string   `json:"packages"`
}

// Edit describes a change to a group file.
type Edit struct {
	Name   string     `json:"name"`
	Path   string     `json:"path"`
	Added  []Addition `json:"added"`
	Before string     `json:"-"`
	After  string     `json:"-"`
}

// Changed reports whether the edit adds anything.
func (e *Edit) Changed() bool {
	return len(e.Added) > 0
}

// Count returns the number of packages added.
func (e *Edit) Count() int {
	n := 0
	for _, a := range e.Added {
		n += len(a.Packages)
	}
	return n
}

// Append adds packages under each backend's section of a group, creating a
// section at the end of the file when absent. Packages the group already
// declares for that backend are left alone. With dryRun the file is not
// written.
func (m *Manager) Append(name string, adds []Addition, dryRun bool) (*Edit, error) {
	exists, err := m.Exists(name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}

	edit, err := m.Draft(name, adds)
	if err != nil {
		return nil, err
	}
	if !edit.Changed() || dryRun {
		return edit, nil
	}
	if err := m.fs.AtomicWrite(edit.Path, []byte(edit.After), 0644); err != nil {
		return nil, fmt.Errorf("failed to write group %s: %w", name, err)
	}
	return edit, nil
}

// Draft computes the edit Append would make without writing anything. A
// group that does not exist yet is drafted from an empty file.
func (m *Manager) Draft(name string, adds []Addition) (*Edit, error) {
	path, err := m.Path(name)
	if err != nil {
		return nil, err
	}

	var data []byte
	exists, err := m.fs.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check group %s: %w", name, err)
	}
	if exists {
		if data, err = m.fs.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read group %s: %w", name, err)
		}
	}

	g, err := Parse(name, path, bytes.NewReader(data), m.known)
	if err != nil {
		return nil, err
	}

	edit := &Edit{
		Name:   name,
		Path:   path,
		Added:  []Addition{},
		Before: string(data),
		After:  string(data),
	}

	for _, add := range adds {
		if !slices.Contains(m.known, add.Backend) {
			return nil, fmt.Errorf("%w: %s", backend.ErrUnknownBackend, add.Backend)
		}

		var fresh []string
		seen := make(map[string]bool)
		for _, pkg := range add.Packages {
			if pkg == "" || checkPackageID(pkg) != "" {
				return nil, fmt.Errorf("cannot add %q to group %s: invalid package ID", pkg, name)
			}
			if seen[pkg] || g.Has(add.Backend, pkg) {
				continue
			}
			seen[pkg] = true
			fresh = append(fresh, pkg)
		}
		if len(fresh) == 0 {
			continue
		}
		sort.Strings(fresh)

		edit.After = insertIntoSection(edit.After, add.Backend, fresh)
		edit.Added = append(edit.Added, Addition{Backend: add.Backend, Packages: fresh})
		for _, pkg := range fresh {
			g.add(add.Backend, pkg)
		}
	}
	return edit, nil
}

// insertIntoSection places pkgs after the last non-blank line of the first
// section for id, keeping comments and layout of the rest of the file.
func insertIntoSection(content string, id backend.ID, pkgs []string) string {
	lines := strings.Split(content, "\n")
	trailingNewline := strings.HasSuffix(content, "\n")
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}

	header := -1
	for i, line := range lines {
		if tag, ok := sectionOf(line); ok && tag == id {
			header = i
			break
		}
	}

	if header < 0 {
		var b strings.Builder
		b.WriteString(content)
		if content != "" && !trailingNewline {
			b.WriteString("\n")
		}
		if strings.TrimSpace(content) != "" {
			b.WriteString("\n")
		}
		b.WriteString("[" + string(id) + "]\n")
		for _, pkg := range pkgs {
			b.WriteString(pkg + "\n")
		}
		return b.String()
	}

	end := len(lines)
	for i := header + 1; i < len(lines); i++ {
		if _, ok := sectionOf(lines[i]); ok {
			end = i
			break
		}
	}
	at := end
	for at > header+1 && strings.TrimSpace(lines[at-1]) == "" {
		at--
	}

	out := make([]string, 0, len(lines)+len(pkgs))
	out = append(out, lines[:at]...)
	out = append(out, pkgs...)
	out = append(out, lines[at:]...)
	return strings.Join(out, "\n") + "\n"
}
