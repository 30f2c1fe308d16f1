package engine

import (
	"fmt"
	"os"

	"github.com/danieljhkim/pkgsync/internal/groups"
)

// ListGroups returns every group in discovery order.
func (e *Engine) ListGroups() (*GroupListResult, error) {
	store, err := e.loadStore()
	if err != nil {
		return nil, err
	}

	result := &GroupListResult{Dir: e.paths.Groups, Groups: []GroupInfo{}}
	for _, g := range store.Groups() {
		linked := false
		if info, err := e.fs.Lstat(g.Path); err == nil {
			linked = info.Mode()&os.ModeSymlink != 0
		}
		result.Groups = append(result.Groups, GroupInfo{
			Name:     g.Name,
			Path:     g.Path,
			Linked:   linked,
			Backends: g.Backends(),
			Packages: g.Len(),
		})
	}
	return result, nil
}

// ShowGroups returns the contents of groups. Each name is looked up as a
// group first and otherwise read as a file path.
func (e *Engine) ShowGroups(req *ShowGroupsRequest) (*GroupShowResult, error) {
	store, err := e.loadStore()
	if err != nil {
		return nil, err
	}

	result := &GroupShowResult{Groups: []GroupDetail{}}
	for _, name := range req.Names {
		g, ok := store.Group(name)
		if !ok {
			g, err = e.loadGroupFile(name)
			if err != nil {
				return nil, err
			}
		}
		detail := GroupDetail{Name: g.Name, Path: g.Path, Sections: []BackendPackages{}}
		for _, id := range g.Backends() {
			detail.Sections = append(detail.Sections, BackendPackages{Backend: id, Packages: g.Packages(id)})
		}
		result.Groups = append(result.Groups, detail)
	}
	return result, nil
}

func (e *Engine) loadGroupFile(path string) (*groups.Group, error) {
	exists, err := e.fs.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", groups.ErrGroupNotFound, path)
	}
	store, err := groups.LoadFiles(e.fs, []string{path}, e.reg.Known())
	if err != nil {
		return nil, err
	}
	return store.Groups()[0], nil
}

// NewGroups creates empty group files and returns their paths.
func (e *Engine) NewGroups(names []string) (*GroupPathsResult, error) {
	if err := e.paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	paths, err := e.manager().Create(names)
	if err != nil {
		return nil, err
	}
	return &GroupPathsResult{Paths: paths}, nil
}

// ImportGroups symlinks external group files into the group directory.
func (e *Engine) ImportGroups(sources []string) (*groups.ImportResult, error) {
	return e.manager().Import(sources)
}

// RemoveGroups deletes group files. Nothing is removed unless every group
// exists.
func (e *Engine) RemoveGroups(names []string) (*GroupPathsResult, error) {
	paths, err := e.manager().Remove(names)
	if err != nil {
		return nil, err
	}
	return &GroupPathsResult{Paths: paths}, nil
}

// GroupPaths returns the file paths of existing groups, for editing.
func (e *Engine) GroupPaths(names []string) (*GroupPathsResult, error) {
	m := e.manager()
	result := &GroupPathsResult{Paths: make([]string, 0, len(names))}
	for _, name := range names {
		path, err := m.Path(name)
		if err != nil {
			return nil, err
		}
		exists, err := m.Exists(name)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", groups.ErrGroupNotFound, name)
		}
		result.Paths = append(result.Paths, path)
	}
	return result, nil
}

// CheckGroups loads every group and reports the first parse error.
func (e *Engine) CheckGroups() error {
	_, err := e.loadStore()
	return err
}
