package engine

import (
	"context"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/groups"
)

// Adopt writes unmanaged packages into a group file so they become
// declared. Without explicit packages every unmanaged package of the
// selected backends is adopted. The group is created if needed.
func (e *Engine) Adopt(ctx context.Context, req *AdoptRequest) (*AdoptResult, error) {
	m := e.manager()
	if _, err := m.Path(req.Group); err != nil {
		return nil, err
	}
	if !req.DryRun {
		if err := e.paths.EnsureDirectories(); err != nil {
			return nil, err
		}
	}
	exists, err := m.Exists(req.Group)
	if err != nil {
		return nil, err
	}

	result := &AdoptResult{
		Created:     !exists,
		DryRun:      req.DryRun,
		QueryErrors: []QueryFailure{},
	}

	var adds []groups.Addition
	if len(req.Packages) > 0 {
		if len(req.Backends) != 1 {
			return nil, fmt.Errorf("%w: adopting named packages needs --backend", ErrBackendRequired)
		}
		if !e.reg.IsKnown(req.Backends[0]) {
			return nil, fmt.Errorf("%w: %s", backend.ErrUnknownBackend, req.Backends[0])
		}
		adds = append(adds, groups.Addition{Backend: req.Backends[0], Packages: req.Packages})
	} else {
		unmanaged, err := e.Unmanaged(ctx, &UnmanagedRequest{Backends: req.Backends})
		if err != nil {
			return nil, err
		}
		result.QueryErrors = unmanaged.QueryErrors
		for _, b := range unmanaged.Backends {
			adds = append(adds, groups.Addition{Backend: b.Backend, Packages: b.Packages})
		}
	}

	edit, err := m.Draft(req.Group, adds)
	if err != nil {
		return nil, err
	}
	result.Edit = edit
	result.Diff = unifiedDiff(edit.Path, edit.Before, edit.After)

	if req.DryRun || !edit.Changed() {
		result.Created = result.Created && edit.Changed()
		return result, nil
	}

	if !exists {
		if _, err := m.Create([]string{req.Group}); err != nil {
			return nil, err
		}
	}
	if _, err := m.Append(req.Group, adds, false); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("group", req.Group).
		Int("packages", edit.Count()).
		Msg("adopted packages")
	return result, nil
}

// unifiedDiff returns a unified diff of a group file change. It is empty
// when the contents are equal.
func unifiedDiff(path, before, after string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	}

	result, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("(diff error: %v)", err)
	}
	return result
}
