package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// Snapshot holds the installed packages of each successfully queried
// backend and the errors of the rest.
type Snapshot struct {
	Installed map[backend.ID][]backend.InstalledPackage
	Errors    []*backend.QueryError
}

// Get returns the installed packages of a backend.
func (s *Snapshot) Get(id backend.ID) ([]backend.InstalledPackage, bool) {
	pkgs, ok := s.Installed[id]
	return pkgs, ok
}

// Err returns the query error of a backend, if any.
func (s *Snapshot) Err(id backend.ID) *backend.QueryError {
	for _, e := range s.Errors {
		if e.Backend == id {
			return e
		}
	}
	return nil
}

// Query runs Installed on each backend concurrently. A failing backend never
// cancels the others; its error is recorded and its packages are absent from
// the snapshot. Results are merged in sorted tag order.
func Query(ctx context.Context, reg *backend.Registry, ids []backend.ID) *Snapshot {
	type result struct {
		id   backend.ID
		pkgs []backend.InstalledPackage
		err  error
	}

	sorted := append([]backend.ID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	results := make([]result, len(sorted))
	var wg sync.WaitGroup
	for i, id := range sorted {
		b, ok := reg.Get(id)
		if !ok {
			results[i] = result{id: id, err: backend.ErrUnknownBackend}
			continue
		}
		wg.Add(1)
		go func(i int, b backend.Backend) {
			defer wg.Done()
			pkgs, err := b.Installed(ctx)
			results[i] = result{id: b.ID(), pkgs: pkgs, err: err}
		}(i, b)
	}
	wg.Wait()

	snap := &Snapshot{Installed: make(map[backend.ID][]backend.InstalledPackage, len(results))}
	for _, r := range results {
		if r.err != nil {
			snap.Errors = append(snap.Errors, asQueryError(r.id, r.err))
			continue
		}
		snap.Installed[r.id] = r.pkgs
	}
	return snap
}

func asQueryError(id backend.ID, err error) *backend.QueryError {
	var qerr *backend.QueryError
	if errors.As(err, &qerr) {
		return qerr
	}
	return &backend.QueryError{Backend: id, Err: err}
}
