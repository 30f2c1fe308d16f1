package backend

import (
	"fmt"
	"sort"
)

// Registry owns the adapters that are active for the current run.
// It is built once at startup and never changes afterwards.
//
// Known tags are all the tags the binary can handle; they are used to
// validate group files even when a backend is disabled or unavailable on
// this machine. Active tags are the subset with a live adapter.
type Registry struct {
	known    map[ID]struct{}
	backends map[ID]Backend
}

// NewRegistry creates a registry that knows the given tags and activates the
// given adapters. Every adapter's tag must be known and unique.
func NewRegistry(known []ID, active ...Backend) (*Registry, error) {
	r := &Registry{
		known:    make(map[ID]struct{}, len(known)),
		backends: make(map[ID]Backend, len(active)),
	}
	for _, id := range known {
		r.known[id] = struct{}{}
	}

	for _, b := range active {
		id := b.ID()
		if _, ok := r.known[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, id)
		}
		if _, dup := r.backends[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBackend, id)
		}
		r.backends[id] = b
	}

	return r, nil
}

// Get returns the active adapter for a tag.
func (r *Registry) Get(id ID) (Backend, bool) {
	b, ok := r.backends[id]
	return b, ok
}

// IsKnown reports whether a tag is handled by this binary.
func (r *Registry) IsKnown(id ID) bool {
	_, ok := r.known[id]
	return ok
}

// IsActive reports whether a tag has an adapter in this run.
func (r *Registry) IsActive(id ID) bool {
	_, ok := r.backends[id]
	return ok
}

// Known returns all known tags in sorted order.
func (r *Registry) Known() []ID {
	ids := make([]ID, 0, len(r.known))
	for id := range r.known {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Active returns the active tags in sorted order.
func (r *Registry) Active() []ID {
	ids := make([]ID, 0, len(r.backends))
	for id := range r.backends {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Select narrows the active set to the given tags. An empty selection keeps
// every active backend. Selecting an unknown tag is an error; selecting a
// known but inactive tag yields no adapter for it.
func (r *Registry) Select(ids []ID) (*Registry, error) {
	if len(ids) == 0 {
		return r, nil
	}

	selected := &Registry{
		known:    r.known,
		backends: make(map[ID]Backend, len(ids)),
	}
	for _, id := range ids {
		if !r.IsKnown(id) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, id)
		}
		if b, ok := r.backends[id]; ok {
			selected.backends[id] = b
		}
	}
	return selected, nil
}

func sortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
