package reconcile

import (
	"context"
	"slices"
	"sort"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// Scope restricts which kinds of actions a plan carries.
type Scope int

const (
	// ScopeAll plans installs and removes.
	ScopeAll Scope = iota

	// ScopeInstall plans installs only.
	ScopeInstall

	// ScopeRemove plans removes only.
	ScopeRemove
)

func (s Scope) allows(k Kind) bool {
	switch s {
	case ScopeInstall:
		return k == Install
	case ScopeRemove:
		return k == Remove
	default:
		return true
	}
}

// DesiredState is the read side of the group store.
type DesiredState interface {
	DesiredSet(id backend.ID) []string
	Declared() []backend.ID
	Owners(id backend.ID, pkg string) []string
}

// Options controls a reconciliation.
type Options struct {
	// Backends limits planning to these tags. Empty means all active.
	Backends []backend.ID

	// Scope limits the kinds of actions planned.
	Scope Scope
}

// Reconcile builds the plan from the desired state and a snapshot. active
// lists the backends with an adapter in this run.
func Reconcile(desired DesiredState, active []backend.ID, snap *Snapshot, opts Options) *Plan {
	plan := NewPlan()
	selected := selectBackends(active, opts.Backends)

	for _, id := range selected {
		if qerr := snap.Err(id); qerr != nil {
			plan.QueryErrors = append(plan.QueryErrors, qerr)
			continue
		}
		installed, ok := snap.Get(id)
		if !ok {
			continue
		}

		install, remove := Diff(desired.DesiredSet(id), installed)
		plan.Backends = append(plan.Backends, id)
		plan.Diffs[id] = BackendDiff{Install: install, Remove: remove}

		if opts.Scope.allows(Install) {
			for _, pkg := range install {
				plan.Actions = append(plan.Actions, Action{Kind: Install, Backend: id, Package: pkg})
			}
		}
		if opts.Scope.allows(Remove) {
			for _, pkg := range remove {
				plan.Actions = append(plan.Actions, Action{Kind: Remove, Backend: id, Package: pkg})
			}
		}
	}

	plan.Warnings = inactiveWarnings(desired, active, opts.Backends)
	return plan
}

// Run queries the selected active backends of reg and reconciles them.
// Packages required by declared ones are treated as declared.
func Run(ctx context.Context, desired DesiredState, reg *backend.Registry, opts Options) *Plan {
	active := reg.Active()
	snap := Query(ctx, reg, selectBackends(active, opts.Backends))
	return Reconcile(&withRequired{DesiredState: desired, reg: reg}, active, snap, opts)
}

// withRequired extends the desired set of each backend implementing
// backend.Requirer with what the declared packages require.
type withRequired struct {
	DesiredState
	reg *backend.Registry
}

func (w *withRequired) DesiredSet(id backend.ID) []string {
	want := w.DesiredState.DesiredSet(id)
	b, ok := w.reg.Get(id)
	if !ok {
		return want
	}
	req, ok := b.(backend.Requirer)
	if !ok {
		return want
	}
	extra := req.Requires(want)
	if len(extra) == 0 {
		return want
	}
	out := append(slices.Clone(want), extra...)
	slices.Sort(out)
	return slices.Compact(out)
}

func selectBackends(active, filter []backend.ID) []backend.ID {
	out := make([]backend.ID, 0, len(active))
	for _, id := range active {
		if len(filter) == 0 || slices.Contains(filter, id) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func inactiveWarnings(desired DesiredState, active, filter []backend.ID) []ConfigurationWarning {
	warnings := []ConfigurationWarning{}
	for _, id := range desired.Declared() {
		if slices.Contains(active, id) {
			continue
		}
		if len(filter) > 0 && !slices.Contains(filter, id) {
			continue
		}

		pkgs := desired.DesiredSet(id)
		seen := make(map[string]bool)
		var groups []string
		for _, pkg := range pkgs {
			for _, g := range desired.Owners(id, pkg) {
				if !seen[g] {
					seen[g] = true
					groups = append(groups, g)
				}
			}
		}
		sort.Strings(groups)
		warnings = append(warnings, ConfigurationWarning{Backend: id, Packages: pkgs, Groups: groups})
	}
	return warnings
}
