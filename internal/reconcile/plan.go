package reconcile

import (
	"fmt"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// Kind is the kind of an action.
type Kind int

const (
	// Install adds a declared package that is not installed.
	Install Kind = iota

	// Remove deletes an explicit package that no group declares.
	Remove
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Install:
		return "install"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Action is one unit of convergence work. Actions are values; consumers may
// drop them but never change them.
type Action struct {
	Kind    Kind       `json:"kind"`
	Backend backend.ID `json:"backend"`
	Package string     `json:"package"`
}

func (a Action) String() string {
	return fmt.Sprintf("%s %s/%s", a.Kind, a.Backend, a.Package)
}

// ConfigurationWarning reports packages declared for a backend that has no
// active adapter in this run.
type ConfigurationWarning struct {
	// Backend is the declared tag
	Backend backend.ID `json:"backend"`

	// Packages are the declared packages that will not be reconciled
	Packages []string `json:"packages"`

	// Groups are the groups declaring them
	Groups []string `json:"groups"`
}

func (w ConfigurationWarning) String() string {
	return fmt.Sprintf("%d package(s) declared for %s, which is not active in this run", len(w.Packages), w.Backend)
}

// BackendDiff is the full diff for one backend, before any scope filtering.
type BackendDiff struct {
	// Install are declared packages that are not installed
	Install []string `json:"install"`

	// Remove are explicit packages that no group declares
	Remove []string `json:"remove"`
}

// Plan is the reconciler's output for one run.
type Plan struct {
	// Backends are the backends that were queried and planned, sorted
	Backends []backend.ID `json:"backends"`

	// Actions are ordered by backend, then installs before removes, then package
	Actions []Action `json:"actions"`

	// Diffs holds the unfiltered diff per planned backend
	Diffs map[backend.ID]BackendDiff `json:"diffs"`

	// QueryErrors lists backends left out because their query failed
	QueryErrors []*backend.QueryError `json:"-"`

	// Warnings lists declared packages with no active backend
	Warnings []ConfigurationWarning `json:"warnings"`
}

// NewPlan creates an empty plan.
func NewPlan() *Plan {
	return &Plan{
		Backends: []backend.ID{},
		Actions:  []Action{},
		Diffs:    make(map[backend.ID]BackendDiff),
		Warnings: []ConfigurationWarning{},
	}
}

// Empty reports whether the plan has no actions.
func (p *Plan) Empty() bool {
	return len(p.Actions) == 0
}

// HasQueryErrors reports whether any backend could not be queried.
func (p *Plan) HasQueryErrors() bool {
	return len(p.QueryErrors) > 0
}

// Count returns the number of actions of the given kind.
func (p *Plan) Count(kind Kind) int {
	n := 0
	for _, a := range p.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// For returns the actions for one backend, in plan order.
func (p *Plan) For(id backend.ID) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Backend == id {
			out = append(out, a)
		}
	}
	return out
}

// Packages returns the packages of the given kind for one backend.
func (p *Plan) Packages(id backend.ID, kind Kind) []string {
	var out []string
	for _, a := range p.For(id) {
		if a.Kind == kind {
			out = append(out, a.Package)
		}
	}
	return out
}

// Unmanaged returns the explicit packages of a backend that no group
// declares, regardless of the plan's scope.
func (p *Plan) Unmanaged(id backend.ID) []string {
	return p.Diffs[id].Remove
}

// Missing returns the declared packages of a backend that are not installed,
// regardless of the plan's scope.
func (p *Plan) Missing(id backend.ID) []string {
	return p.Diffs[id].Install
}
