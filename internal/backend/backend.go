// Package backend defines the contract every package manager adapter must
// satisfy, and the registry that owns the active adapters for a single run.
//
// The reconciliation engine depends only on this package. Concrete adapters
// (pacman, apt, dnf, flatpak, rustup) live in backend/native and are plugged
// into a Registry at startup.
//
// Key components:
//   - Backend: query and mutate one system package database
//   - InstalledPackage: one package as reported by a backend
//   - Registry: adapters for the current run, keyed by tag
//   - Memory: in-memory adapter for tests and simulated runs
package backend

import (
	"context"
	"fmt"
)

// ID is the stable short tag identifying a backend (e.g. "pacman").
// Group files reference backends by this tag in their section headers.
type ID string

// Origin records why a package is installed.
type Origin int

const (
	// Explicit packages were requested directly by the user.
	Explicit Origin = iota

	// Dependency packages were pulled in only to satisfy another package.
	Dependency
)

// String returns the lowercase name of the origin.
func (o Origin) String() string {
	switch o {
	case Explicit:
		return "explicit"
	case Dependency:
		return "dependency"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// MarshalText renders the origin as its name in JSON output.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Repo records where a package came from.
type Repo int

const (
	// Native packages come from the backend's configured repositories.
	Native Repo = iota

	// Foreign packages were installed from outside those repositories
	// (AUR builds, local packages).
	Foreign
)

// String returns the lowercase name of the repo kind.
func (r Repo) String() string {
	switch r {
	case Native:
		return "native"
	case Foreign:
		return "foreign"
	default:
		return fmt.Sprintf("repo(%d)", int(r))
	}
}

// MarshalText renders the repo kind as its name in JSON output.
func (r Repo) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// InstalledPackage is a single package reported by a backend.
type InstalledPackage struct {
	ID     string `json:"id"`
	Origin Origin `json:"origin"`
	Repo   Repo   `json:"repo"`
}

// Backend is the capability every package manager adapter provides.
//
// Adapters must be idempotent: installing a package that is already
// installed, or removing one that is already absent, succeeds as a no-op.
// Calls with an empty package list must succeed without side effects.
type Backend interface {
	// ID returns the backend tag.
	ID() ID

	// Installed lists every installed package. The Explicit/Dependency
	// distinction must be reliable: only explicit packages are ever
	// proposed for removal.
	Installed(ctx context.Context) ([]InstalledPackage, error)

	// Install installs packages in a single batch.
	Install(ctx context.Context, packages []string) error

	// Remove removes packages in a single batch.
	Remove(ctx context.Context, packages []string) error
}

// Requirer is implemented by backends whose declared packages cannot be
// kept without others, such as a rustup component and its toolchain.
type Requirer interface {
	// Requires returns the packages that must stay installed for packages
	// to be installed. The result may repeat or overlap packages.
	Requires(packages []string) []string
}
