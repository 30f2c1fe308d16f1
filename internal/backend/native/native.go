// Package native provides backend adapters that drive the system package
// managers by running their command-line tools.
//
// Every adapter is a leaf implementation of backend.Backend with no shared
// base state; process execution goes through a Runner so adapters can be
// tested with a scripted runner. Privilege escalation (sudo) is handled here
// and nowhere else.
package native

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// Backend tags handled by this package.
const (
	Pacman  backend.ID = "pacman"
	Apt     backend.ID = "apt"
	Dnf     backend.ID = "dnf"
	Flatpak backend.ID = "flatpak"
	Rustup  backend.ID = "rustup"
)

// Adapter is a backend that can tell whether its tooling is installed.
type Adapter interface {
	backend.Backend

	// Available reports whether the backend's binaries are on PATH.
	Available() bool
}

// Settings tunes adapter construction.
type Settings struct {
	// NoConfirm passes the package manager's non-interactive flag.
	NoConfirm bool

	// PacmanBinary replaces pacman for mutations (e.g. an AUR helper).
	PacmanBinary string

	// PacmanRemoveArgs replaces the default "-s" remove flags.
	PacmanRemoveArgs []string

	// FlatpakUser operates on the per-user flatpak installation.
	FlatpakUser bool

	// Escalate is the command prefix used to gain root privileges.
	// Defaults to sudo when not running as root.
	Escalate []string
}

// Known returns every tag this package can build an adapter for.
func Known() []backend.ID {
	ids := []backend.ID{Pacman, Apt, Dnf, Flatpak, Rustup}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// New builds the adapter for a tag.
func New(id backend.ID, r Runner, s Settings) (Adapter, error) {
	if s.Escalate == nil && os.Geteuid() != 0 {
		s.Escalate = []string{"sudo"}
	}

	switch id {
	case Pacman:
		return NewPacman(r, s), nil
	case Apt:
		return NewApt(r, s), nil
	case Dnf:
		return NewDnf(r, s), nil
	case Flatpak:
		return NewFlatpak(r, s), nil
	case Rustup:
		return NewRustup(r), nil
	default:
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownBackend, id)
	}
}

// escalated prefixes a command with the escalation command, if any.
func escalated(prefix []string, name string, args ...string) (string, []string) {
	if len(prefix) == 0 {
		return name, args
	}
	full := make([]string, 0, len(prefix)+len(args))
	full = append(full, prefix[1:]...)
	full = append(full, name)
	full = append(full, args...)
	return prefix[0], full
}

// settle turns a failed batch into a MutationError. The backend is queried
// again and every package that did not reach the wanted state is reported
// with the command's error as reason. A batch whose packages all converged
// despite the error is treated as successful.
func settle(ctx context.Context, b backend.Backend, op string, packages []string, runErr error) error {
	installed, err := b.Installed(ctx)
	if err != nil {
		return &backend.MutationError{
			Backend:  b.ID(),
			Op:       op,
			Packages: failAll(packages, runErr),
			Err:      errors.Join(runErr, err),
		}
	}

	present := make(map[string]struct{}, len(installed))
	for _, p := range installed {
		present[p.ID] = struct{}{}
	}

	var failed []string
	for _, name := range packages {
		_, ok := present[name]
		if (op == backend.OpInstall && !ok) || (op == backend.OpRemove && ok) {
			failed = append(failed, name)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	return &backend.MutationError{
		Backend:  b.ID(),
		Op:       op,
		Packages: failAll(failed, runErr),
		Err:      runErr,
	}
}

func failAll(packages []string, err error) []backend.PackageFailure {
	failures := make([]backend.PackageFailure, 0, len(packages))
	for _, name := range packages {
		failures = append(failures, backend.PackageFailure{Package: name, Reason: err.Error()})
	}
	return failures
}

// onlyInstalled filters packages down to the ones currently installed, for
// tools that fail when asked to remove an absent package.
func onlyInstalled(ctx context.Context, b backend.Backend, packages []string) ([]string, error) {
	installed, err := b.Installed(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(installed))
	for _, p := range installed {
		present[p.ID] = struct{}{}
	}

	var out []string
	for _, name := range packages {
		if _, ok := present[name]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func sortPackages(pkgs []backend.InstalledPackage) {
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].ID < pkgs[j].ID })
}
