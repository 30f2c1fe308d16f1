package native

import (
	"context"
	"fmt"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// DnfAdapter manages Fedora/RHEL packages. Explicit packages are the ones
// dnf records as user-installed; every other rpm is a dependency.
type DnfAdapter struct {
	runner    Runner
	noConfirm bool
	escalate  []string
}

// NewDnf creates the dnf adapter.
func NewDnf(r Runner, s Settings) *DnfAdapter {
	return &DnfAdapter{runner: r, noConfirm: s.NoConfirm, escalate: s.Escalate}
}

// ID returns the dnf tag.
func (d *DnfAdapter) ID() backend.ID {
	return Dnf
}

// Available reports whether dnf and rpm are on PATH.
func (d *DnfAdapter) Available() bool {
	return d.runner.LookPath("dnf") == nil && d.runner.LookPath("rpm") == nil
}

// Installed lists every rpm, marking user-installed ones as explicit.
func (d *DnfAdapter) Installed(ctx context.Context) ([]backend.InstalledPackage, error) {
	all, err := d.runner.Output(ctx, "rpm", "-qa", "--qf", `%{NAME}\n`)
	if err != nil {
		return nil, fmt.Errorf("rpm -qa: %w", err)
	}
	user, err := d.runner.Output(ctx, "dnf", "repoquery", "--userinstalled", "--qf", `%{name}\n`)
	if err != nil {
		return nil, fmt.Errorf("dnf repoquery: %w", err)
	}

	explicit := toSet(splitLines(user))
	seen := make(map[string]struct{})
	var pkgs []backend.InstalledPackage
	for _, name := range splitLines(all) {
		// rpm lists multi-version packages such as kernels once per version.
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		pkg := backend.InstalledPackage{ID: name, Origin: backend.Dependency}
		if _, ok := explicit[name]; ok {
			pkg.Origin = backend.Explicit
		}
		pkgs = append(pkgs, pkg)
	}
	sortPackages(pkgs)
	return pkgs, nil
}

// Install runs dnf install.
func (d *DnfAdapter) Install(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}
	if err := d.run(ctx, "install", packages); err != nil {
		return settle(ctx, d, backend.OpInstall, packages, err)
	}
	return nil
}

// Remove runs dnf remove on the packages that are still installed;
// dnf fails the whole batch when an argument matches nothing.
func (d *DnfAdapter) Remove(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}
	present, err := onlyInstalled(ctx, d, packages)
	if err != nil {
		return &backend.MutationError{Backend: Dnf, Op: backend.OpRemove, Err: err}
	}
	if len(present) == 0 {
		return nil
	}
	if err := d.run(ctx, "remove", present); err != nil {
		return settle(ctx, d, backend.OpRemove, present, err)
	}
	return nil
}

func (d *DnfAdapter) run(ctx context.Context, verb string, packages []string) error {
	args := []string{verb}
	if d.noConfirm {
		args = append(args, "-y")
	}
	args = append(args, packages...)

	name, full := escalated(d.escalate, "dnf", args...)
	return d.runner.Run(ctx, name, full...)
}
