package native

import (
	"context"
	"fmt"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// AptAdapter manages Debian/Ubuntu packages. The explicit/dependency split
// comes from apt-mark's manual and auto markers.
type AptAdapter struct {
	runner    Runner
	noConfirm bool
	escalate  []string
}

// NewApt creates the apt adapter.
func NewApt(r Runner, s Settings) *AptAdapter {
	return &AptAdapter{runner: r, noConfirm: s.NoConfirm, escalate: s.Escalate}
}

// ID returns the apt tag.
func (a *AptAdapter) ID() backend.ID {
	return Apt
}

// Available reports whether apt-get and apt-mark are on PATH.
func (a *AptAdapter) Available() bool {
	return a.runner.LookPath("apt-get") == nil && a.runner.LookPath("apt-mark") == nil
}

// Installed lists manually installed packages as explicit and
// automatically installed ones as dependencies.
func (a *AptAdapter) Installed(ctx context.Context) ([]backend.InstalledPackage, error) {
	manual, err := a.runner.Output(ctx, "apt-mark", "showmanual")
	if err != nil {
		return nil, fmt.Errorf("apt-mark showmanual: %w", err)
	}
	auto, err := a.runner.Output(ctx, "apt-mark", "showauto")
	if err != nil {
		return nil, fmt.Errorf("apt-mark showauto: %w", err)
	}

	seen := make(map[string]struct{})
	var pkgs []backend.InstalledPackage
	for _, name := range splitLines(manual) {
		seen[name] = struct{}{}
		pkgs = append(pkgs, backend.InstalledPackage{ID: name, Origin: backend.Explicit})
	}
	for _, name := range splitLines(auto) {
		if _, ok := seen[name]; ok {
			continue
		}
		pkgs = append(pkgs, backend.InstalledPackage{ID: name, Origin: backend.Dependency})
	}
	sortPackages(pkgs)
	return pkgs, nil
}

// Install runs apt-get install. Installed packages are left untouched.
func (a *AptAdapter) Install(ctx context.Context, packages []string) error {
	return a.mutate(ctx, backend.OpInstall, "install", packages)
}

// Remove runs apt-get remove, which succeeds for absent packages.
func (a *AptAdapter) Remove(ctx context.Context, packages []string) error {
	return a.mutate(ctx, backend.OpRemove, "remove", packages)
}

func (a *AptAdapter) mutate(ctx context.Context, op, verb string, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	args := []string{verb}
	if a.noConfirm {
		args = append(args, "-y")
	}
	args = append(args, packages...)

	name, full := escalated(a.escalate, "apt-get", args...)
	if err := a.runner.Run(ctx, name, full...); err != nil {
		return settle(ctx, a, op, packages, err)
	}
	return nil
}
