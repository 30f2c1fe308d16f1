package native

import (
	"context"
	"fmt"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// FlatpakAdapter manages flatpak applications. Applications are explicit;
// runtimes are pulled in by applications and count as dependencies.
type FlatpakAdapter struct {
	runner    Runner
	user      bool
	noConfirm bool
}

// NewFlatpak creates the flatpak adapter.
func NewFlatpak(r Runner, s Settings) *FlatpakAdapter {
	return &FlatpakAdapter{runner: r, user: s.FlatpakUser, noConfirm: s.NoConfirm}
}

// ID returns the flatpak tag.
func (f *FlatpakAdapter) ID() backend.ID {
	return Flatpak
}

// Available reports whether flatpak is on PATH.
func (f *FlatpakAdapter) Available() bool {
	return f.runner.LookPath("flatpak") == nil
}

// Installed lists applications as explicit and runtimes as dependencies.
func (f *FlatpakAdapter) Installed(ctx context.Context) ([]backend.InstalledPackage, error) {
	apps, err := f.list(ctx, "--app")
	if err != nil {
		return nil, err
	}
	runtimes, err := f.list(ctx, "--runtime")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var pkgs []backend.InstalledPackage
	add := func(names []string, origin backend.Origin) {
		for _, name := range names {
			// one line per installed branch
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			pkgs = append(pkgs, backend.InstalledPackage{ID: name, Origin: origin})
		}
	}
	add(apps, backend.Explicit)
	add(runtimes, backend.Dependency)

	sortPackages(pkgs)
	return pkgs, nil
}

// Install runs flatpak install.
func (f *FlatpakAdapter) Install(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}
	if err := f.run(ctx, "install", packages); err != nil {
		return settle(ctx, f, backend.OpInstall, packages, err)
	}
	return nil
}

// Remove runs flatpak uninstall on the applications that are still
// installed; flatpak fails for refs that are not installed.
func (f *FlatpakAdapter) Remove(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}
	present, err := onlyInstalled(ctx, f, packages)
	if err != nil {
		return &backend.MutationError{Backend: Flatpak, Op: backend.OpRemove, Err: err}
	}
	if len(present) == 0 {
		return nil
	}
	if err := f.run(ctx, "uninstall", present); err != nil {
		return settle(ctx, f, backend.OpRemove, present, err)
	}
	return nil
}

func (f *FlatpakAdapter) list(ctx context.Context, kind string) ([]string, error) {
	args := []string{"list", kind, "--columns=application"}
	if f.user {
		args = append(args, "--user")
	}
	out, err := f.runner.Output(ctx, "flatpak", args...)
	if err != nil {
		return nil, fmt.Errorf("flatpak list %s: %w", kind, err)
	}
	return splitLines(out), nil
}

func (f *FlatpakAdapter) run(ctx context.Context, verb string, packages []string) error {
	args := []string{verb}
	if f.user {
		args = append(args, "--user")
	}
	if f.noConfirm {
		args = append(args, "-y", "--noninteractive")
	}
	args = append(args, packages...)
	return f.runner.Run(ctx, "flatpak", args...)
}
