package native

import (
	"context"
	"fmt"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// PacmanAdapter manages Arch Linux packages. Queries always use pacman;
// mutations may go through an AUR helper such as paru or yay, which handle
// privilege escalation on their own.
type PacmanAdapter struct {
	runner     Runner
	binary     string
	removeArgs []string
	noConfirm  bool
	escalate   []string
}

// NewPacman creates the pacman adapter.
func NewPacman(r Runner, s Settings) *PacmanAdapter {
	binary := s.PacmanBinary
	if binary == "" {
		binary = "pacman"
	}
	removeArgs := s.PacmanRemoveArgs
	if len(removeArgs) == 0 {
		removeArgs = []string{"-s"}
	}

	var escalate []string
	if binary == "pacman" {
		escalate = s.Escalate
	}

	return &PacmanAdapter{
		runner:     r,
		binary:     binary,
		removeArgs: removeArgs,
		noConfirm:  s.NoConfirm,
		escalate:   escalate,
	}
}

// ID returns the pacman tag.
func (p *PacmanAdapter) ID() backend.ID {
	return Pacman
}

// Available reports whether pacman and the configured binary are on PATH.
func (p *PacmanAdapter) Available() bool {
	if err := p.runner.LookPath("pacman"); err != nil {
		return false
	}
	return p.runner.LookPath(p.binary) == nil
}

// Installed lists all local packages. Explicit packages come from
// `pacman -Qqe`, foreign ones from `pacman -Qqm`.
func (p *PacmanAdapter) Installed(ctx context.Context) ([]backend.InstalledPackage, error) {
	all, err := p.query(ctx, "-Qq")
	if err != nil {
		return nil, err
	}
	explicit, err := p.query(ctx, "-Qqe")
	if err != nil {
		return nil, err
	}
	foreign, err := p.query(ctx, "-Qqm")
	if err != nil {
		return nil, err
	}

	explicitSet := toSet(explicit)
	foreignSet := toSet(foreign)

	pkgs := make([]backend.InstalledPackage, 0, len(all))
	for _, name := range all {
		pkg := backend.InstalledPackage{ID: name, Origin: backend.Dependency, Repo: backend.Native}
		if _, ok := explicitSet[name]; ok {
			pkg.Origin = backend.Explicit
		}
		if _, ok := foreignSet[name]; ok {
			pkg.Repo = backend.Foreign
		}
		pkgs = append(pkgs, pkg)
	}
	sortPackages(pkgs)
	return pkgs, nil
}

// Install runs `-S --needed`, which skips packages that are up to date.
func (p *PacmanAdapter) Install(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	args := []string{"-S", "--needed"}
	if p.noConfirm {
		args = append(args, "--noconfirm")
	}
	args = append(args, packages...)

	name, full := escalated(p.escalate, p.binary, args...)
	if err := p.runner.Run(ctx, name, full...); err != nil {
		return settle(ctx, p, backend.OpInstall, packages, err)
	}
	return nil
}

// Remove runs `-R` with the configured remove flags. pacman refuses to
// remove absent packages, so those are filtered out first.
func (p *PacmanAdapter) Remove(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}
	present, err := onlyInstalled(ctx, p, packages)
	if err != nil {
		return &backend.MutationError{Backend: Pacman, Op: backend.OpRemove, Err: err}
	}
	if len(present) == 0 {
		return nil
	}

	args := append([]string{"-R"}, p.removeArgs...)
	if p.noConfirm {
		args = append(args, "--noconfirm")
	}
	args = append(args, present...)

	name, full := escalated(p.escalate, p.binary, args...)
	if err := p.runner.Run(ctx, name, full...); err != nil {
		return settle(ctx, p, backend.OpRemove, present, err)
	}
	return nil
}

func (p *PacmanAdapter) query(ctx context.Context, flag string) ([]string, error) {
	out, err := p.runner.Output(ctx, "pacman", flag)
	if err != nil {
		// pacman exits 1 when a filtered query matches nothing.
		if flag == "-Qqm" && isExitCode(err, 1) {
			return nil, nil
		}
		return nil, fmt.Errorf("pacman %s: %w", flag, err)
	}
	return splitLines(out), nil
}
