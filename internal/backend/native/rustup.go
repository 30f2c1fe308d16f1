package native

import (
	"context"
	"fmt"
	"strings"

	"github.com/danieljhkim/pkgsync/internal/backend"
)

// Package ID prefixes for rustup. Toolchains are declared as
// "toolchain/<name>" and components as "component/<toolchain>/<name>".
const (
	rustupToolchain = "toolchain"
	rustupComponent = "component"
)

// host triple architectures stripped from toolchain names
var hostArchs = []string{"x86_64", "aarch64", "i686", "armv7", "arm", "riscv64gc", "powerpc64le", "s390x", "loongarch64"}

// RustupAdapter manages Rust toolchains and their components. rustup has
// no notion of dependencies, so everything it reports is explicit.
type RustupAdapter struct {
	runner Runner
}

// NewRustup creates the rustup adapter.
func NewRustup(r Runner) *RustupAdapter {
	return &RustupAdapter{runner: r}
}

// ID returns the rustup tag.
func (r *RustupAdapter) ID() backend.ID {
	return Rustup
}

// Available reports whether rustup is on PATH.
func (r *RustupAdapter) Available() bool {
	return r.runner.LookPath("rustup") == nil
}

// Installed lists toolchains and the components installed in each of them.
func (r *RustupAdapter) Installed(ctx context.Context) ([]backend.InstalledPackage, error) {
	out, err := r.runner.Output(ctx, "rustup", "toolchain", "list")
	if err != nil {
		return nil, fmt.Errorf("rustup toolchain list: %w", err)
	}

	var pkgs []backend.InstalledPackage
	for _, line := range splitLines(out) {
		if line == "no installed toolchains" {
			continue
		}
		full := strings.Fields(line)[0]
		toolchain := trimHostTriple(full)
		host := strings.TrimPrefix(full, toolchain)
		pkgs = append(pkgs, backend.InstalledPackage{ID: rustupToolchain + "/" + toolchain})

		components, err := r.runner.Output(ctx, "rustup", "component", "list", "--installed", "--toolchain", full)
		if err != nil {
			return nil, fmt.Errorf("rustup component list %s: %w", toolchain, err)
		}
		for _, c := range splitLines(components) {
			pkgs = append(pkgs, backend.InstalledPackage{
				ID: rustupComponent + "/" + toolchain + "/" + strings.TrimSuffix(c, host),
			})
		}
	}
	sortPackages(pkgs)
	return pkgs, nil
}

// Install adds toolchains first, then components, since a component can
// only be added to an installed toolchain.
func (r *RustupAdapter) Install(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}
	toolchains, components, invalid := splitRustup(packages)
	failed := invalid

	for _, tc := range toolchains {
		if err := r.runner.Run(ctx, "rustup", "toolchain", "install", tc); err != nil {
			failed = append(failed, backend.PackageFailure{Package: rustupToolchain + "/" + tc, Reason: err.Error()})
		}
	}
	for _, c := range components {
		if err := r.runner.Run(ctx, "rustup", "component", "add", "--toolchain", c[0], c[1]); err != nil {
			failed = append(failed, backend.PackageFailure{Package: componentID(c), Reason: err.Error()})
		}
	}

	return r.result(backend.OpInstall, failed)
}

// Remove drops components first, then toolchains. Absent entries are
// skipped because rustup fails when removing them.
func (r *RustupAdapter) Remove(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}
	present, err := onlyInstalled(ctx, r, packages)
	if err != nil {
		return &backend.MutationError{Backend: Rustup, Op: backend.OpRemove, Err: err}
	}
	toolchains, components, invalid := splitRustup(present)
	failed := invalid

	for _, c := range components {
		if err := r.runner.Run(ctx, "rustup", "component", "remove", "--toolchain", c[0], c[1]); err != nil {
			failed = append(failed, backend.PackageFailure{Package: componentID(c), Reason: err.Error()})
		}
	}
	for _, tc := range toolchains {
		if err := r.runner.Run(ctx, "rustup", "toolchain", "uninstall", tc); err != nil {
			failed = append(failed, backend.PackageFailure{Package: rustupToolchain + "/" + tc, Reason: err.Error()})
		}
	}

	return r.result(backend.OpRemove, failed)
}

// Requires returns the toolchain of every declared component, so that a
// component is never left behind by a toolchain removal.
func (r *RustupAdapter) Requires(packages []string) []string {
	_, components, _ := splitRustup(packages)
	out := make([]string, 0, len(components))
	for _, c := range components {
		out = append(out, rustupToolchain+"/"+c[0])
	}
	return out
}

func (r *RustupAdapter) result(op string, failed []backend.PackageFailure) error {
	if len(failed) == 0 {
		return nil
	}
	return &backend.MutationError{Backend: Rustup, Op: op, Packages: failed}
}

// splitRustup separates toolchain and component IDs. Components are
// returned as [toolchain, component] pairs.
func splitRustup(packages []string) (toolchains []string, components [][2]string, invalid []backend.PackageFailure) {
	for _, id := range packages {
		parts := strings.SplitN(id, "/", 3)
		switch {
		case len(parts) == 2 && parts[0] == rustupToolchain && parts[1] != "":
			toolchains = append(toolchains, parts[1])
		case len(parts) == 3 && parts[0] == rustupComponent && parts[1] != "" && parts[2] != "":
			components = append(components, [2]string{parts[1], parts[2]})
		default:
			invalid = append(invalid, backend.PackageFailure{
				Package: id,
				Reason:  "expected toolchain/<name> or component/<toolchain>/<name>",
			})
		}
	}
	return toolchains, components, invalid
}

func componentID(c [2]string) string {
	return rustupComponent + "/" + c[0] + "/" + c[1]
}

// trimHostTriple strips a trailing host triple such as
// "-x86_64-unknown-linux-gnu" from a toolchain name. Components use the
// toolchain's own triple so that cross-target components such as
// "rust-std-wasm32-unknown-unknown" keep their full name.
func trimHostTriple(name string) string {
	for _, arch := range hostArchs {
		if i := strings.Index(name, "-"+arch+"-"); i > 0 {
			return name[:i]
		}
	}
	return name
}
