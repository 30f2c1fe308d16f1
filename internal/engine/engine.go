// Package engine provides the operations behind every pkgsync command.
//
// The engine is the orchestration layer between the CLI and the lower-level
// packages: it loads the group store, narrows the backend registry to the
// requested backends, runs the reconciler and hands plans to the apply
// controller. It also manages group files.
//
// Key components:
//   - Engine: Main orchestrator called by the CLI
//   - Plan/Apply: Reconciliation and review/apply of a plan
//   - Unmanaged/Adopt: Finding undeclared packages and writing them to groups
//   - Groups: Listing, showing, creating, importing and removing group files
package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/pkgsync/internal/apply"
	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/clock"
	"github.com/danieljhkim/pkgsync/internal/config"
	"github.com/danieljhkim/pkgsync/internal/fsops"
	"github.com/danieljhkim/pkgsync/internal/groups"
)

// Engine orchestrates all pkgsync operations.
// It is the main API surface called by the CLI.
type Engine struct {
	cfg     *config.Config
	paths   config.Paths
	fs      fsops.FS
	reg     *backend.Registry
	confirm apply.Confirmer
	clock   clock.Clock
	log     zerolog.Logger
}

// New creates a new Engine with the given dependencies.
func New(
	cfg *config.Config,
	paths config.Paths,
	fs fsops.FS,
	reg *backend.Registry,
	confirmer apply.Confirmer,
	clk clock.Clock,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		cfg:     cfg,
		paths:   paths,
		fs:      fs,
		reg:     reg,
		confirm: confirmer,
		clock:   clk,
		log:     log,
	}
}

// Registry returns the registry the engine was built with.
func (e *Engine) Registry() *backend.Registry {
	return e.reg
}

// Paths returns the resolved paths.
func (e *Engine) Paths() config.Paths {
	return e.paths
}

func (e *Engine) loadStore() (*groups.Store, error) {
	store, err := groups.Load(e.fs, e.paths.Groups, e.reg.Known())
	if err != nil {
		return nil, err
	}
	e.log.Debug().
		Str("dir", store.Root()).
		Int("groups", len(store.Groups())).
		Msg("loaded groups")
	return store, nil
}

func (e *Engine) manager() *groups.Manager {
	return groups.NewManager(e.fs, e.paths.Groups, e.reg.Known())
}

// selectRegistry narrows the registry to the requested backends.
func (e *Engine) selectRegistry(ids []backend.ID) (*backend.Registry, error) {
	reg, err := e.reg.Select(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to select backends: %w", err)
	}
	return reg, nil
}
