package engine

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/backend/native"
	"github.com/danieljhkim/pkgsync/internal/config"
)

// BuildRegistry creates the native adapters enabled by cfg and registers the
// available ones. Backends listed explicitly in backends.enabled but missing
// from this machine are logged as warnings; with no explicit list, absent
// tools are skipped quietly.
func BuildRegistry(cfg *config.Config, runner native.Runner, noConfirm bool, log zerolog.Logger) (*backend.Registry, error) {
	known := native.Known()

	enabled := known
	explicit := len(cfg.Backends.Enabled) > 0
	if explicit {
		enabled = make([]backend.ID, 0, len(cfg.Backends.Enabled))
		for _, name := range cfg.Backends.Enabled {
			id := backend.ID(name)
			if !slices.Contains(known, id) {
				return nil, fmt.Errorf("%w: backends.enabled: %w: %s", config.ErrInvalidConfig, backend.ErrUnknownBackend, name)
			}
			enabled = append(enabled, id)
		}
	}

	settings := native.Settings{
		NoConfirm:        noConfirm,
		PacmanBinary:     cfg.Backends.Pacman.Binary,
		PacmanRemoveArgs: cfg.Backends.Pacman.RemoveArgs,
		FlatpakUser:      cfg.Backends.Flatpak.User,
	}

	var active []backend.Backend
	for _, id := range enabled {
		adapter, err := native.New(id, runner, settings)
		if err != nil {
			return nil, err
		}
		if !adapter.Available() {
			ev := log.Debug()
			if explicit {
				ev = log.Warn()
			}
			ev.Str("backend", string(id)).Msg("backend tools not found, skipping")
			continue
		}
		active = append(active, adapter)
	}

	reg, err := backend.NewRegistry(known, active...)
	if err != nil {
		return nil, err
	}
	log.Debug().Interface("active", reg.Active()).Msg("backends ready")
	return reg, nil
}

// SimulatedRegistry registers an empty in-memory backend for every known
// tag. Runs against it never touch the system.
func SimulatedRegistry() (*backend.Registry, error) {
	known := native.Known()
	active := make([]backend.Backend, 0, len(known))
	for _, id := range known {
		active = append(active, backend.NewMemory(id))
	}
	return backend.NewRegistry(known, active...)
}
