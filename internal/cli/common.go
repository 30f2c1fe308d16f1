package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/pkgsync/internal/apply"
	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/backend/native"
	"github.com/danieljhkim/pkgsync/internal/clock"
	"github.com/danieljhkim/pkgsync/internal/config"
	"github.com/danieljhkim/pkgsync/internal/engine"
	"github.com/danieljhkim/pkgsync/internal/fsops"
	"github.com/danieljhkim/pkgsync/internal/logging"
	"github.com/danieljhkim/pkgsync/internal/prompt"
)

var (
	// buildRegistry creates the backend registry for a run. Tests replace it.
	buildRegistry = func(cfg *config.Config, noConfirm bool, log zerolog.Logger) (*backend.Registry, error) {
		if simulate {
			return engine.SimulatedRegistry()
		}
		return engine.BuildRegistry(cfg, native.NewExecRunner(), noConfirm, log)
	}

	// newConfirmer creates the interactive confirmer. Tests replace it.
	newConfirmer = func(cfg *config.Config) apply.Confirmer {
		if cfg.Prompt == config.PromptForm {
			return prompt.NewForm()
		}
		return prompt.NewTerminal(os.Stdin, os.Stderr)
	}
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	log := logging.NewFromEnv(os.Stderr, verbose)

	paths, err := config.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	cfgPath := paths.Config
	if configPath != "" {
		cfgPath = configPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	mode, err := reviewMode()
	if err != nil {
		return nil, err
	}
	if mode == "" {
		mode = cfg.ReviewMode()
	}

	// The package managers' own prompts are suppressed only when nothing
	// else asks the user.
	reg, err := buildRegistry(cfg, mode == apply.ReviewNone, log)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("root", paths.Root).
		Str("config", cfgPath).
		Str("review", string(mode)).
		Msg("configuration loaded")

	return engine.New(cfg, *paths, fsops.NewRealFS(), reg, newConfirmer(cfg), &clock.RealClock{}, log), nil
}

// commandContext returns a context cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// backendIDs returns the --backend selection.
func backendIDs() []backend.ID {
	ids := make([]backend.ID, 0, len(backendFlags))
	for _, b := range backendFlags {
		ids = append(ids, backend.ID(b))
	}
	return ids
}

// reviewMode resolves --noconfirm and --review. An empty mode means the
// configured one.
func reviewMode() (apply.ReviewMode, error) {
	if noConfirm {
		return apply.ReviewNone, nil
	}
	if reviewFlag.value == "" {
		return "", nil
	}
	return apply.ParseReviewMode(reviewFlag.value)
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
