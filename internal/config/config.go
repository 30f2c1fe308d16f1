package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/pkgsync/internal/apply"
)

// ErrInvalidConfig indicates a malformed or inconsistent config file.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	PromptKey  = "key"
	PromptForm = "form"
)

// Config is the user configuration. It is loaded once at startup and never
// modified afterwards.
type Config struct {
	// Review is the default review mode: none, per-action or confirm-all
	Review string `yaml:"review"`

	// Requery re-reads backends after review and before apply
	Requery bool `yaml:"requery"`

	// Prompt selects the confirmer: key (single keypress) or form
	Prompt string `yaml:"prompt"`

	Backends BackendsConfig `yaml:"backends"`
}

// BackendsConfig configures the backend adapters.
type BackendsConfig struct {
	// Enabled lists the backends to use; empty means every available one
	Enabled []string `yaml:"enabled"`

	Pacman  PacmanConfig  `yaml:"pacman"`
	Flatpak FlatpakConfig `yaml:"flatpak"`
}

// PacmanConfig configures the pacman adapter.
type PacmanConfig struct {
	// Binary is pacman or an AUR helper with the same interface (paru, yay)
	Binary string `yaml:"binary"`

	// RemoveArgs are appended to -R
	RemoveArgs []string `yaml:"remove_args"`
}

// FlatpakConfig configures the flatpak adapter.
type FlatpakConfig struct {
	// User manages the per-user installation instead of the system one
	User bool `yaml:"user"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Review: string(apply.ReviewConfirmAll),
		Prompt: PromptKey,
		Backends: BackendsConfig{
			Pacman: PacmanConfig{Binary: "pacman", RemoveArgs: []string{"-s"}},
		},
	}
}

// Load reads the config file at path on top of Default. A missing file
// yields the defaults. Environment variables in the file are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes config data on top of Default. Unknown keys are rejected.
func Parse(data []byte, source string) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, source, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if _, err := apply.ParseReviewMode(c.Review); err != nil {
		return fmt.Errorf("%w: review: %v", ErrInvalidConfig, err)
	}
	if !slices.Contains([]string{PromptKey, PromptForm}, c.Prompt) {
		return fmt.Errorf("%w: prompt must be %q or %q, got %q", ErrInvalidConfig, PromptKey, PromptForm, c.Prompt)
	}
	if c.Backends.Pacman.Binary == "" {
		return fmt.Errorf("%w: backends.pacman.binary must not be empty", ErrInvalidConfig)
	}

	seen := make(map[string]bool)
	for _, name := range c.Backends.Enabled {
		if name == "" {
			return fmt.Errorf("%w: backends.enabled contains an empty name", ErrInvalidConfig)
		}
		if seen[name] {
			return fmt.Errorf("%w: backends.enabled lists %q twice", ErrInvalidConfig, name)
		}
		seen[name] = true
	}
	return nil
}

// ReviewMode returns the parsed review mode. Validate has already checked it.
func (c *Config) ReviewMode() apply.ReviewMode {
	mode, err := apply.ParseReviewMode(c.Review)
	if err != nil {
		return apply.ReviewConfirmAll
	}
	return mode
}
