// Package config manages pkgsync configuration and filesystem paths.
//
// The default root is $XDG_CONFIG_HOME/pkgsync (or ~/.config/pkgsync),
// containing the groups/ directory, config.yaml and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	EnvRoot     = "PKGSYNC_ROOT"
	EnvGroupDir = "PKGSYNC_GROUP_DIR"
)

// Paths contains all the filesystem paths used by pkgsync.
type Paths struct {
	// Root is the base directory (default: ~/.config/pkgsync)
	Root string

	// Groups is the directory scanned for group files
	Groups string

	// Config is the path to the config file
	Config string

	// EnvFile is the path to the optional .env file
	EnvFile string
}

// DefaultPaths returns the default paths for pkgsync.
// Paths can be overridden with environment variables:
// - PKGSYNC_ROOT: Override the root directory
// - XDG_CONFIG_HOME: Root becomes $XDG_CONFIG_HOME/pkgsync
// - PKGSYNC_GROUP_DIR: Override the group directory only
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(EnvRoot)
	if root == "" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			root = filepath.Join(xdg, "pkgsync")
		}
	}
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".config", "pkgsync")
	}

	groups := os.Getenv(EnvGroupDir)
	if groups == "" {
		groups = filepath.Join(root, "groups")
	}

	return &Paths{
		Root:    root,
		Groups:  groups,
		Config:  filepath.Join(root, "config.yaml"),
		EnvFile: filepath.Join(root, ".env"),
	}, nil
}

// ResolvePaths loads the .env file under the default root, then resolves
// the paths again so that the file can override them.
func ResolvePaths() (*Paths, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	if err := LoadEnv(paths.EnvFile); err != nil {
		return nil, err
	}
	return DefaultPaths()
}

// LoadEnv loads environment variables from path. Missing files are ignored
// and variables already set in the environment win.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Groups,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
