// Package fsops provides the filesystem operations used to read and manage
// group files.
//
// All group-file reads and mutations in pkgsync go through the FS interface,
// which also validates group names so that a name can never escape the group
// directory.
//
// Key features:
//   - Atomic writes using temp file + rename
//   - Symlink-following directory reads for group discovery
//   - Group name validation
//   - Testable via the FS interface
package fsops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS provides an abstraction for filesystem operations.
type FS interface {
	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// Lstat returns file info without following symlinks.
	Lstat(path string) (os.FileInfo, error)

	// ReadDir lists a directory sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// EvalSymlinks resolves every symlink in path.
	EvalSymlinks(path string) (string, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file, or a symlink without touching its target.
	Remove(path string) error

	// Symlink creates a symbolic link from newname to oldname.
	Symlink(oldname, newname string) error

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Exists checks if a path exists. A dangling symlink exists.
	Exists(path string) (bool, error)

	// ValidateRelPath validates a relative path for safety.
	ValidateRelPath(relPath string) error

	// ValidateGroupName validates a group name for use as a file path
	// under the group directory.
	ValidateGroupName(name string) error
}

// RealFS implements FS using actual OS operations.
type RealFS struct{}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

// Stat returns file info, following symlinks.
func (fs *RealFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Lstat returns file info without following symlinks.
func (fs *RealFS) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

// ReadDir lists a directory sorted by name.
func (fs *RealFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// EvalSymlinks resolves every symlink in path.
func (fs *RealFS) EvalSymlinks(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

// MkdirAll creates a directory and all parent directories.
func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Remove removes a file or symlink.
func (fs *RealFS) Remove(path string) error {
	return os.Remove(path)
}

// Symlink creates a symbolic link from newname to oldname.
func (fs *RealFS) Symlink(oldname, newname string) error {
	return os.Symlink(oldname, newname)
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Temp file lives next to the target so the rename stays on one filesystem.
	// The leading dot keeps it out of group discovery.
	tmpFile, err := os.CreateTemp(dir, ".pkgsync-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Writing through an imported group's symlink must update the linked
	// file, not replace the link.
	target := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		target = resolved
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}

// ReadFile reads the entire contents of a file.
func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists checks if a path exists.
func (fs *RealFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ValidateRelPath validates a relative path for safety.
// Returns an error if the path is invalid or unsafe.
func (fs *RealFS) ValidateRelPath(relPath string) error {
	cleaned := filepath.Clean(relPath)

	if cleaned == "" || cleaned == "." {
		return fmt.Errorf("invalid path: empty or current directory")
	}
	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("invalid path: must be relative, got absolute path %q", cleaned)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid path: path traversal not allowed in %q", cleaned)
	}

	return nil
}

// ValidateGroupName validates a group name. Names are slash-separated paths
// relative to the group directory; components may not be hidden or editor
// backups, because group discovery skips those.
func (fs *RealFS) ValidateGroupName(name string) error {
	if err := fs.ValidateRelPath(name); err != nil {
		return fmt.Errorf("invalid group name %q: %w", name, err)
	}

	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == "" {
			return fmt.Errorf("invalid group name %q: empty path component", name)
		}
		if strings.HasPrefix(part, ".") {
			return fmt.Errorf("invalid group name %q: components must not start with '.'", name)
		}
		if strings.HasSuffix(part, "~") {
			return fmt.Errorf("invalid group name %q: components must not end with '~'", name)
		}
		if strings.ContainsAny(part, "\x00\n\r\t") {
			return fmt.Errorf("invalid group name %q: control characters not allowed", name)
		}
	}

	return nil
}
