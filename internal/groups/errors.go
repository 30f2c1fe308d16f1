package groups

import (
	"errors"
	"fmt"
)

var (
	// ErrGroupExists indicates a group file already exists at the target path.
	ErrGroupExists = errors.New("group already exists")

	// ErrGroupNotFound indicates no group file exists for the given name.
	ErrGroupNotFound = errors.New("group not found")

	// ErrInvalidGroupName indicates a group name that cannot be used as a
	// path under the group directory.
	ErrInvalidGroupName = errors.New("invalid group name")

	// ErrGroupDirMissing indicates the group directory does not exist.
	// A missing directory is fatal rather than an empty store, since an empty
	// desired state would propose removing every explicit package.
	ErrGroupDirMissing = errors.New("group directory does not exist")
)

// ParseError reports a malformed or unreadable group file.
// Line is zero when the error is not tied to a specific line.
type ParseError struct {
	File   string
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", loc, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", loc, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
