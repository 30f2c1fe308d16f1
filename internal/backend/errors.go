package backend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownBackend indicates a tag that no compiled-in adapter provides.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrDuplicateBackend indicates two adapters registered under one tag.
	ErrDuplicateBackend = errors.New("duplicate backend")
)

// Operation names used in MutationError.
const (
	OpInstall = "install"
	OpRemove  = "remove"
)

// QueryError reports that a backend could not list its installed packages.
// The backend is excluded from the run; other backends are unaffected.
type QueryError struct {
	Backend ID
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Backend, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// PackageFailure is the adapter-provided reason a single package did not
// converge.
type PackageFailure struct {
	Package string `json:"package"`
	Reason  string `json:"reason"`
}

// MutationError reports a failed install or remove batch.
// Packages lists the packages that did not converge, when the adapter can
// tell; an empty list means the whole batch is in doubt.
type MutationError struct {
	Backend  ID
	Op       string
	Packages []PackageFailure
	Err      error
}

func (e *MutationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s failed", e.Op, e.Backend)
	if len(e.Packages) > 0 {
		names := make([]string, 0, len(e.Packages))
		for _, p := range e.Packages {
			names = append(names, p.Package)
		}
		fmt.Fprintf(&b, " for %s", strings.Join(names, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
