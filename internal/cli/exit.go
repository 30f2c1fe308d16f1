package cli

import (
	"context"
	"errors"

	"github.com/danieljhkim/pkgsync/internal/apply"
	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/config"
	"github.com/danieljhkim/pkgsync/internal/engine"
	"github.com/danieljhkim/pkgsync/internal/groups"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitConfig      = 2
	ExitQuery       = 3
	ExitPartial     = 4
	ExitInterrupted = 130
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var perr *groups.ParseError
	switch {
	case errors.As(err, &perr),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, groups.ErrGroupDirMissing),
		errors.Is(err, groups.ErrInvalidGroupName),
		errors.Is(err, backend.ErrUnknownBackend),
		errors.Is(err, apply.ErrInvalidReviewMode):
		return ExitConfig
	case errors.Is(err, apply.ErrInterrupted), errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, apply.ErrPartialApply):
		return ExitPartial
	case errors.Is(err, engine.ErrQueryFailed):
		return ExitQuery
	}
	return ExitError
}
