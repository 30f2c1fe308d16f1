package engine

import (
	"github.com/danieljhkim/pkgsync/internal/apply"
	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

// PlanRequest represents a request to compute a reconciliation plan.
type PlanRequest struct {
	// Backends limits the plan to these tags (empty means all active)
	Backends []backend.ID

	// Scope limits the plan to installs or removes
	Scope reconcile.Scope
}

// ApplyRequest represents a request to review and apply a plan.
type ApplyRequest struct {
	// Plan is the plan returned by Plan
	Plan *reconcile.Plan

	// Review overrides the configured review mode when set
	Review apply.ReviewMode
}

// UnmanagedRequest represents a request to list undeclared explicit packages.
type UnmanagedRequest struct {
	// Backends limits the listing to these tags
	Backends []backend.ID
}

// AdoptRequest represents a request to add unmanaged packages to a group.
type AdoptRequest struct {
	// Group is the target group name
	Group string

	// Backends limits adoption to these tags
	Backends []backend.ID

	// Packages adopts only these packages; requires exactly one backend
	Packages []string

	// DryRun computes the edit and its diff without writing
	DryRun bool
}

// ShowGroupsRequest represents a request to show group contents.
type ShowGroupsRequest struct {
	// Names are group names or paths to group files
	Names []string
}
