package engine

import (
	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/groups"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

// PlanResult represents the result of a Plan operation.
type PlanResult struct {
	// Plan is the computed plan
	Plan *reconcile.Plan `json:"plan"`

	// Groups is the number of group files loaded
	Groups int `json:"groups"`

	// QueryErrors mirrors Plan.QueryErrors in printable form
	QueryErrors []QueryFailure `json:"query_errors"`
}

// QueryFailure is a backend that could not be queried.
type QueryFailure struct {
	Backend backend.ID `json:"backend"`
	Error   string     `json:"error"`
}

// BackendPackages is a list of packages for one backend.
type BackendPackages struct {
	Backend  backend.ID `json:"backend"`
	Packages []string   `json:"packages"`
}

// UnmanagedResult represents the result of an Unmanaged operation.
type UnmanagedResult struct {
	Backends    []BackendPackages `json:"backends"`
	QueryErrors []QueryFailure    `json:"query_errors"`
}

// Total returns the number of unmanaged packages across backends.
func (r *UnmanagedResult) Total() int {
	n := 0
	for _, b := range r.Backends {
		n += len(b.Packages)
	}
	return n
}

// AdoptResult represents the result of an Adopt operation.
type AdoptResult struct {
	// Edit is the change made (or, on dry run, proposed) to the group file
	Edit *groups.Edit `json:"edit"`

	// Diff is a unified diff of the change
	Diff string `json:"diff"`

	// Created is true when the group file did not exist before
	Created bool `json:"created"`

	DryRun bool `json:"dry_run"`

	QueryErrors []QueryFailure `json:"query_errors"`
}

// GroupInfo summarises one group for listing.
type GroupInfo struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	Linked   bool         `json:"linked"`
	Backends []backend.ID `json:"backends"`
	Packages int          `json:"packages"`
}

// GroupListResult represents the result of ListGroups.
type GroupListResult struct {
	Dir    string      `json:"dir"`
	Groups []GroupInfo `json:"groups"`
}

// GroupDetail is the full content of one group.
type GroupDetail struct {
	Name     string            `json:"name"`
	Path     string            `json:"path"`
	Sections []BackendPackages `json:"sections"`
}

// GroupShowResult represents the result of ShowGroups.
type GroupShowResult struct {
	Groups []GroupDetail `json:"groups"`
}

// GroupPathsResult maps group names to file paths.
type GroupPathsResult struct {
	Paths []string `json:"paths"`
}
