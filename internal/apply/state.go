// Package apply reviews a reconciliation plan and drives the backend
// mutations that carry it out.
//
// A run moves through Computed → Reviewed → Applying → Done, or ends in
// Aborted from Computed (nothing to do, or interrupted) or Reviewed (every
// action declined, or interrupted before the first batch). Confirmed
// actions are applied as one batch per (backend, kind), installs before
// removes, one batch at a time. A failing batch never stops the others.
package apply

import (
	"errors"
	"fmt"
	"strings"
)

// State is the controller's position in a run.
type State int

const (
	Computed State = iota
	Reviewed
	Applying
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case Computed:
		return "computed"
	case Reviewed:
		return "reviewed"
	case Applying:
		return "applying"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ReviewMode selects how actions are confirmed before applying.
type ReviewMode string

const (
	// ReviewNone applies every action without asking.
	ReviewNone ReviewMode = "none"

	// ReviewPerAction asks about each action; declined actions are dropped.
	ReviewPerAction ReviewMode = "per-action"

	// ReviewConfirmAll asks once for the whole plan.
	ReviewConfirmAll ReviewMode = "confirm-all"
)

// ReviewModes lists the valid modes.
var ReviewModes = []ReviewMode{ReviewNone, ReviewPerAction, ReviewConfirmAll}

// ErrInvalidReviewMode is returned by ParseReviewMode.
var ErrInvalidReviewMode = errors.New("invalid review mode")

// ParseReviewMode parses a review mode name. Underscores are accepted in
// place of dashes.
func ParseReviewMode(s string) (ReviewMode, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for _, m := range ReviewModes {
		if norm == string(m) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q (want one of none, per-action, confirm-all)", ErrInvalidReviewMode, s)
}
