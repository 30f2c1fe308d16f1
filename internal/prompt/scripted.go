package prompt

import (
	"context"
	"sync"

	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

// Scripted answers from a fixed script.
type Scripted struct {
	mu sync.Mutex

	// All is the answer to ConfirmAll.
	All bool

	// Answers maps Action.String() to an answer; unlisted actions get Default.
	Answers map[string]bool
	Default bool

	// Err, when set, is returned by every call.
	Err error

	asked []reconcile.Action
}

// ConfirmAll returns s.All.
func (s *Scripted) ConfirmAll(ctx context.Context, plan *reconcile.Plan) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	return s.All, nil
}

// Confirm looks the action up in s.Answers.
func (s *Scripted) Confirm(ctx context.Context, a reconcile.Action) (bool, error) {
	s.mu.Lock()
	s.asked = append(s.asked, a)
	s.mu.Unlock()

	if s.Err != nil {
		return false, s.Err
	}
	if ok, found := s.Answers[a.String()]; found {
		return ok, nil
	}
	return s.Default, nil
}

// Asked returns the actions Confirm was called with.
func (s *Scripted) Asked() []reconcile.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reconcile.Action(nil), s.asked...)
}
