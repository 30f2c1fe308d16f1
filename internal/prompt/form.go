package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/danieljhkim/pkgsync/internal/apply"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

// Form confirms through huh forms.
type Form struct {
	run func(ctx context.Context, f *huh.Form) error
}

// NewForm creates a Form confirmer.
func NewForm() *Form {
	return &Form{run: func(ctx context.Context, f *huh.Form) error {
		return f.RunWithContext(ctx)
	}}
}

// ConfirmAll asks once whether to apply the whole plan.
func (f *Form) ConfirmAll(ctx context.Context, plan *reconcile.Plan) (bool, error) {
	return f.confirm(ctx, summary(plan), fmt.Sprintf("%d action(s) across %d backend(s)", len(plan.Actions), len(plan.Backends)))
}

// Confirm asks about one action.
func (f *Form) Confirm(ctx context.Context, a reconcile.Action) (bool, error) {
	return f.confirm(ctx, fmt.Sprintf("%s %s?", verb(a.Kind), a.Package), "backend: "+string(a.Backend))
}

func (f *Form) confirm(ctx context.Context, title, description string) (bool, error) {
	ok := true
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	))

	if err := f.run(ctx, form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
			return false, apply.ErrInterrupted
		}
		return false, fmt.Errorf("failed to run confirmation form: %w", err)
	}
	return ok, nil
}
