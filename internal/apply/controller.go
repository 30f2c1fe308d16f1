package apply

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/clock"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

// Confirmer asks the operator to approve actions. Implementations return
// ErrInterrupted (or the context's error) when the operator interrupts.
type Confirmer interface {
	// ConfirmAll asks once for the whole plan.
	ConfirmAll(ctx context.Context, plan *reconcile.Plan) (bool, error)

	// Confirm asks about a single action.
	Confirm(ctx context.Context, action reconcile.Action) (bool, error)
}

// Options configures a controller.
type Options struct {
	// Review selects the confirmation mode.
	Review ReviewMode

	// Requery re-reads each affected backend after review and drops actions
	// that have already converged.
	Requery bool
}

// Controller reviews and applies one plan.
type Controller struct {
	reg     *backend.Registry
	confirm Confirmer
	clock   clock.Clock
	log     zerolog.Logger
	opts    Options
}

// New creates a Controller. confirmer may be nil when opts.Review is
// ReviewNone.
func New(reg *backend.Registry, confirmer Confirmer, clk clock.Clock, log zerolog.Logger, opts Options) *Controller {
	if opts.Review == "" {
		opts.Review = ReviewConfirmAll
	}
	return &Controller{
		reg:     reg,
		confirm: confirmer,
		clock:   clk,
		log:     log,
		opts:    opts,
	}
}

// Run reviews and applies plan. The returned error is non-nil only when
// review itself failed; apply failures and interrupts are in the report
// (see Report.Err).
func (c *Controller) Run(ctx context.Context, plan *reconcile.Plan) (*Report, error) {
	report := newReport(c.clock.Now())
	defer func() { report.FinishedAt = c.clock.Now() }()

	// A cancelled query phase leaves an empty plan behind.
	if ctx.Err() != nil {
		c.abort(report, "interrupted before review")
		report.Interrupted = true
		return report, nil
	}
	if plan.Empty() {
		report.State = Aborted
		report.Reason = "nothing to do"
		return report, nil
	}

	selected, err := c.review(ctx, plan, report)
	if err != nil {
		if isInterrupt(ctx, err) {
			c.abort(report, "interrupted during review")
			report.Interrupted = true
			return report, nil
		}
		c.abort(report, "review failed")
		return report, fmt.Errorf("failed to review plan: %w", err)
	}
	report.State = Reviewed

	if len(selected) == 0 {
		c.abort(report, "no actions confirmed")
		return report, nil
	}

	if c.opts.Requery {
		selected = c.requery(ctx, selected, report)
		if len(selected) == 0 {
			report.State = Done
			return report, nil
		}
	}

	if ctx.Err() != nil {
		c.abort(report, "interrupted before apply")
		report.Interrupted = true
		return report, nil
	}

	report.State = Applying
	c.applyBatches(ctx, Batches(selected), report)

	if report.Interrupted && len(report.Applied) == 0 && len(report.Failures) == 0 {
		report.State = Aborted
		report.Reason = "interrupted before the first batch"
		return report, nil
	}
	report.State = Done
	return report, nil
}

func (c *Controller) abort(report *Report, reason string) {
	report.State = Aborted
	report.Reason = reason
	c.log.Debug().Str("reason", reason).Msg("run aborted")
}

func (c *Controller) review(ctx context.Context, plan *reconcile.Plan, report *Report) ([]reconcile.Action, error) {
	switch c.opts.Review {
	case ReviewNone:
		return plan.Actions, nil

	case ReviewConfirmAll:
		if c.confirm == nil {
			return nil, errors.New("no confirmer configured")
		}
		ok, err := c.confirm.ConfirmAll(ctx, plan)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Dropped = append(report.Dropped, plan.Actions...)
			return nil, nil
		}
		return plan.Actions, nil

	case ReviewPerAction:
		if c.confirm == nil {
			return nil, errors.New("no confirmer configured")
		}
		var selected []reconcile.Action
		for _, a := range plan.Actions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ok, err := c.confirm.Confirm(ctx, a)
			if err != nil {
				return nil, err
			}
			if ok {
				selected = append(selected, a)
			} else {
				report.Dropped = append(report.Dropped, a)
			}
		}
		return selected, nil

	default:
		return nil, fmt.Errorf("%w %q", ErrInvalidReviewMode, c.opts.Review)
	}
}

// requery drops actions the live package database already satisfies.
// Backends that fail to answer keep all their actions.
func (c *Controller) requery(ctx context.Context, actions []reconcile.Action, report *Report) []reconcile.Action {
	var ids []backend.ID
	seen := make(map[backend.ID]bool)
	for _, a := range actions {
		if !seen[a.Backend] {
			seen[a.Backend] = true
			ids = append(ids, a.Backend)
		}
	}

	snap := reconcile.Query(ctx, c.reg, ids)
	for _, qerr := range snap.Errors {
		c.log.Warn().Str("backend", string(qerr.Backend)).Err(qerr.Err).Msg("re-query failed, keeping planned actions")
	}

	installed := make(map[backend.ID]map[string]bool)
	for id, pkgs := range snap.Installed {
		set := make(map[string]bool, len(pkgs))
		for _, p := range pkgs {
			set[p.ID] = true
		}
		installed[id] = set
	}

	kept := make([]reconcile.Action, 0, len(actions))
	for _, a := range actions {
		set, ok := installed[a.Backend]
		if !ok {
			kept = append(kept, a)
			continue
		}
		done := (a.Kind == reconcile.Install && set[a.Package]) ||
			(a.Kind == reconcile.Remove && !set[a.Package])
		if done {
			report.Converged = append(report.Converged, a)
			continue
		}
		kept = append(kept, a)
	}
	if n := len(report.Converged); n > 0 {
		c.log.Info().Int("count", n).Msg("dropped actions that already converged")
	}
	return kept
}

func (c *Controller) applyBatches(ctx context.Context, batches []Batch, report *Report) {
	installFailed := make(map[backend.ID]bool)

	for i, b := range batches {
		if ctx.Err() != nil {
			report.Interrupted = true
			for _, rest := range batches[i:] {
				report.Skipped = append(report.Skipped, SkippedBatch{Batch: rest, Reason: "interrupted"})
			}
			c.log.Warn().Int("skipped", len(batches)-i).Msg("interrupted, remaining batches skipped")
			return
		}

		if b.Kind == reconcile.Remove && installFailed[b.Backend] {
			report.Skipped = append(report.Skipped, SkippedBatch{Batch: b, Reason: "install batch failed on " + string(b.Backend)})
			c.log.Warn().Str("backend", string(b.Backend)).Msg("skipping removals after failed install")
			continue
		}

		// The batch runs to completion even if an interrupt arrives mid-call.
		if err := c.issue(context.WithoutCancel(ctx), b); err != nil {
			report.Failures = append(report.Failures, newBatchFailure(b, err))
			if b.Kind == reconcile.Install {
				installFailed[b.Backend] = true
			}
			c.log.Error().
				Str("backend", string(b.Backend)).
				Str("kind", b.Kind.String()).
				Strs("packages", b.Packages).
				Err(err).
				Msg("batch failed")
			continue
		}

		report.Applied = append(report.Applied, b)
		c.log.Info().
			Str("backend", string(b.Backend)).
			Str("kind", b.Kind.String()).
			Int("count", len(b.Packages)).
			Msg("batch applied")
	}
}

func (c *Controller) issue(ctx context.Context, b Batch) error {
	adapter, ok := c.reg.Get(b.Backend)
	if !ok {
		return fmt.Errorf("%w: %s", backend.ErrUnknownBackend, b.Backend)
	}
	switch b.Kind {
	case reconcile.Install:
		return adapter.Install(ctx, b.Packages)
	case reconcile.Remove:
		return adapter.Remove(ctx, b.Packages)
	default:
		return fmt.Errorf("unsupported action kind %s", b.Kind)
	}
}

// Batches groups actions by (backend, kind): backends in sorted order, the
// install batch before the remove batch, packages in action order.
func Batches(actions []reconcile.Action) []Batch {
	type key struct {
		id   backend.ID
		kind reconcile.Kind
	}
	byKey := make(map[key][]string)
	var ids []backend.ID
	seen := make(map[backend.ID]bool)
	for _, a := range actions {
		k := key{a.Backend, a.Kind}
		byKey[k] = append(byKey[k], a.Package)
		if !seen[a.Backend] {
			seen[a.Backend] = true
			ids = append(ids, a.Backend)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []Batch
	for _, id := range ids {
		for _, kind := range []reconcile.Kind{reconcile.Install, reconcile.Remove} {
			if pkgs := byKey[key{id, kind}]; len(pkgs) > 0 {
				out = append(out, Batch{Backend: id, Kind: kind, Packages: pkgs})
			}
		}
	}
	return out
}

func isInterrupt(ctx context.Context, err error) bool {
	return errors.Is(err, ErrInterrupted) ||
		errors.Is(err, context.Canceled) ||
		ctx.Err() != nil
}
