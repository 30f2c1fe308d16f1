package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/pkgsync/internal/apply"
	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

// Plan loads the groups, queries the selected backends and computes the
// actions that converge them. A group parse error aborts before any backend
// is queried. Backend query failures are reported in the result, not as an
// error, unless ctx was cancelled while querying.
func (e *Engine) Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error) {
	store, err := e.loadStore()
	if err != nil {
		return nil, err
	}

	reg, err := e.selectRegistry(req.Backends)
	if err != nil {
		return nil, err
	}
	if len(reg.Active()) == 0 && len(store.Declared()) > 0 {
		e.log.Warn().Msg("no backend is active; nothing will be reconciled")
	}

	plan := reconcile.Run(ctx, store, reg, reconcile.Options{
		Backends: req.Backends,
		Scope:    req.Scope,
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apply.ErrInterrupted, err)
	}

	for _, w := range plan.Warnings {
		e.log.Warn().
			Str("backend", string(w.Backend)).
			Strs("groups", w.Groups).
			Int("packages", len(w.Packages)).
			Msg("packages declared for an inactive backend")
	}
	for _, qerr := range plan.QueryErrors {
		e.log.Error().Str("backend", string(qerr.Backend)).Err(qerr.Err).Msg("backend query failed")
	}
	for _, id := range plan.Backends {
		e.log.Debug().
			Str("backend", string(id)).
			Int("missing", len(plan.Missing(id))).
			Int("unmanaged", len(plan.Unmanaged(id))).
			Msg("backend diff")
	}
	e.log.Debug().
		Int("install", plan.Count(reconcile.Install)).
		Int("remove", plan.Count(reconcile.Remove)).
		Msg("plan computed")

	return &PlanResult{
		Plan:        plan,
		Groups:      len(store.Groups()),
		QueryErrors: queryFailures(plan.QueryErrors),
	}, nil
}

// Apply reviews and applies a plan. Failed batches and interrupts are
// reported through the returned report; see apply.Report.Err.
func (e *Engine) Apply(ctx context.Context, req *ApplyRequest) (*apply.Report, error) {
	mode := req.Review
	if mode == "" {
		mode = e.cfg.ReviewMode()
	}

	ctrl := apply.New(e.reg, e.confirm, e.clock, e.log, apply.Options{
		Review:  mode,
		Requery: e.cfg.Requery,
	})
	report, err := ctrl.Run(ctx, req.Plan)
	if err != nil {
		return report, err
	}

	e.log.Debug().
		Str("state", report.State.String()).
		Int("applied", len(report.Applied)).
		Int("failed", len(report.Failures)).
		Int("skipped", len(report.Skipped)).
		Dur("took", report.Duration()).
		Msg("apply finished")
	return report, nil
}

// Unmanaged lists explicit packages that no group declares.
func (e *Engine) Unmanaged(ctx context.Context, req *UnmanagedRequest) (*UnmanagedResult, error) {
	res, err := e.Plan(ctx, &PlanRequest{Backends: req.Backends, Scope: reconcile.ScopeRemove})
	if err != nil {
		return nil, err
	}

	out := &UnmanagedResult{
		Backends:    []BackendPackages{},
		QueryErrors: res.QueryErrors,
	}
	for _, id := range res.Plan.Backends {
		pkgs := res.Plan.Unmanaged(id)
		if len(pkgs) == 0 {
			continue
		}
		out.Backends = append(out.Backends, BackendPackages{Backend: id, Packages: pkgs})
	}
	return out, nil
}

// QueryError turns a plan's query failures into a single error wrapping
// ErrQueryFailed, or nil.
func QueryError(plan *reconcile.Plan) error {
	if !plan.HasQueryErrors() {
		return nil
	}
	ids := make([]backend.ID, 0, len(plan.QueryErrors))
	for _, q := range plan.QueryErrors {
		ids = append(ids, q.Backend)
	}
	return fmt.Errorf("%w: %v", ErrQueryFailed, ids)
}

func queryFailures(errs []*backend.QueryError) []QueryFailure {
	out := make([]QueryFailure, 0, len(errs))
	for _, q := range errs {
		out = append(out, QueryFailure{Backend: q.Backend, Error: q.Err.Error()})
	}
	return out
}
