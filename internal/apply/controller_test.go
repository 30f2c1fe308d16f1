package apply

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/clock"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

var known = []backend.ID{"apt", "flatpak", "pacman"}

type fakeConfirmer struct {
	all       bool
	allErr    error
	decline   map[string]bool
	actionErr error
	asked     []reconcile.Action
}

func (f *fakeConfirmer) ConfirmAll(ctx context.Context, plan *reconcile.Plan) (bool, error) {
	return f.all, f.allErr
}

func (f *fakeConfirmer) Confirm(ctx context.Context, a reconcile.Action) (bool, error) {
	f.asked = append(f.asked, a)
	if f.actionErr != nil {
		return false, f.actionErr
	}
	return !f.decline[a.Package], nil
}

// hookBackend runs a hook before delegating Install to Memory.
type hookBackend struct {
	*backend.Memory
	beforeInstall func(ctx context.Context)
	sawCancelled  bool
}

func (h *hookBackend) Install(ctx context.Context, pkgs []string) error {
	if h.beforeInstall != nil {
		h.beforeInstall(ctx)
	}
	h.sawCancelled = ctx.Err() != nil
	return h.Memory.Install(ctx, pkgs)
}

func act(kind reconcile.Kind, id backend.ID, pkg string) reconcile.Action {
	return reconcile.Action{Kind: kind, Backend: id, Package: pkg}
}

func planOf(actions ...reconcile.Action) *reconcile.Plan {
	p := reconcile.NewPlan()
	p.Actions = actions
	return p
}

func newController(t *testing.T, confirmer Confirmer, opts Options, backends ...backend.Backend) *Controller {
	t.Helper()
	reg, err := backend.NewRegistry(known, backends...)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	clk.SetStep(time.Second)
	return New(reg, confirmer, clk, zerolog.Nop(), opts)
}

func TestRun_EmptyPlan(t *testing.T) {
	pacman := backend.NewMemory("pacman")
	c := newController(t, &fakeConfirmer{all: true}, Options{Review: ReviewConfirmAll}, pacman)

	report, err := c.Run(context.Background(), reconcile.NewPlan())
	require.NoError(t, err)

	assert.Equal(t, Aborted, report.State)
	assert.Equal(t, "nothing to do", report.Reason)
	assert.Empty(t, pacman.Calls())
	assert.NoError(t, report.Err())
}

func TestRun_NoReviewAppliesBatchesInOrder(t *testing.T) {
	apt := backend.NewMemory("apt", backend.InstalledPackage{ID: "nano"})
	pacman := backend.NewMemory("pacman", backend.InstalledPackage{ID: "curl"})
	c := newController(t, nil, Options{Review: ReviewNone}, apt, pacman)

	plan := planOf(
		act(reconcile.Install, "apt", "htop"),
		act(reconcile.Remove, "apt", "nano"),
		act(reconcile.Install, "pacman", "git"),
		act(reconcile.Install, "pacman", "vim"),
		act(reconcile.Remove, "pacman", "curl"),
	)

	report, err := c.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, Done, report.State)
	assert.True(t, report.Succeeded())
	assert.Equal(t, []Batch{
		{Backend: "apt", Kind: reconcile.Install, Packages: []string{"htop"}},
		{Backend: "apt", Kind: reconcile.Remove, Packages: []string{"nano"}},
		{Backend: "pacman", Kind: reconcile.Install, Packages: []string{"git", "vim"}},
		{Backend: "pacman", Kind: reconcile.Remove, Packages: []string{"curl"}},
	}, report.Applied)
	assert.Equal(t, 5, report.AppliedCount())

	assert.Equal(t, []backend.Call{
		{Op: backend.OpInstall, Packages: []string{"git", "vim"}},
		{Op: backend.OpRemove, Packages: []string{"curl"}},
	}, pacman.Calls())
	assert.Equal(t, time.Second, report.Duration())
}

func TestRun_ConfirmAllDeclined(t *testing.T) {
	pacman := backend.NewMemory("pacman")
	c := newController(t, &fakeConfirmer{all: false}, Options{Review: ReviewConfirmAll}, pacman)
	plan := planOf(act(reconcile.Install, "pacman", "git"))

	report, err := c.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, Aborted, report.State)
	assert.Equal(t, plan.Actions, report.Dropped)
	assert.Empty(t, pacman.Calls())
	assert.NoError(t, report.Err())
}

func TestRun_PerActionDropsDeclined(t *testing.T) {
	pacman := backend.NewMemory("pacman", backend.InstalledPackage{ID: "curl"}, backend.InstalledPackage{ID: "nano"})
	confirmer := &fakeConfirmer{decline: map[string]bool{"vim": true, "curl": true}}
	c := newController(t, confirmer, Options{Review: ReviewPerAction}, pacman)

	plan := planOf(
		act(reconcile.Install, "pacman", "git"),
		act(reconcile.Install, "pacman", "vim"),
		act(reconcile.Remove, "pacman", "curl"),
		act(reconcile.Remove, "pacman", "nano"),
	)

	report, err := c.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Len(t, confirmer.asked, 4)
	assert.Equal(t, Done, report.State)
	assert.Equal(t, []reconcile.Action{
		act(reconcile.Install, "pacman", "vim"),
		act(reconcile.Remove, "pacman", "curl"),
	}, report.Dropped)
	assert.Equal(t, []backend.Call{
		{Op: backend.OpInstall, Packages: []string{"git"}},
		{Op: backend.OpRemove, Packages: []string{"nano"}},
	}, pacman.Calls())
}

func TestRun_PerActionAllDeclined(t *testing.T) {
	pacman := backend.NewMemory("pacman")
	confirmer := &fakeConfirmer{decline: map[string]bool{"git": true}}
	c := newController(t, confirmer, Options{Review: ReviewPerAction}, pacman)

	report, err := c.Run(context.Background(), planOf(act(reconcile.Install, "pacman", "git")))
	require.NoError(t, err)

	assert.Equal(t, Aborted, report.State)
	assert.Equal(t, "no actions confirmed", report.Reason)
	assert.Empty(t, pacman.Calls())
}

func TestRun_FailureIsolation(t *testing.T) {
	apt := backend.NewMemory("apt", backend.InstalledPackage{ID: "nano"})
	apt.FailPackage(backend.OpInstall, "htop", "unable to locate package htop")
	flatpak := backend.NewMemory("flatpak")
	pacman := backend.NewMemory("pacman")
	c := newController(t, nil, Options{Review: ReviewNone}, apt, flatpak, pacman)

	plan := planOf(
		act(reconcile.Install, "apt", "htop"),
		act(reconcile.Install, "apt", "tmux"),
		act(reconcile.Remove, "apt", "nano"),
		act(reconcile.Install, "flatpak", "org.gimp.GIMP"),
		act(reconcile.Install, "pacman", "git"),
	)

	report, err := c.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, Done, report.State)
	assert.False(t, report.Succeeded())
	assert.ErrorIs(t, report.Err(), ErrPartialApply)

	require.Len(t, report.Failures, 1)
	failure := report.Failures[0]
	assert.Equal(t, backend.ID("apt"), failure.Backend)
	assert.Equal(t, reconcile.Install, failure.Kind)
	assert.Equal(t, []backend.PackageFailure{{Package: "htop", Reason: "unable to locate package htop"}}, failure.Failed)
	assert.NotEmpty(t, failure.Message)

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, reconcile.Remove, report.Skipped[0].Kind)
	assert.Contains(t, report.Skipped[0].Reason, "install batch failed")

	assert.Len(t, report.Applied, 2)
	assert.Equal(t, []backend.Call{{Op: backend.OpInstall, Packages: []string{"htop", "tmux"}}}, apt.Calls())
	assert.Len(t, pacman.Calls(), 1)
	assert.Len(t, flatpak.Calls(), 1)
}

type failingBackend struct {
	*backend.Memory
}

func (f *failingBackend) Remove(ctx context.Context, pkgs []string) error {
	return errors.New("exit status 1")
}

func TestRun_FailureWithoutPackageDetail(t *testing.T) {
	pacman := &failingBackend{Memory: backend.NewMemory("pacman")}
	c := newController(t, nil, Options{Review: ReviewNone}, pacman)

	report, err := c.Run(context.Background(), planOf(
		act(reconcile.Remove, "pacman", "a"),
		act(reconcile.Remove, "pacman", "b"),
	))
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, []backend.PackageFailure{
		{Package: "a", Reason: "exit status 1"},
		{Package: "b", Reason: "exit status 1"},
	}, report.Failures[0].Failed)
}

func TestRun_InterruptDuringReview(t *testing.T) {
	pacman := backend.NewMemory("pacman")
	confirmer := &fakeConfirmer{allErr: ErrInterrupted}
	c := newController(t, confirmer, Options{Review: ReviewConfirmAll}, pacman)

	report, err := c.Run(context.Background(), planOf(act(reconcile.Install, "pacman", "git")))
	require.NoError(t, err)

	assert.Equal(t, Aborted, report.State)
	assert.True(t, report.Interrupted)
	assert.ErrorIs(t, report.Err(), ErrInterrupted)
	assert.Empty(t, pacman.Calls())
}

func TestRun_ReviewError(t *testing.T) {
	confirmer := &fakeConfirmer{actionErr: errors.New("tty closed")}
	c := newController(t, confirmer, Options{Review: ReviewPerAction}, backend.NewMemory("pacman"))

	report, err := c.Run(context.Background(), planOf(act(reconcile.Install, "pacman", "git")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tty closed")
	assert.Equal(t, Aborted, report.State)
}

func TestRun_CancelledBeforeReview(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pacman := backend.NewMemory("pacman")
	c := newController(t, nil, Options{Review: ReviewNone}, pacman)

	report, err := c.Run(ctx, planOf(act(reconcile.Install, "pacman", "git")))
	require.NoError(t, err)

	assert.Equal(t, Aborted, report.State)
	assert.True(t, report.Interrupted)
	assert.Empty(t, pacman.Calls())
}

func TestRun_CancelledQueryLeavesEmptyPlan(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan := reconcile.NewPlan()
	plan.QueryErrors = []*backend.QueryError{{Backend: "pacman", Err: context.Canceled}}
	c := newController(t, nil, Options{Review: ReviewNone}, backend.NewMemory("pacman"))

	report, err := c.Run(ctx, plan)
	require.NoError(t, err)

	assert.Equal(t, Aborted, report.State)
	assert.Equal(t, "interrupted before review", report.Reason)
	assert.True(t, report.Interrupted)
	assert.ErrorIs(t, report.Err(), ErrInterrupted)
}

func TestRun_InterruptDuringApplyFinishesInFlightBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apt := &hookBackend{Memory: backend.NewMemory("apt")}
	apt.beforeInstall = func(context.Context) { cancel() }
	pacman := backend.NewMemory("pacman")
	c := newController(t, nil, Options{Review: ReviewNone}, apt, pacman)

	report, err := c.Run(ctx, planOf(
		act(reconcile.Install, "apt", "htop"),
		act(reconcile.Install, "pacman", "git"),
	))
	require.NoError(t, err)

	assert.False(t, apt.sawCancelled, "in-flight batch must not see the cancellation")
	assert.Equal(t, Done, report.State)
	assert.True(t, report.Interrupted)
	assert.Len(t, report.Applied, 1)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, backend.ID("pacman"), report.Skipped[0].Backend)
	assert.Empty(t, pacman.Calls())
	assert.ErrorIs(t, report.Err(), ErrInterrupted)
}

func TestRun_RequeryDropsConvergedActions(t *testing.T) {
	pacman := backend.NewMemory("pacman", backend.InstalledPackage{ID: "git"})
	c := newController(t, &fakeConfirmer{all: true}, Options{Review: ReviewConfirmAll, Requery: true}, pacman)

	// git was installed and curl removed between planning and apply.
	report, err := c.Run(context.Background(), planOf(
		act(reconcile.Install, "pacman", "git"),
		act(reconcile.Install, "pacman", "vim"),
		act(reconcile.Remove, "pacman", "curl"),
	))
	require.NoError(t, err)

	assert.Equal(t, Done, report.State)
	assert.Equal(t, []reconcile.Action{
		act(reconcile.Install, "pacman", "git"),
		act(reconcile.Remove, "pacman", "curl"),
	}, report.Converged)
	assert.Equal(t, []backend.Call{{Op: backend.OpInstall, Packages: []string{"vim"}}}, pacman.Calls())
}

func TestRun_RequeryFailureKeepsActions(t *testing.T) {
	pacman := backend.NewMemory("pacman")
	pacman.FailQuery(errors.New("db locked"))
	c := newController(t, nil, Options{Review: ReviewNone, Requery: true}, pacman)

	report, err := c.Run(context.Background(), planOf(act(reconcile.Install, "pacman", "git")))
	require.NoError(t, err)

	assert.Empty(t, report.Converged)
	assert.Len(t, report.Applied, 1)
}

func TestBatches(t *testing.T) {
	batches := Batches([]reconcile.Action{
		act(reconcile.Remove, "pacman", "curl"),
		act(reconcile.Install, "pacman", "git"),
		act(reconcile.Install, "apt", "htop"),
	})

	assert.Equal(t, []Batch{
		{Backend: "apt", Kind: reconcile.Install, Packages: []string{"htop"}},
		{Backend: "pacman", Kind: reconcile.Install, Packages: []string{"git"}},
		{Backend: "pacman", Kind: reconcile.Remove, Packages: []string{"curl"}},
	}, batches)
	assert.Empty(t, Batches(nil))
}

func TestParseReviewMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ReviewMode
		wantErr bool
	}{
		{in: "none", want: ReviewNone},
		{in: "per-action", want: ReviewPerAction},
		{in: "CONFIRM_ALL", want: ReviewConfirmAll},
		{in: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseReviewMode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidReviewMode)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
