package apply

import (
	"errors"
	"fmt"
	"time"

	"github.com/danieljhkim/pkgsync/internal/backend"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

var (
	// ErrInterrupted indicates the run was interrupted by the user.
	ErrInterrupted = errors.New("interrupted")

	// ErrPartialApply indicates at least one batch failed.
	ErrPartialApply = errors.New("some batches failed")
)

// Batch is one install or remove call against one backend.
type Batch struct {
	Backend  backend.ID     `json:"backend"`
	Kind     reconcile.Kind `json:"kind"`
	Packages []string       `json:"packages"`
}

// BatchFailure is a batch whose call returned an error.
type BatchFailure struct {
	Batch

	// Err is the adapter error
	Err error `json:"-"`

	// Message is Err rendered for JSON output
	Message string `json:"error"`

	// Failed lists the packages that did not converge and why
	Failed []backend.PackageFailure `json:"failed_packages"`
}

func newBatchFailure(b Batch, err error) BatchFailure {
	f := BatchFailure{Batch: b, Err: err, Message: err.Error()}

	var merr *backend.MutationError
	if errors.As(err, &merr) && len(merr.Packages) > 0 {
		f.Failed = merr.Packages
		return f
	}
	// No per-package detail: every package in the batch is suspect.
	for _, pkg := range b.Packages {
		f.Failed = append(f.Failed, backend.PackageFailure{Package: pkg, Reason: err.Error()})
	}
	return f
}

// SkippedBatch is a batch that was never issued.
type SkippedBatch struct {
	Batch
	Reason string `json:"reason"`
}

// Report is the outcome of one controller run.
type Report struct {
	State State `json:"state"`

	// Reason explains an Aborted state
	Reason string `json:"reason,omitempty"`

	Applied  []Batch        `json:"applied"`
	Failures []BatchFailure `json:"failures"`
	Skipped  []SkippedBatch `json:"skipped"`

	// Dropped are actions declined during review
	Dropped []reconcile.Action `json:"dropped"`

	// Converged are actions dropped because the re-query found them done
	Converged []reconcile.Action `json:"converged"`

	Interrupted bool `json:"interrupted"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func newReport(start time.Time) *Report {
	return &Report{
		State:     Computed,
		Applied:   []Batch{},
		Failures:  []BatchFailure{},
		Skipped:   []SkippedBatch{},
		Dropped:   []reconcile.Action{},
		Converged: []reconcile.Action{},
		StartedAt: start,
	}
}

// Succeeded reports whether the run finished with nothing failed or cut short.
func (r *Report) Succeeded() bool {
	return r.State == Done && len(r.Failures) == 0 && !r.Interrupted
}

// Err summarises the run as an error: ErrInterrupted, ErrPartialApply, or nil.
func (r *Report) Err() error {
	if r.Interrupted {
		return ErrInterrupted
	}
	if len(r.Failures) > 0 {
		total := len(r.Applied) + len(r.Failures) + len(r.Skipped)
		return fmt.Errorf("%w: %d of %d", ErrPartialApply, len(r.Failures), total)
	}
	return nil
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// AppliedCount returns the number of packages in successful batches.
func (r *Report) AppliedCount() int {
	n := 0
	for _, b := range r.Applied {
		n += len(b.Packages)
	}
	return n
}
