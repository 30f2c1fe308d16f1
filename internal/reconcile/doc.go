// Package reconcile computes the actions that converge each backend on the
// desired state.
//
// Reconciliation is a pure function of the desired state and an installed
// snapshot per backend. Snapshots are taken concurrently by Query; a backend
// whose query fails is left out of the plan and reported, while every other
// backend is still planned in full.
//
// Key responsibilities:
//   - Diff one backend: install = desired - installed, remove = explicit - desired
//   - Emit actions in a stable order (backends sorted, installs then removes)
//   - Report declared packages for backends without an active adapter
//   - Record query failures without blocking other backends
package reconcile
