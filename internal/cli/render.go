package cli

import (
	"fmt"
	"strings"

	"github.com/danieljhkim/pkgsync/internal/apply"
	"github.com/danieljhkim/pkgsync/internal/engine"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

// renderPlan prints warnings, query failures and the actions of a plan.
func renderPlan(res *engine.PlanResult) {
	plan := res.Plan
	for _, w := range plan.Warnings {
		PrintWarning(w.String())
	}
	for _, q := range res.QueryErrors {
		PrintError(fmt.Sprintf("%s: query failed: %s", q.Backend, q.Error))
	}

	if plan.Empty() {
		PrintSuccess("Nothing to do: installed packages match the groups")
		return
	}

	PrintSection("Plan")
	for _, id := range plan.Backends {
		install := plan.Packages(id, reconcile.Install)
		remove := plan.Packages(id, reconcile.Remove)
		if len(install) == 0 && len(remove) == 0 {
			continue
		}
		PrintSubsection(string(id))
		PrintActions("+", install, installColor)
		PrintActions("-", remove, removeColor)
	}
	PrintInfo("")
	PrintInfo(fmt.Sprintf("%s to install, %s to remove",
		PrintCount(plan.Count(reconcile.Install), "package", "packages"),
		PrintCount(plan.Count(reconcile.Remove), "package", "packages")))
}

// renderReport prints the outcome of an apply run.
func renderReport(report *apply.Report) {
	switch report.State {
	case apply.Aborted:
		if report.Interrupted {
			PrintWarning("Interrupted, nothing was changed")
			return
		}
		PrintInfo(fmt.Sprintf("Nothing applied (%s)", report.Reason))
		return
	}

	for _, b := range report.Applied {
		PrintSuccess(fmt.Sprintf("%s: %s %s", b.Backend, pastTense(b.Kind), strings.Join(b.Packages, " ")))
	}
	for _, f := range report.Failures {
		PrintError(fmt.Sprintf("%s: %s failed", f.Backend, f.Kind))
		for _, p := range f.Failed {
			PrintError(fmt.Sprintf("  %s: %s", p.Package, p.Reason))
		}
	}
	for _, s := range report.Skipped {
		PrintWarning(fmt.Sprintf("%s: skipped %s of %s (%s)", s.Backend, s.Kind, strings.Join(s.Packages, " "), s.Reason))
	}
	if len(report.Converged) > 0 {
		PrintInfo(fmt.Sprintf("%s already converged", PrintCount(len(report.Converged), "action", "actions")))
	}

	switch {
	case report.Interrupted:
		PrintWarning(fmt.Sprintf("Interrupted after %s", PrintCount(report.AppliedCount(), "package", "packages")))
	case len(report.Failures) > 0:
		PrintWarning(fmt.Sprintf("%s failed", PrintCount(len(report.Failures), "batch", "batches")))
	default:
		PrintSuccess(fmt.Sprintf("Done: %s changed", PrintCount(report.AppliedCount(), "package", "packages")))
	}
}

func pastTense(k reconcile.Kind) string {
	if k == reconcile.Install {
		return "installed"
	}
	return "removed"
}
