package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/pkgsync/internal/apply"
	"github.com/danieljhkim/pkgsync/internal/engine"
	"github.com/danieljhkim/pkgsync/internal/reconcile"
)

var syncNoRemove bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Install missing and remove undeclared packages",
	Long: `Compare the groups with the installed packages of every active backend,
show the plan, and apply it after review.

Use --no-remove to only install missing packages.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := reconcile.ScopeAll
		if syncNoRemove {
			scope = reconcile.ScopeInstall
		}
		return runReconcile(cmd, scope)
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove packages no group declares",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd, reconcile.ScopeRemove)
	},
}

var reviewCmd = &cobra.Command{
	Use:     "review",
	Aliases: []string{"diff", "plan"},
	Short:   "Show what sync would change without changing anything",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := eng.Plan(ctx, &engine.PlanRequest{Backends: backendIDs()})
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := outputJSON(res); err != nil {
				return err
			}
		} else {
			renderPlan(res)
		}
		return engine.QueryError(res.Plan)
	},
}

// syncOutput is the JSON form of a sync or clean run.
type syncOutput struct {
	*engine.PlanResult
	Report *apply.Report `json:"report"`
}

func runReconcile(cmd *cobra.Command, scope reconcile.Scope) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := eng.Plan(ctx, &engine.PlanRequest{Backends: backendIDs(), Scope: scope})
	if err != nil {
		return err
	}
	if !jsonOutput {
		renderPlan(res)
	}

	mode, err := reviewMode()
	if err != nil {
		return err
	}
	report, err := eng.Apply(ctx, &engine.ApplyRequest{Plan: res.Plan, Review: mode})
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := outputJSON(syncOutput{PlanResult: res, Report: report}); err != nil {
			return err
		}
	} else if !res.Plan.Empty() {
		renderReport(report)
	}

	if err := report.Err(); err != nil {
		return err
	}
	return engine.QueryError(res.Plan)
}

func init() {
	syncCmd.Flags().BoolVar(&syncNoRemove, "no-remove", false, "Only install missing packages")
}
