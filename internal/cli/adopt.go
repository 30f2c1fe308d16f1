package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/pkgsync/internal/engine"
)

var (
	adoptDryRun   bool
	adoptPackages []string
)

var adoptCmd = &cobra.Command{
	Use:   "adopt <group>",
	Short: "Add unmanaged packages to a group file",
	Long: `Append packages that are installed but not declared to a group file,
creating the group if it does not exist.

By default every unmanaged package of the selected backends is adopted.
Use --package with a single --backend to adopt specific packages.
Use --dry-run to print the change as a unified diff.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := eng.Adopt(ctx, &engine.AdoptRequest{
			Group:    args[0],
			Backends: backendIDs(),
			Packages: adoptPackages,
			DryRun:   adoptDryRun,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := outputJSON(res); err != nil {
				return err
			}
		} else {
			for _, q := range res.QueryErrors {
				PrintError(fmt.Sprintf("%s: query failed: %s", q.Backend, q.Error))
			}
			switch {
			case !res.Edit.Changed():
				PrintSuccess(fmt.Sprintf("Nothing to adopt into %s", args[0]))
			case adoptDryRun:
				_, _ = fmt.Fprint(stdout, res.Diff)
			default:
				verb := "Updated"
				if res.Created {
					verb = "Created"
				}
				PrintSuccess(fmt.Sprintf("%s group %s with %s", verb, args[0], PrintCount(res.Edit.Count(), "package", "packages")))
				PrintLabelValue("Path", res.Edit.Path)
			}
		}

		if len(res.QueryErrors) > 0 {
			return fmt.Errorf("%w: %d backend(s)", engine.ErrQueryFailed, len(res.QueryErrors))
		}
		return nil
	},
}

func init() {
	adoptCmd.Flags().BoolVar(&adoptDryRun, "dry-run", false, "Print the change without writing it")
	adoptCmd.Flags().StringArrayVarP(&adoptPackages, "package", "p", nil, "Adopt this package (repeatable, needs one --backend)")
}
