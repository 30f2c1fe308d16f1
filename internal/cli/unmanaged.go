package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/pkgsync/internal/engine"
)

var unmanagedCmd = &cobra.Command{
	Use:   "unmanaged",
	Short: "List explicitly installed packages no group declares",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := eng.Unmanaged(ctx, &engine.UnmanagedRequest{Backends: backendIDs()})
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
			if res.Total() == 0 {
				PrintSuccess("Every explicitly installed package is declared")
			}
			for _, b := range res.Backends {
				PrintSection(fmt.Sprintf("%s (%d)", b.Backend, len(b.Packages)))
				PrintList(b.Packages, 1)
			}
		}

		if len(res.QueryErrors) > 0 {
			return fmt.Errorf("%w: %d backend(s)", engine.ErrQueryFailed, len(res.QueryErrors))
		}
		return nil
	},
}
