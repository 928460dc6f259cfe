package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfallon/taskdesk/internal/cli/formatter"
)

func newQueueCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and control the offline write queue",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show queue health",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := app.Queue.Counts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.Out, formatter.FormatQueueCounts(counts))
			return nil
		},
	}

	retry := &cobra.Command{
		Use:   "retry [id]",
		Short: "Requeue failed operations (all, or one by ID)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := app.Queue.RetryFailed(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(app.Out, "requeued 1 operation")
				return nil
			}
			n, err := app.Queue.RetryAllFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "requeued %d operations\n", n)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Drop all failed operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Queue.ClearFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "cleared %d operations\n", n)
			return nil
		},
	}

	cmd.AddCommand(status, retry, clear)
	return cmd
}
