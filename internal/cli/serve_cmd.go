package cli

import (
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Periodic queue drains run for the lifetime of the server.
			go app.Queue.Run(cmd.Context())
			return app.Server.Run(app.Addr)
		},
	}
}
