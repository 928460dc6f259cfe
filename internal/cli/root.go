package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mfallon/taskdesk/internal/offline"
	"github.com/mfallon/taskdesk/internal/report"
	"github.com/mfallon/taskdesk/internal/server"
)

// App carries the wired services the commands run against.
type App struct {
	Reports report.Service
	Queue   *offline.Manager
	Server  *server.Server

	// Addr is the serve listen address.
	Addr string

	// Out receives command output. Tests substitute a buffer.
	Out io.Writer
}

// NewRootCmd builds the taskdesk command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskdesk",
		Short:         "Task and project management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(app),
		newReportCmd(app),
		newQueueCmd(app),
	)
	return root
}
