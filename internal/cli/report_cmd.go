package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfallon/taskdesk/internal/cli/formatter"
	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/report"
)

const dateFlagLayout = "2006-01-02"

func newReportCmd(app *App) *cobra.Command {
	var (
		reportType string
		callerID   string
		userID     string
		projectID  string
		from       string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate an aggregated report",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := report.Request{
				Type:        domain.ReportType(reportType),
				RequestedBy: callerID,
			}
			if userID != "" {
				req.UserID = &userID
			}
			if projectID != "" {
				req.ProjectID = &projectID
			}
			var err error
			if req.DateFrom, err = parseDateFlag(from); err != nil {
				return err
			}
			if req.DateTo, err = parseDateFlag(to); err != nil {
				return err
			}

			rep, err := app.Reports.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprint(app.Out, formatter.FormatReport(rep))
			return nil
		},
	}

	cmd.Flags().StringVar(&reportType, "type", "", "report type: user_performance, task_lifecycle, project, company_wide")
	cmd.Flags().StringVar(&callerID, "as", "", "user ID to run the report as")
	cmd.Flags().StringVar(&userID, "user", "", "subject user ID (user_performance)")
	cmd.Flags().StringVar(&projectID, "project", "", "project ID (project report, or filter)")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("as")

	return cmd
}

func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateFlagLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &t, nil
}
