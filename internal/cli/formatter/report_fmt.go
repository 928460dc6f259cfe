package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mfallon/taskdesk/internal/report"
)

// FormatReport renders a generated report as a styled terminal dashboard.
func FormatReport(rep *report.Report) string {
	var b strings.Builder
	b.WriteString(Header(rep.Title))
	b.WriteString("\n")
	b.WriteString(Dim(fmt.Sprintf("generated by %s at %s", rep.GeneratedBy, rep.GeneratedAt.Format(time.RFC3339))))
	b.WriteString("\n\n")

	switch content := rep.Content.(type) {
	case *report.UserPerformanceContent:
		formatUserPerformance(&b, content)
	case *report.TaskLifecycleContent:
		formatTaskLifecycle(&b, content)
	case *report.ProjectContent:
		formatProject(&b, content)
	case *report.CompanyWideContent:
		formatCompanyWide(&b, content)
	default:
		b.WriteString(Dim("(no renderer for this report type)"))
		b.WriteString("\n")
	}
	return b.String()
}

func formatUserPerformance(b *strings.Builder, c *report.UserPerformanceContent) {
	rows := [][]string{
		{"User", Bold(c.UserName)},
		{"Total tasks", fmt.Sprintf("%d", c.TotalTasks)},
		{"Completed", fmt.Sprintf("%d", c.CompletedTasks)},
		{"In progress", fmt.Sprintf("%d", c.InProgressTasks)},
		{"To do", fmt.Sprintf("%d", c.TodoTasks)},
		{"Completion rate", fmt.Sprintf("%.1f%%", c.CompletionRate)},
		{"Overdue", QueueCount(c.OverdueTasks)},
	}
	b.WriteString(RenderTable([]string{"METRIC", "VALUE"}, rows))

	if len(c.ByPriority) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"PRIORITY", "TASKS"}, sortedCountRows(c.ByPriority)))
	}
}

func formatTaskLifecycle(b *strings.Builder, c *report.TaskLifecycleContent) {
	var rows [][]string
	for _, status := range sortedKeys(c.StatusHistogram) {
		avg := Dim("--")
		if v, ok := c.AvgDaysInStatus[status]; ok {
			avg = fmt.Sprintf("%.1f", v)
		}
		rows = append(rows, []string{
			StatusPill(status),
			fmt.Sprintf("%d", c.StatusHistogram[status]),
			avg,
		})
	}
	b.WriteString(RenderTable([]string{"STATUS", "TASKS", "AVG DAYS"}, rows))
	b.WriteString("\n")
	fmt.Fprintf(b, "%s %d\n", Bold("Bottlenecks:"), c.Bottlenecks)
	fmt.Fprintf(b, "%s %d\n", Bold("Reopened:"), c.ReopenedCount)
}

func formatProject(b *strings.Builder, c *report.ProjectContent) {
	fmt.Fprintf(b, "%s %s (%s)\n\n", Bold("Project:"), c.ProjectName, Dim(c.ProjectStatus))

	var rows [][]string
	for _, status := range sortedKeys(c.StatusHistogram) {
		rows = append(rows, []string{StatusPill(status), fmt.Sprintf("%d", c.StatusHistogram[status])})
	}
	b.WriteString(RenderTable([]string{"STATUS", "TASKS"}, rows))
	b.WriteString("\n")
	fmt.Fprintf(b, "%s %.1f%%\n", Bold("Completion:"), c.CompletionRate)
	fmt.Fprintf(b, "%s %s\n", Bold("Overdue:"), QueueCount(c.OverdueTasks))

	if len(c.WorkloadByAssignee) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"ASSIGNEE", "TASKS"}, sortedCountRows(c.WorkloadByAssignee)))
	}
}

func formatCompanyWide(b *strings.Builder, c *report.CompanyWideContent) {
	rows := [][]string{
		{"Active users", fmt.Sprintf("%d", c.ActiveUsers)},
		{"Projects", fmt.Sprintf("%d", c.TotalProjects)},
		{"Overdue tasks", QueueCount(c.OverdueTasks)},
		{"Pending review", fmt.Sprintf("%d", c.PendingReview)},
	}
	b.WriteString(RenderTable([]string{"METRIC", "VALUE"}, rows))

	if len(c.TopUsers) > 0 {
		b.WriteString("\n")
		userRows := make([][]string, 0, len(c.TopUsers))
		for _, u := range c.TopUsers {
			userRows = append(userRows, []string{u.UserID, fmt.Sprintf("%d", u.TaskCount)})
		}
		b.WriteString(RenderTable([]string{"TOP USERS", "TASKS"}, userRows))
	}
	if len(c.TopProjects) > 0 {
		b.WriteString("\n")
		projRows := make([][]string, 0, len(c.TopProjects))
		for _, p := range c.TopProjects {
			projRows = append(projRows, []string{p.ProjectID, fmt.Sprintf("%d", p.TaskCount)})
		}
		b.WriteString(RenderTable([]string{"TOP PROJECTS", "TASKS"}, projRows))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCountRows(m map[string]int) [][]string {
	rows := make([][]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		rows = append(rows, []string{k, fmt.Sprintf("%d", m[k])})
	}
	return rows
}
