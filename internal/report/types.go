package report

import (
	"time"

	"github.com/mfallon/taskdesk/internal/domain"
)

// Request describes one report invocation.
type Request struct {
	Type      domain.ReportType `json:"reportType"`
	UserID    *string           `json:"userId,omitempty"`
	ProjectID *string           `json:"projectId,omitempty"`
	DateFrom  *time.Time        `json:"dateFrom,omitempty"`
	DateTo    *time.Time        `json:"dateTo,omitempty"`

	// RequestedBy is the authenticated caller's user ID; it drives the
	// role check and the audit record.
	RequestedBy string `json:"-"`

	// Now overrides the clock for deterministic tests.
	Now *time.Time `json:"-"`
}

// Report is the assembled payload returned to the caller.
type Report struct {
	Title       string      `json:"title"`
	GeneratedBy string      `json:"generatedBy"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Content     interface{} `json:"content"`
}

// UserPerformanceContent aggregates one user's reconciled task set.
type UserPerformanceContent struct {
	UserID          string         `json:"userId"`
	UserName        string         `json:"userName"`
	TotalTasks      int            `json:"totalTasks"`
	CompletedTasks  int            `json:"completedTasks"`
	InProgressTasks int            `json:"inProgressTasks"`
	TodoTasks       int            `json:"todoTasks"`
	CompletionRate  float64        `json:"completionRate"`
	OverdueTasks    int            `json:"overdueTasks"`
	ByPriority      map[string]int `json:"byPriority"`
	ByProject       map[string]int `json:"byProject"`
}

// TaskLifecycleContent describes lifecycle health across active tasks.
type TaskLifecycleContent struct {
	TotalTasks      int                `json:"totalTasks"`
	StatusHistogram map[string]int     `json:"statusHistogram"`
	AvgDaysInStatus map[string]float64 `json:"avgDaysInStatus"`
	ReopenedCount   int                `json:"reopenedCount"`
	Bottlenecks     int                `json:"bottlenecks"`
}

// ProjectContent aggregates a single project's task volume and workload.
type ProjectContent struct {
	ProjectID          string         `json:"projectId"`
	ProjectName        string         `json:"projectName"`
	ProjectStatus      string         `json:"projectStatus"`
	TotalTasks         int            `json:"totalTasks"`
	StatusHistogram    map[string]int `json:"statusHistogram"`
	CompletionRate     float64        `json:"completionRate"`
	OverdueTasks       int            `json:"overdueTasks"`
	WorkloadByAssignee map[string]int `json:"workloadByAssignee"`
}

// UserActivity is one row of the company-wide most-active ranking.
type UserActivity struct {
	UserID    string `json:"userId"`
	TaskCount int    `json:"taskCount"`
}

// ProjectActivity is one row of the company-wide project-volume ranking.
type ProjectActivity struct {
	ProjectID string `json:"projectId"`
	TaskCount int    `json:"taskCount"`
}

// CompanyWideContent is the organization-level rollup.
type CompanyWideContent struct {
	ActiveUsers     int               `json:"activeUsers"`
	TotalProjects   int               `json:"totalProjects"`
	StatusHistogram map[string]int    `json:"statusHistogram"`
	TopUsers        []UserActivity    `json:"topUsers"`
	TopProjects     []ProjectActivity `json:"topProjects"`
	OverdueTasks    int               `json:"overdueTasks"`
	PendingReview   int               `json:"pendingReview"`
}
