package domain

type TaskStatus string

const (
	TaskToDo           TaskStatus = "ToDo"
	TaskWorkInProgress TaskStatus = "WorkInProgress"
	TaskDone           TaskStatus = "Done"
	TaskClosed         TaskStatus = "Closed"
)

// CanonicalTaskStatuses lists the lifecycle states in transition order.
// "Done" is the pre-terminal awaiting-review state; "Closed" is terminal.
var CanonicalTaskStatuses = []TaskStatus{TaskToDo, TaskWorkInProgress, TaskDone, TaskClosed}

// IsTerminal reports whether the status ends the task lifecycle.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskClosed
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectClosed    ProjectStatus = "closed"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

type NotificationType string

const (
	NotifyTaskAssigned   NotificationType = "task_assigned"
	NotifyTaskUpdated    NotificationType = "task_updated"
	NotifyProjectUpdated NotificationType = "project_updated"
	NotifyBulletin       NotificationType = "bulletin"
	NotifyToDo           NotificationType = "todo"
)

type ReportType string

const (
	ReportUserPerformance ReportType = "user_performance"
	ReportTaskLifecycle   ReportType = "task_lifecycle"
	ReportProject         ReportType = "project"
	ReportCompanyWide     ReportType = "company_wide"
)

// ValidReportTypes is the canonical set of accepted report type strings.
var ValidReportTypes = map[ReportType]bool{
	ReportUserPerformance: true,
	ReportTaskLifecycle:   true,
	ReportProject:         true,
	ReportCompanyWide:     true,
}

type QueuedOpStatus string

const (
	OpPending    QueuedOpStatus = "pending"
	OpProcessing QueuedOpStatus = "processing"
	OpFailed     QueuedOpStatus = "failed"
)
