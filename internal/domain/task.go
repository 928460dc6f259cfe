package domain

import "time"

type Task struct {
	ID        string
	ProjectID string
	Title     string
	Status    TaskStatus
	Priority  TaskPriority

	// AssignedTo is the legacy single-owner column. Newer assignments live
	// in the task_assignments join table; both remain queryable and are
	// reconciled at read time.
	AssignedTo *string

	DueDate    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ArchivedAt *time.Time
	DeletedAt  *time.Time
}

// IsActive reports whether the task belongs in active views and reports.
// A non-null delete or archive timestamp excludes it unconditionally.
func (t *Task) IsActive() bool {
	return t.DeletedAt == nil && t.ArchivedAt == nil
}

// IsOverdue reports whether the task is past due and not terminal.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status.IsTerminal() {
		return false
	}
	return t.DueDate.Before(now)
}

// AgeDays returns the residency time between creation and last update in days.
func (t *Task) AgeDays() float64 {
	return t.UpdatedAt.Sub(t.CreatedAt).Hours() / 24
}

// Assignment links a task to a user through the join-table mechanism.
type Assignment struct {
	TaskID     string
	UserID     string
	AssignedAt time.Time
}
