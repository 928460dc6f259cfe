package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTask_IsActive(t *testing.T) {
	now := time.Now().UTC()
	task := &Task{ID: "t1", Status: TaskToDo, CreatedAt: now, UpdatedAt: now}
	assert.True(t, task.IsActive())

	deleted := *task
	deleted.DeletedAt = &now
	assert.False(t, deleted.IsActive())

	archived := *task
	archived.ArchivedAt = &now
	assert.False(t, archived.IsActive())
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	overdue := &Task{Status: TaskWorkInProgress, DueDate: &yesterday}
	assert.True(t, overdue.IsOverdue(now))

	notDue := &Task{Status: TaskWorkInProgress, DueDate: &tomorrow}
	assert.False(t, notDue.IsOverdue(now))

	// Terminal tasks are never overdue regardless of due date.
	closed := &Task{Status: TaskClosed, DueDate: &yesterday}
	assert.False(t, closed.IsOverdue(now))

	noDue := &Task{Status: TaskToDo}
	assert.False(t, noDue.IsOverdue(now))
}

func TestTask_AgeDays(t *testing.T) {
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	updated := created.AddDate(0, 0, 3)
	task := &Task{CreatedAt: created, UpdatedAt: updated}
	assert.InDelta(t, 3.0, task.AgeDays(), 0.001)
}

func TestHasCapability(t *testing.T) {
	assert.True(t, HasCapability(RoleSuperAdmin, CapGenerateReports))
	assert.False(t, HasCapability(RoleManager, CapGenerateReports))
	assert.False(t, HasCapability(RoleEmployee, CapManageTasks))
	assert.False(t, HasCapability(RoleName("ghost"), CapViewOwnTasks))
}
