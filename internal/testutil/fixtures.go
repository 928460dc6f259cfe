package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mfallon/taskdesk/internal/domain"
)

var testEmailCounter atomic.Int64

// User options

type UserOption func(*domain.User)

func WithRole(roleID string) UserOption {
	return func(u *domain.User) {
		u.RoleID = roleID
	}
}

func WithEmailNotifications(enabled bool) UserOption {
	return func(u *domain.User) {
		u.EmailNotifications = enabled
	}
}

func WithInactive() UserOption {
	return func(u *domain.User) {
		u.IsActive = false
	}
}

func WithUserDeleted(at time.Time) UserOption {
	return func(u *domain.User) {
		u.DeletedAt = &at
	}
}

// NewTestUser builds an active employee-role user with email notifications on.
func NewTestUser(name string, opts ...UserOption) *domain.User {
	now := time.Now().UTC()
	slug := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	u := &domain.User{
		ID:                 uuid.New().String(),
		Email:              fmt.Sprintf("%s.%d@example.com", slug, testEmailCounter.Add(1)),
		FullName:           name,
		RoleID:             "role-employee",
		EmailNotifications: true,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Project options

type ProjectOption func(*domain.Project)

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func WithProjectArchived(at time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.ArchivedAt = &at
		p.Status = domain.ProjectArchived
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    domain.ProjectActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Task options

type TaskOption func(*domain.Task)

func WithStatus(s domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
	}
}

func WithPriority(p domain.TaskPriority) TaskOption {
	return func(t *domain.Task) {
		t.Priority = p
	}
}

func WithProject(projectID string) TaskOption {
	return func(t *domain.Task) {
		t.ProjectID = projectID
	}
}

func WithLegacyAssignee(userID string) TaskOption {
	return func(t *domain.Task) {
		t.AssignedTo = &userID
	}
}

func WithDueDate(d time.Time) TaskOption {
	return func(t *domain.Task) {
		t.DueDate = &d
	}
}

func WithCreatedAt(at time.Time) TaskOption {
	return func(t *domain.Task) {
		t.CreatedAt = at
	}
}

func WithUpdatedAt(at time.Time) TaskOption {
	return func(t *domain.Task) {
		t.UpdatedAt = at
	}
}

func WithArchivedAt(at time.Time) TaskOption {
	return func(t *domain.Task) {
		t.ArchivedAt = &at
	}
}

func WithDeletedAt(at time.Time) TaskOption {
	return func(t *domain.Task) {
		t.DeletedAt = &at
	}
}

func NewTestTask(title string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		ID:        uuid.New().String(),
		Title:     title,
		Status:    domain.TaskToDo,
		Priority:  domain.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTestNotification builds an unread task notification for the recipient.
func NewTestNotification(recipientID string, typ domain.NotificationType) *domain.Notification {
	return &domain.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Type:        typ,
		Title:       "Test notification",
		Message:     "Something happened",
		CreatedAt:   time.Now().UTC(),
	}
}
