package repository

import (
	"context"
	"time"

	"github.com/mfallon/taskdesk/internal/domain"
)

// TaskFilter narrows task fetches by project and creation window. A nil
// field means "no constraint". Soft-deleted and archived tasks are excluded
// by every query regardless of the filter.
type TaskFilter struct {
	ProjectID *string
	DateFrom  *time.Time
	DateTo    *time.Time
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	Archive(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error

	// ListActive returns all active tasks matching the filter.
	ListActive(ctx context.Context, f TaskFilter) ([]*domain.Task, error)

	// ListAssignedViaJoin returns active tasks assigned to the user through
	// the task_assignments join table.
	ListAssignedViaJoin(ctx context.Context, userID string, f TaskFilter) ([]*domain.Task, error)

	// ListAssignedLegacy returns active tasks whose legacy assigned_to
	// column references the user.
	ListAssignedLegacy(ctx context.Context, userID string, f TaskFilter) ([]*domain.Task, error)

	// CountReopened counts tasks that still carry an archive timestamp but
	// were moved back to a non-terminal status. Such rows are invisible to
	// the active listings.
	CountReopened(ctx context.Context, f TaskFilter) (int, error)
}

type AssignmentRepo interface {
	Assign(ctx context.Context, taskID, userID string) error
	Unassign(ctx context.Context, taskID, userID string) error
	ListByTask(ctx context.Context, taskID string) ([]domain.Assignment, error)

	// ListAll returns every assignment ordered by assignment time. Used by
	// company-wide aggregation to count per-user workload.
	ListAll(ctx context.Context) ([]domain.Assignment, error)
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error
}

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	CountActive(ctx context.Context) (int, error)
}

type RoleRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
}

type NotificationRepo interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// ReportLogEntry is one audit record for a report invocation.
type ReportLogEntry struct {
	ID          string
	ReportType  string
	Parameters  string
	GeneratedBy string
	DurationMs  int64
	Status      string
	Error       *string
	CreatedAt   time.Time
}

type ReportLogRepo interface {
	Create(ctx context.Context, e *ReportLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]*ReportLogEntry, error)
}

// QueuedOp is a persisted pending mutation awaiting replay.
type QueuedOp struct {
	ID        string
	Method    string
	Endpoint  string
	Payload   string
	Attempts  int
	Status    domain.QueuedOpStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QueueCounts is the live aggregate of queue health.
type QueueCounts struct {
	Pending    int
	Processing int
	Failed     int
}

type QueueRepo interface {
	Enqueue(ctx context.Context, op *QueuedOp) error
	GetByID(ctx context.Context, id string) (*QueuedOp, error)

	// ListPending returns pending operations oldest-first.
	ListPending(ctx context.Context) ([]*QueuedOp, error)
	ListFailed(ctx context.Context) ([]*QueuedOp, error)

	MarkProcessing(ctx context.Context, id string) error
	ReturnToPending(ctx context.Context, id string, attempts int) error
	MarkFailed(ctx context.Context, id string, attempts int) error
	Delete(ctx context.Context, id string) error

	// RequeueFailed resets a failed operation for another round of drains.
	RequeueFailed(ctx context.Context, id string) error
	RequeueAllFailed(ctx context.Context) (int, error)
	ClearFailed(ctx context.Context) (int, error)

	Counts(ctx context.Context) (QueueCounts, error)
}
