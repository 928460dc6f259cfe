package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mfallon/taskdesk/internal/db"
	"github.com/mfallon/taskdesk/internal/domain"
)

// taskColumns is the canonical SELECT column list for tasks.
const taskColumns = `id, project_id, title, status, priority, assigned_to,
		due_date, created_at, updated_at, archived_at, deleted_at`

// taskColumnsAliased is the same column list prefixed with "t." for join queries.
const taskColumnsAliased = `t.id, t.project_id, t.title, t.status, t.priority, t.assigned_to,
		t.due_date, t.created_at, t.updated_at, t.archived_at, t.deleted_at`

// activeTaskClause excludes soft-deleted and archived rows. Applied to every
// read regardless of caller filters.
const activeTaskClause = `deleted_at IS NULL AND archived_at IS NULL`

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (id, project_id, title, status, priority, assigned_to,
		due_date, created_at, updated_at, archived_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		emptyStrToNull(t.ProjectID),
		t.Title,
		string(t.Status),
		string(t.Priority),
		nullableStrToValue(t.AssignedTo),
		nullableTimeToString(t.DueDate, dateLayout),
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
		nullableTimeToString(t.ArchivedAt, time.RFC3339),
		nullableTimeToString(t.DeletedAt, time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanTask(row)
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET project_id = ?, title = ?, status = ?, priority = ?,
		assigned_to = ?, due_date = ?, updated_at = ?, archived_at = ?, deleted_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		emptyStrToNull(t.ProjectID),
		t.Title,
		string(t.Status),
		string(t.Priority),
		nullableStrToValue(t.AssignedTo),
		nullableTimeToString(t.DueDate, dateLayout),
		t.UpdatedAt.Format(time.RFC3339),
		nullableTimeToString(t.ArchivedAt, time.RFC3339),
		nullableTimeToString(t.DeletedAt, time.RFC3339),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) Archive(ctx context.Context, id string) error {
	now := nowUTC()
	query := `UPDATE tasks SET archived_at = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, now, now, id); err != nil {
		return fmt.Errorf("archiving task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) SoftDelete(ctx context.Context, id string) error {
	now := nowUTC()
	query := `UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, now, now, id); err != nil {
		return fmt.Errorf("soft-deleting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) ListActive(ctx context.Context, f TaskFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + activeTaskClause
	where, args := taskFilterClauses(f, "")
	if where != "" {
		query += " AND " + where
	}
	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing active tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteTaskRepo) ListAssignedViaJoin(ctx context.Context, userID string, f TaskFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumnsAliased + `
		FROM tasks t
		JOIN task_assignments a ON a.task_id = t.id
		WHERE a.user_id = ? AND t.deleted_at IS NULL AND t.archived_at IS NULL`
	args := []interface{}{userID}

	where, filterArgs := taskFilterClauses(f, "t.")
	if where != "" {
		query += " AND " + where
		args = append(args, filterArgs...)
	}
	query += " ORDER BY t.created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing join-table assignments: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteTaskRepo) ListAssignedLegacy(ctx context.Context, userID string, f TaskFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE assigned_to = ? AND ` + activeTaskClause
	args := []interface{}{userID}

	where, filterArgs := taskFilterClauses(f, "")
	if where != "" {
		query += " AND " + where
		args = append(args, filterArgs...)
	}
	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing legacy assignments: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteTaskRepo) CountReopened(ctx context.Context, f TaskFilter) (int, error) {
	query := `SELECT COUNT(*) FROM tasks
		WHERE deleted_at IS NULL AND archived_at IS NOT NULL AND status != ?`
	args := []interface{}{string(domain.TaskClosed)}

	where, filterArgs := taskFilterClauses(f, "")
	if where != "" {
		query += " AND " + where
		args = append(args, filterArgs...)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting reopened tasks: %w", err)
	}
	return count, nil
}

// taskFilterClauses builds AND-joined WHERE fragments for a TaskFilter.
// prefix qualifies column names in join queries ("t." or empty).
func taskFilterClauses(f TaskFilter, prefix string) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.ProjectID != nil {
		clauses = append(clauses, prefix+"project_id = ?")
		args = append(args, *f.ProjectID)
	}
	if f.DateFrom != nil {
		clauses = append(clauses, prefix+"created_at >= ?")
		args = append(args, f.DateFrom.Format(time.RFC3339))
	}
	if f.DateTo != nil {
		clauses = append(clauses, prefix+"created_at <= ?")
		args = append(args, f.DateTo.Format(time.RFC3339))
	}
	return strings.Join(clauses, " AND "), args
}

func scanTask(row *sql.Row) (*domain.Task, error) {
	var t domain.Task
	var statusStr, priorityStr string
	var assignedTo, dueDateStr, archivedAtStr, deletedAtStr sql.NullString
	var projectID sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&t.ID, &projectID, &t.Title, &statusStr, &priorityStr, &assignedTo,
		&dueDateStr, &createdAtStr, &updatedAtStr, &archivedAtStr, &deletedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	return populateTask(&t, projectID, statusStr, priorityStr, assignedTo,
		dueDateStr, archivedAtStr, deletedAtStr, createdAtStr, updatedAtStr)
}

func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		var t domain.Task
		var statusStr, priorityStr string
		var assignedTo, dueDateStr, archivedAtStr, deletedAtStr sql.NullString
		var projectID sql.NullString
		var createdAtStr, updatedAtStr string

		err := rows.Scan(
			&t.ID, &projectID, &t.Title, &statusStr, &priorityStr, &assignedTo,
			&dueDateStr, &createdAtStr, &updatedAtStr, &archivedAtStr, &deletedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}

		task, err := populateTask(&t, projectID, statusStr, priorityStr, assignedTo,
			dueDateStr, archivedAtStr, deletedAtStr, createdAtStr, updatedAtStr)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func populateTask(
	t *domain.Task,
	projectID sql.NullString,
	statusStr, priorityStr string,
	assignedTo, dueDateStr, archivedAtStr, deletedAtStr sql.NullString,
	createdAtStr, updatedAtStr string,
) (*domain.Task, error) {
	t.ProjectID = projectID.String
	t.Status = domain.TaskStatus(statusStr)
	t.Priority = domain.TaskPriority(priorityStr)
	t.AssignedTo = nullStringToPtr(assignedTo)
	t.DueDate = parseNullableTime(dueDateStr, dateLayout)
	t.ArchivedAt = parseNullableTime(archivedAtStr, time.RFC3339)
	t.DeletedAt = parseNullableTime(deletedAtStr, time.RFC3339)

	var parseErr error
	t.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	t.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return t, nil
}
