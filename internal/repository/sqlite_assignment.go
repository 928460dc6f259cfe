package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mfallon/taskdesk/internal/db"
	"github.com/mfallon/taskdesk/internal/domain"
)

// SQLiteAssignmentRepo implements AssignmentRepo over the task_assignments
// join table.
type SQLiteAssignmentRepo struct {
	db db.DBTX
}

// NewSQLiteAssignmentRepo creates a new SQLiteAssignmentRepo.
func NewSQLiteAssignmentRepo(conn db.DBTX) *SQLiteAssignmentRepo {
	return &SQLiteAssignmentRepo{db: conn}
}

func (r *SQLiteAssignmentRepo) Assign(ctx context.Context, taskID, userID string) error {
	query := `INSERT OR IGNORE INTO task_assignments (task_id, user_id, assigned_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, taskID, userID, nowUTC()); err != nil {
		return fmt.Errorf("inserting assignment: %w", err)
	}
	return nil
}

func (r *SQLiteAssignmentRepo) Unassign(ctx context.Context, taskID, userID string) error {
	query := `DELETE FROM task_assignments WHERE task_id = ? AND user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, taskID, userID); err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	return nil
}

func (r *SQLiteAssignmentRepo) ListByTask(ctx context.Context, taskID string) ([]domain.Assignment, error) {
	query := `SELECT task_id, user_id, assigned_at FROM task_assignments
		WHERE task_id = ? ORDER BY assigned_at`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (r *SQLiteAssignmentRepo) ListAll(ctx context.Context) ([]domain.Assignment, error) {
	query := `SELECT task_id, user_id, assigned_at FROM task_assignments ORDER BY assigned_at, task_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing all assignments: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]domain.Assignment, error) {
	var out []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		var assignedAtStr string
		if err := rows.Scan(&a.TaskID, &a.UserID, &assignedAtStr); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		var err error
		a.AssignedAt, err = time.Parse(time.RFC3339, assignedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing assigned_at: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignments: %w", err)
	}
	return out, nil
}
