package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mfallon/taskdesk/internal/db"
	"github.com/mfallon/taskdesk/internal/domain"
)

const queueColumns = `id, method, endpoint, payload, attempts, status, created_at, updated_at`

// SQLiteQueueRepo implements QueueRepo using a SQLite database. The queue
// table is the client-local persistence for offline mutations.
type SQLiteQueueRepo struct {
	db db.DBTX
}

// NewSQLiteQueueRepo creates a new SQLiteQueueRepo.
func NewSQLiteQueueRepo(conn db.DBTX) *SQLiteQueueRepo {
	return &SQLiteQueueRepo{db: conn}
}

func (r *SQLiteQueueRepo) Enqueue(ctx context.Context, op *QueuedOp) error {
	query := `INSERT INTO offline_queue (id, method, endpoint, payload, attempts, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		op.ID,
		op.Method,
		op.Endpoint,
		op.Payload,
		op.Attempts,
		string(op.Status),
		op.CreatedAt.Format(time.RFC3339Nano),
		op.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("enqueuing operation: %w", err)
	}
	return nil
}

func (r *SQLiteQueueRepo) GetByID(ctx context.Context, id string) (*QueuedOp, error) {
	query := `SELECT ` + queueColumns + ` FROM offline_queue WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	op, err := scanQueuedOp(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("queued operation: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return op, nil
}

func (r *SQLiteQueueRepo) ListPending(ctx context.Context) ([]*QueuedOp, error) {
	return r.listByStatus(ctx, domain.OpPending)
}

func (r *SQLiteQueueRepo) ListFailed(ctx context.Context) ([]*QueuedOp, error) {
	return r.listByStatus(ctx, domain.OpFailed)
}

// listByStatus returns operations in strict creation order (oldest first).
// Replay order is the enqueue order; no reordering or coalescing.
func (r *SQLiteQueueRepo) listByStatus(ctx context.Context, status domain.QueuedOpStatus) ([]*QueuedOp, error) {
	query := `SELECT ` + queueColumns + ` FROM offline_queue WHERE status = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing %s operations: %w", status, err)
	}
	defer rows.Close()

	var ops []*QueuedOp
	for rows.Next() {
		op, err := scanQueuedOp(rows.Scan)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating queued operations: %w", err)
	}
	return ops, nil
}

// MarkProcessing transitions a pending op to processing. The status guard in
// the WHERE clause keeps a concurrent drain from double-claiming the row.
func (r *SQLiteQueueRepo) MarkProcessing(ctx context.Context, id string) error {
	query := `UPDATE offline_queue SET status = 'processing', updated_at = ?
		WHERE id = ? AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("marking operation processing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking processing transition: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("queued operation %s not pending: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *SQLiteQueueRepo) ReturnToPending(ctx context.Context, id string, attempts int) error {
	query := `UPDATE offline_queue SET status = 'pending', attempts = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, attempts, nowUTC(), id); err != nil {
		return fmt.Errorf("returning operation to pending: %w", err)
	}
	return nil
}

func (r *SQLiteQueueRepo) MarkFailed(ctx context.Context, id string, attempts int) error {
	query := `UPDATE offline_queue SET status = 'failed', attempts = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, attempts, nowUTC(), id); err != nil {
		return fmt.Errorf("marking operation failed: %w", err)
	}
	return nil
}

func (r *SQLiteQueueRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM offline_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting queued operation: %w", err)
	}
	return nil
}

func (r *SQLiteQueueRepo) RequeueFailed(ctx context.Context, id string) error {
	query := `UPDATE offline_queue SET status = 'pending', attempts = 0, updated_at = ?
		WHERE id = ? AND status = 'failed'`
	res, err := r.db.ExecContext(ctx, query, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("requeuing failed operation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking requeue: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("failed operation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *SQLiteQueueRepo) RequeueAllFailed(ctx context.Context) (int, error) {
	query := `UPDATE offline_queue SET status = 'pending', attempts = 0, updated_at = ?
		WHERE status = 'failed'`
	res, err := r.db.ExecContext(ctx, query, nowUTC())
	if err != nil {
		return 0, fmt.Errorf("requeuing failed operations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting requeued operations: %w", err)
	}
	return int(affected), nil
}

func (r *SQLiteQueueRepo) ClearFailed(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM offline_queue WHERE status = 'failed'`)
	if err != nil {
		return 0, fmt.Errorf("clearing failed operations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared operations: %w", err)
	}
	return int(affected), nil
}

func (r *SQLiteQueueRepo) Counts(ctx context.Context) (QueueCounts, error) {
	query := `SELECT status, COUNT(*) FROM offline_queue GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return QueueCounts{}, fmt.Errorf("counting queued operations: %w", err)
	}
	defer rows.Close()

	var counts QueueCounts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return QueueCounts{}, fmt.Errorf("scanning queue counts: %w", err)
		}
		switch domain.QueuedOpStatus(status) {
		case domain.OpPending:
			counts.Pending = n
		case domain.OpProcessing:
			counts.Processing = n
		case domain.OpFailed:
			counts.Failed = n
		}
	}
	if err := rows.Err(); err != nil {
		return QueueCounts{}, fmt.Errorf("iterating queue counts: %w", err)
	}
	return counts, nil
}

func scanQueuedOp(scan func(...any) error) (*QueuedOp, error) {
	var op QueuedOp
	var statusStr, createdAtStr, updatedAtStr string

	err := scan(&op.ID, &op.Method, &op.Endpoint, &op.Payload, &op.Attempts,
		&statusStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning queued operation: %w", err)
	}

	op.Status = domain.QueuedOpStatus(statusStr)
	var parseErr error
	op.CreatedAt, parseErr = time.Parse(time.RFC3339Nano, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	op.UpdatedAt, parseErr = time.Parse(time.RFC3339Nano, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &op, nil
}
