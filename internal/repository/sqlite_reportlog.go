package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mfallon/taskdesk/internal/db"
)

// SQLiteReportLogRepo implements ReportLogRepo using a SQLite database.
// Writes are best-effort audit records; callers swallow failures.
type SQLiteReportLogRepo struct {
	db db.DBTX
}

// NewSQLiteReportLogRepo creates a new SQLiteReportLogRepo.
func NewSQLiteReportLogRepo(conn db.DBTX) *SQLiteReportLogRepo {
	return &SQLiteReportLogRepo{db: conn}
}

func (r *SQLiteReportLogRepo) Create(ctx context.Context, e *ReportLogEntry) error {
	query := `INSERT INTO report_logs (id, report_type, parameters, generated_by, duration_ms, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.ReportType,
		e.Parameters,
		e.GeneratedBy,
		e.DurationMs,
		e.Status,
		nullableStrToValue(e.Error),
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting report log: %w", err)
	}
	return nil
}

func (r *SQLiteReportLogRepo) ListRecent(ctx context.Context, limit int) ([]*ReportLogEntry, error) {
	query := `SELECT id, report_type, parameters, generated_by, duration_ms, status, error, created_at
		FROM report_logs ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing report logs: %w", err)
	}
	defer rows.Close()

	var out []*ReportLogEntry
	for rows.Next() {
		var e ReportLogEntry
		var errStr sql.NullString
		var createdAtStr string
		if err := rows.Scan(&e.ID, &e.ReportType, &e.Parameters, &e.GeneratedBy,
			&e.DurationMs, &e.Status, &errStr, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning report log: %w", err)
		}
		e.Error = nullStringToPtr(errStr)
		e.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating report logs: %w", err)
	}
	return out, nil
}
