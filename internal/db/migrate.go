package db

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations is the ordered, idempotent schema statement list. Every
// statement must be safe to re-run against an already-migrated database.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
		     CHECK(name IN ('super_admin','manager','employee'))
	)`,

	`INSERT OR IGNORE INTO roles (id, name) VALUES
		('role-super-admin', 'super_admin'),
		('role-manager', 'manager'),
		('role-employee', 'employee')`,

	`CREATE TABLE IF NOT EXISTS users (
		id                  TEXT PRIMARY KEY,
		email               TEXT NOT NULL UNIQUE,
		full_name           TEXT NOT NULL DEFAULT '',
		role_id             TEXT NOT NULL REFERENCES roles(id),
		email_notifications INTEGER NOT NULL DEFAULT 1,
		is_active           INTEGER NOT NULL DEFAULT 1,
		deleted_at          TEXT,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'active'
		            CHECK(status IN ('active','closed','completed','archived')),
		archived_at TEXT,
		deleted_at  TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		project_id  TEXT REFERENCES projects(id) ON DELETE CASCADE,
		title       TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'ToDo'
		            CHECK(status IN ('ToDo','WorkInProgress','Done','Closed')),
		priority    TEXT NOT NULL DEFAULT 'medium'
		            CHECK(priority IN ('low','medium','high','urgent')),
		assigned_to TEXT REFERENCES users(id),
		due_date    TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		archived_at TEXT,
		deleted_at  TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,

	`CREATE TABLE IF NOT EXISTS task_assignments (
		task_id     TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		assigned_at TEXT NOT NULL,
		PRIMARY KEY (task_id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_task_assignments_user ON task_assignments(user_id)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id           TEXT PRIMARY KEY,
		recipient_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type         TEXT NOT NULL,
		title        TEXT NOT NULL,
		message      TEXT NOT NULL,
		related_id   TEXT,
		related_type TEXT,
		read         INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id)`,

	`CREATE TABLE IF NOT EXISTS report_logs (
		id           TEXT PRIMARY KEY,
		report_type  TEXT NOT NULL,
		parameters   TEXT NOT NULL DEFAULT '{}',
		generated_by TEXT NOT NULL,
		duration_ms  INTEGER NOT NULL DEFAULT 0,
		status       TEXT NOT NULL CHECK(status IN ('success','error')),
		error        TEXT,
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS offline_queue (
		id         TEXT PRIMARY KEY,
		method     TEXT NOT NULL,
		endpoint   TEXT NOT NULL,
		payload    TEXT NOT NULL DEFAULT '',
		attempts   INTEGER NOT NULL DEFAULT 0,
		status     TEXT NOT NULL DEFAULT 'pending'
		           CHECK(status IN ('pending','processing','failed')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_offline_queue_status ON offline_queue(status)`,
}

// Migrate runs all schema migrations in one transaction, so a failed
// statement leaves the schema untouched.
func Migrate(db *sql.DB) error {
	uow := NewSQLiteUnitOfWork(db)
	return uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		for i, stmt := range migrations {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration %d: %w", i, err)
			}
		}
		return nil
	})
}
