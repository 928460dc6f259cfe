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

const notificationColumns = `id, recipient_id, type, title, message, related_id, related_type, read, created_at`

// SQLiteNotificationRepo implements NotificationRepo using a SQLite database.
// Rows are created by upstream triggers; this repo never deletes them.
type SQLiteNotificationRepo struct {
	db db.DBTX
}

// NewSQLiteNotificationRepo creates a new SQLiteNotificationRepo.
func NewSQLiteNotificationRepo(conn db.DBTX) *SQLiteNotificationRepo {
	return &SQLiteNotificationRepo{db: conn}
}

func (r *SQLiteNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	query := `INSERT INTO notifications (id, recipient_id, type, title, message, related_id, related_type, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		string(n.Type),
		n.Title,
		n.Message,
		nullableStrToValue(n.RelatedID),
		nullableStrToValue(n.RelatedType),
		boolToInt(n.Read),
		n.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func (r *SQLiteNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	n, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("notification: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return n, nil
}

func (r *SQLiteNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return out, nil
}

func (r *SQLiteNotificationRepo) MarkRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET read = 1 WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}

func scanNotification(scan func(...any) error) (*domain.Notification, error) {
	var n domain.Notification
	var typeStr string
	var relatedID, relatedType sql.NullString
	var readInt int
	var createdAtStr string

	err := scan(&n.ID, &n.RecipientID, &typeStr, &n.Title, &n.Message,
		&relatedID, &relatedType, &readInt, &createdAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning notification: %w", err)
	}

	n.Type = domain.NotificationType(typeStr)
	n.RelatedID = nullStringToPtr(relatedID)
	n.RelatedType = nullStringToPtr(relatedType)
	n.Read = intToBool(readInt)

	var parseErr error
	n.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	return &n, nil
}
