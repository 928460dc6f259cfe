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

const userColumns = `id, email, full_name, role_id, email_notifications, is_active,
		deleted_at, created_at, updated_at`

// SQLiteUserRepo implements UserRepo using a SQLite database.
type SQLiteUserRepo struct {
	db db.DBTX
}

// NewSQLiteUserRepo creates a new SQLiteUserRepo.
func NewSQLiteUserRepo(conn db.DBTX) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: conn}
}

func (r *SQLiteUserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, email, full_name, role_id, email_notifications, is_active,
		deleted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.Email,
		u.FullName,
		u.RoleID,
		boolToInt(u.EmailNotifications),
		boolToInt(u.IsActive),
		nullableTimeToString(u.DeletedAt, time.RFC3339),
		u.CreatedAt.Format(time.RFC3339),
		u.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLiteUserRepo) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET email = ?, full_name = ?, role_id = ?, email_notifications = ?,
		is_active = ?, deleted_at = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		u.Email,
		u.FullName,
		u.RoleID,
		boolToInt(u.EmailNotifications),
		boolToInt(u.IsActive),
		nullableTimeToString(u.DeletedAt, time.RFC3339),
		u.UpdatedAt.Format(time.RFC3339),
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepo) CountActive(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE is_active = 1 AND deleted_at IS NULL`
	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting active users: %w", err)
	}
	return count, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var emailNotifs, isActive int
	var deletedAtStr sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.RoleID, &emailNotifs, &isActive,
		&deletedAtStr, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.EmailNotifications = intToBool(emailNotifs)
	u.IsActive = intToBool(isActive)
	u.DeletedAt = parseNullableTime(deletedAtStr, time.RFC3339)

	var parseErr error
	u.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	u.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &u, nil
}

// SQLiteRoleRepo implements RoleRepo using a SQLite database.
type SQLiteRoleRepo struct {
	db db.DBTX
}

// NewSQLiteRoleRepo creates a new SQLiteRoleRepo.
func NewSQLiteRoleRepo(conn db.DBTX) *SQLiteRoleRepo {
	return &SQLiteRoleRepo{db: conn}
}

func (r *SQLiteRoleRepo) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	var role domain.Role
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE id = ?`, id).
		Scan(&role.ID, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning role: %w", err)
	}
	role.Name = domain.RoleName(name)
	return &role, nil
}

func (r *SQLiteRoleRepo) GetByName(ctx context.Context, name domain.RoleName) (*domain.Role, error) {
	var role domain.Role
	var nameStr string
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = ?`, string(name)).
		Scan(&role.ID, &nameStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scanning role: %w", err)
	}
	role.Name = domain.RoleName(nameStr)
	return &role, nil
}
