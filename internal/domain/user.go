package domain

import "time"

type User struct {
	ID       string
	Email    string
	FullName string
	RoleID   string

	// EmailNotifications is the recipient's delivery preference. Disabled
	// means the dispatcher skips the outbound email, not an error.
	EmailNotifications bool

	IsActive  bool
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Role struct {
	ID   string
	Name RoleName
}
