package domain

import "time"

type Project struct {
	ID         string
	Name       string
	Status     ProjectStatus
	ArchivedAt *time.Time
	DeletedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive reports whether the project belongs in active views.
func (p *Project) IsActive() bool {
	return p.DeletedAt == nil && p.ArchivedAt == nil && p.Status == ProjectActive
}
