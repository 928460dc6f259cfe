package domain

import "time"

// Notification is created by data-store triggers on domain events. The core
// only ever flips the read flag; row lifecycle is owned by the data store.
type Notification struct {
	ID          string
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	RelatedID   *string
	RelatedType *string
	Read        bool
	CreatedAt   time.Time
}
