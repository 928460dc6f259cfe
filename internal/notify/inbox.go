package notify

import (
	"context"
	"fmt"

	"github.com/mfallon/taskdesk/internal/db"
	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/repository"
)

// Inbox is the recipient-facing read surface over stored notifications.
// Every access is scoped to one recipient; a notification belonging to
// someone else is indistinguishable from a missing one.
type Inbox struct {
	uow db.UnitOfWork
}

func NewInbox(uow db.UnitOfWork) *Inbox {
	return &Inbox{uow: uow}
}

// List returns the recipient's notifications newest-first, optionally
// narrowed to unread ones.
func (i *Inbox) List(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("%w: recipient id required", domain.ErrInvalidParameters)
	}

	var out []*domain.Notification
	err := i.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		list, err := repository.NewSQLiteNotificationRepo(tx).ListByRecipient(ctx, recipientID, unreadOnly)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrDataFetch, err)
		}
		out = list
		return nil
	})
	return out, err
}

// MarkRead flips the recipient's notification to read. The ownership check
// and the write share one transaction.
func (i *Inbox) MarkRead(ctx context.Context, recipientID, id string) error {
	if recipientID == "" || id == "" {
		return fmt.Errorf("%w: recipient id and notification id required", domain.ErrInvalidParameters)
	}

	return i.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteNotificationRepo(tx)
		n, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if n.RecipientID != recipientID {
			return fmt.Errorf("notification: %w", domain.ErrNotFound)
		}
		if n.Read {
			return nil
		}
		return repo.MarkRead(ctx, id)
	})
}
