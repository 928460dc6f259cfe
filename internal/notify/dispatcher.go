package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/repository"
)

// Config holds dispatcher settings. A nil EmailClient on the dispatcher
// models a missing provider credential: dispatch degrades to skipped.
type Config struct {
	// ServiceKey is the pre-shared credential the data store's trigger
	// presents when invoking the dispatcher.
	ServiceKey string

	// AppBaseURL prefixes the in-app links embedded in emails.
	AppBaseURL string

	// From is the sender address on outbound emails.
	From string
}

// Dispatcher turns a notification insert event into at most one email.
// Delivery telemetry is the EmailClient's concern.
type Dispatcher struct {
	users  repository.UserRepo
	client EmailClient
	cfg    Config
}

func NewDispatcher(users repository.UserRepo, client EmailClient, cfg Config) *Dispatcher {
	return &Dispatcher{users: users, client: client, cfg: cfg}
}

// Dispatch authorizes, validates and gates the event, then delivers the
// email. Skipped outcomes are results, not errors: the notification row
// already persisted upstream and must not appear to fail.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (Result, error) {
	if !d.authorized(ev) {
		return Result{}, fmt.Errorf("%w: event carries no service credential and does not match the insert-event shape", domain.ErrUnauthorized)
	}
	if err := validateRecord(ev.Record); err != nil {
		return Result{}, err
	}

	recipient, err := d.users.GetByID(ctx, ev.Record.RecipientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return skipped("recipient not found"), nil
		}
		return Result{}, fmt.Errorf("%w: resolving recipient: %w", domain.ErrDataFetch, err)
	}
	if recipient.DeletedAt != nil || !recipient.IsActive {
		return skipped("recipient inactive"), nil
	}
	if !recipient.EmailNotifications {
		return skipped("email notifications disabled"), nil
	}
	if d.client == nil {
		return skipped("email delivery not configured"), nil
	}

	tmpl := templateFor(ev.Record.Type)
	emailID, err := d.client.Send(ctx, EmailMessage{
		From:    d.cfg.From,
		To:      recipient.Email,
		Subject: tmpl.Subject,
		HTML:    renderBody(ev.Record, d.cfg.AppBaseURL+tmpl.LinkPath),
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Status: StatusSent, EmailID: emailID}, nil
}

// authorized accepts a matching pre-shared credential, or an event whose
// shape structurally proves it came from the notifications insert trigger.
func (d *Dispatcher) authorized(ev Event) bool {
	if d.cfg.ServiceKey != "" && ev.ServiceCredential == d.cfg.ServiceKey {
		return true
	}
	return ev.Type == "INSERT" && ev.Table == "notifications" && ev.Record.RecipientID != ""
}

func validateRecord(rec Record) error {
	var missing []string
	if rec.RecipientID == "" {
		missing = append(missing, "recipient_id")
	}
	if rec.Type == "" {
		missing = append(missing, "type")
	}
	if rec.Title == "" {
		missing = append(missing, "title")
	}
	if rec.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: record missing %v", domain.ErrInvalidPayload, missing)
	}
	return nil
}
