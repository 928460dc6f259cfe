package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/repository"
	"github.com/mfallon/taskdesk/internal/testutil"
)

// fakeEmailClient records sends and returns a canned ID or error.
type fakeEmailClient struct {
	sent []EmailMessage
	err  error
}

func (f *fakeEmailClient) Send(_ context.Context, msg EmailMessage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "email-123", nil
}

func validEvent(recipientID string) Event {
	return Event{
		Type:   "INSERT",
		Table:  "notifications",
		Schema: "public",
		Record: Record{
			ID:          "n1",
			RecipientID: recipientID,
			Type:        string(domain.NotifyTaskAssigned),
			Title:       "New task",
			Message:     "You were assigned a task",
		},
	}
}

func setupDispatcher(t *testing.T, client EmailClient) (*Dispatcher, repository.UserRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	users := repository.NewSQLiteUserRepo(database)
	d := NewDispatcher(users, client, Config{
		ServiceKey: "svc-secret",
		AppBaseURL: "https://app.example.com",
		From:       "noreply@example.com",
	})
	return d, users
}

func TestDispatch_SendsEmail(t *testing.T) {
	client := &fakeEmailClient{}
	d, users := setupDispatcher(t, client)
	ctx := context.Background()

	recipient := testutil.NewTestUser("Rae Recipient")
	require.NoError(t, users.Create(ctx, recipient))

	result, err := d.Dispatch(ctx, validEvent(recipient.ID))
	require.NoError(t, err)

	assert.Equal(t, StatusSent, result.Status)
	assert.Equal(t, "email-123", result.EmailID)
	require.Len(t, client.sent, 1)
	assert.Equal(t, recipient.Email, client.sent[0].To)
	assert.Equal(t, "You have been assigned a task", client.sent[0].Subject)
	assert.Contains(t, client.sent[0].HTML, "https://app.example.com/tasks")
}

func TestDispatch_RejectsUnauthorizedEvent(t *testing.T) {
	d, _ := setupDispatcher(t, &fakeEmailClient{})

	ev := validEvent("u1")
	ev.Type = "UPDATE"
	_, err := d.Dispatch(context.Background(), ev)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	ev = validEvent("u1")
	ev.Table = "tasks"
	_, err = d.Dispatch(context.Background(), ev)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDispatch_ServiceCredentialBypassesShapeCheck(t *testing.T) {
	client := &fakeEmailClient{}
	d, users := setupDispatcher(t, client)
	ctx := context.Background()

	recipient := testutil.NewTestUser("Cred Call")
	require.NoError(t, users.Create(ctx, recipient))

	ev := validEvent(recipient.ID)
	ev.Type = "MANUAL"
	ev.Table = ""
	ev.ServiceCredential = "svc-secret"

	result, err := d.Dispatch(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, result.Status)
}

func TestDispatch_RejectsIncompleteRecord(t *testing.T) {
	d, _ := setupDispatcher(t, &fakeEmailClient{})

	ev := validEvent("u1")
	ev.Record.Title = ""
	ev.Record.Message = ""
	_, err := d.Dispatch(context.Background(), ev)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

func TestDispatch_SkipsInvalidRecipients(t *testing.T) {
	client := &fakeEmailClient{}
	d, users := setupDispatcher(t, client)
	ctx := context.Background()
	now := time.Now().UTC()

	inactive := testutil.NewTestUser("Ian Inactive", testutil.WithInactive())
	deleted := testutil.NewTestUser("Dee Deleted", testutil.WithUserDeleted(now))
	optedOut := testutil.NewTestUser("Opal OptOut", testutil.WithEmailNotifications(false))
	for _, u := range []*domain.User{inactive, deleted, optedOut} {
		require.NoError(t, users.Create(ctx, u))
	}

	cases := []struct {
		name        string
		recipientID string
		reason      string
	}{
		{"missing recipient", "no-such-user", "recipient not found"},
		{"inactive recipient", inactive.ID, "recipient inactive"},
		{"deleted recipient", deleted.ID, "recipient inactive"},
		{"notifications disabled", optedOut.ID, "email notifications disabled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := d.Dispatch(ctx, validEvent(tc.recipientID))
			require.NoError(t, err)
			assert.Equal(t, StatusSkipped, result.Status)
			assert.Equal(t, tc.reason, result.Reason)
		})
	}
	assert.Empty(t, client.sent, "no email may go out for skipped recipients")
}

func TestDispatch_MissingProviderIsSkippedNotFatal(t *testing.T) {
	d, users := setupDispatcher(t, nil)
	ctx := context.Background()

	recipient := testutil.NewTestUser("Rae Recipient")
	require.NoError(t, users.Create(ctx, recipient))

	result, err := d.Dispatch(ctx, validEvent(recipient.ID))
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, result.Status)
	assert.Equal(t, "email delivery not configured", result.Reason)
}

func TestDispatch_UnknownTypeFallsBackToGenericTemplate(t *testing.T) {
	client := &fakeEmailClient{}
	d, users := setupDispatcher(t, client)
	ctx := context.Background()

	recipient := testutil.NewTestUser("Gen Eric")
	require.NoError(t, users.Create(ctx, recipient))

	ev := validEvent(recipient.ID)
	ev.Record.Type = "mystery_event"
	result, err := d.Dispatch(ctx, ev)
	require.NoError(t, err)

	assert.Equal(t, StatusSent, result.Status)
	require.Len(t, client.sent, 1)
	assert.Equal(t, "You have a new notification", client.sent[0].Subject)
}

func TestDispatch_IsDeterministicForRepeatedEvents(t *testing.T) {
	client := &fakeEmailClient{}
	d, users := setupDispatcher(t, client)
	ctx := context.Background()

	recipient := testutil.NewTestUser("Rep Eat", testutil.WithEmailNotifications(false))
	require.NoError(t, users.Create(ctx, recipient))

	first, err := d.Dispatch(ctx, validEvent(recipient.ID))
	require.NoError(t, err)
	second, err := d.Dispatch(ctx, validEvent(recipient.ID))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Empty(t, client.sent)
}

func TestDispatch_SurfacesDeliveryFailure(t *testing.T) {
	client := &fakeEmailClient{err: domain.ErrDelivery}
	d, users := setupDispatcher(t, client)
	ctx := context.Background()

	recipient := testutil.NewTestUser("Fay Fail")
	require.NoError(t, users.Create(ctx, recipient))

	_, err := d.Dispatch(ctx, validEvent(recipient.ID))
	assert.ErrorIs(t, err, domain.ErrDelivery)
}
