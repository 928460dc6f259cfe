package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfallon/taskdesk/internal/db"
	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/notify"
	"github.com/mfallon/taskdesk/internal/offline"
	"github.com/mfallon/taskdesk/internal/report"
	"github.com/mfallon/taskdesk/internal/repository"
	"github.com/mfallon/taskdesk/internal/swcache"
	"github.com/mfallon/taskdesk/internal/testutil"
)

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(context.Context, offline.Operation) error {
	return errors.New("backend unreachable")
}

type serverEnv struct {
	srv           *Server
	users         repository.UserRepo
	notifications repository.NotificationRepo
	queue         *offline.Manager
	store         *swcache.MemoryStore
	admin         *domain.User
}

func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	users := repository.NewSQLiteUserRepo(database)
	admin := testutil.NewTestUser("Ada Admin", testutil.WithRole("role-super-admin"))
	require.NoError(t, users.Create(ctx, admin))

	reports := report.NewService(
		repository.NewSQLiteTaskRepo(database),
		repository.NewSQLiteAssignmentRepo(database),
		repository.NewSQLiteProjectRepo(database),
		users,
		repository.NewSQLiteRoleRepo(database),
		repository.NewSQLiteReportLogRepo(database),
	)
	dispatcher := notify.NewDispatcher(users, nil, notify.Config{
		ServiceKey: "svc-secret",
		AppBaseURL: "https://app.example.com",
		From:       "noreply@example.com",
	})
	queue := offline.NewManager(
		repository.NewSQLiteQueueRepo(database),
		failingDispatcher{},
		offline.Config{MaxAttempts: 1},
		nil,
	)
	store := swcache.NewMemoryStore()
	cache := swcache.NewManager(store, swcache.FetcherFunc(
		func(context.Context, *swcache.Request) (*swcache.Response, error) {
			return nil, errors.New("network down")
		}), swcache.Config{Prefix: "taskdesk", Version: "1"}, nil)
	auth := NewStaticTokenAuthenticator(map[string]string{"admin-token": admin.ID})

	srv := NewServer(Deps{
		Reports:   reports,
		Notifier:  dispatcher,
		Inbox:     notify.NewInbox(db.NewSQLiteUnitOfWork(database)),
		Queue:     queue,
		Cache:     cache,
		Auth:      auth,
		PublicKey: "anon-key",
	})
	return &serverEnv{
		srv:           srv,
		users:         users,
		notifications: repository.NewSQLiteNotificationRepo(database),
		queue:         queue,
		store:         store,
		admin:         admin,
	}
}

func (e *serverEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	env := newServerEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportEndpoint_RequiresToken(t *testing.T) {
	env := newServerEnv(t)

	rec := env.do(t, http.MethodPost, "/api/reports", "", map[string]string{"reportType": "company_wide"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/reports", "bogus", map[string]string{"reportType": "company_wide"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReportEndpoint_Success(t *testing.T) {
	env := newServerEnv(t)

	rec := env.do(t, http.MethodPost, "/api/reports", "admin-token", map[string]string{"reportType": "company_wide"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep struct {
		Title       string `json:"title"`
		GeneratedBy string `json:"generatedBy"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "Company-Wide Report", rep.Title)
	assert.Equal(t, env.admin.FullName, rep.GeneratedBy)
}

func TestReportEndpoint_ErrorMapping(t *testing.T) {
	env := newServerEnv(t)
	ctx := context.Background()

	employee := testutil.NewTestUser("Emp Loyee")
	require.NoError(t, env.users.Create(ctx, employee))
	auth := env.srv.auth.(*StaticTokenAuthenticator)
	auth.tokens["emp-token"] = employee.ID

	cases := []struct {
		name   string
		token  string
		body   map[string]string
		status int
		code   string
	}{
		{"bad type", "admin-token", map[string]string{"reportType": "nope"}, http.StatusBadRequest, "invalid_parameters"},
		{"missing user id", "admin-token", map[string]string{"reportType": "user_performance"}, http.StatusBadRequest, "invalid_parameters"},
		{"forbidden role", "emp-token", map[string]string{"reportType": "company_wide"}, http.StatusForbidden, "forbidden"},
		{"missing project", "admin-token", map[string]string{"reportType": "project", "projectId": "nope"}, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/reports", tc.token, tc.body)
			assert.Equal(t, tc.status, rec.Code)

			var body struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestNotifyEndpoint_SkippedRecipient(t *testing.T) {
	env := newServerEnv(t)
	ctx := context.Background()

	optedOut := testutil.NewTestUser("Opal OptOut", testutil.WithEmailNotifications(false))
	require.NoError(t, env.users.Create(ctx, optedOut))

	event := map[string]any{
		"type":   "INSERT",
		"table":  "notifications",
		"schema": "public",
		"record": map[string]any{
			"id":           "n1",
			"recipient_id": optedOut.ID,
			"type":         "task_assigned",
			"title":        "New task",
			"message":      "hello",
		},
	}
	rec := env.do(t, http.MethodPost, "/functions/notify", "", event)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result notify.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, notify.StatusSkipped, result.Status)
}

func TestNotifyEndpoint_RejectsMalformedEvents(t *testing.T) {
	env := newServerEnv(t)

	// Wrong shape, no credential.
	rec := env.do(t, http.MethodPost, "/functions/notify", "", map[string]any{
		"type":  "UPDATE",
		"table": "tasks",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Right shape, incomplete record.
	rec = env.do(t, http.MethodPost, "/functions/notify", "svc-secret", map[string]any{
		"type":   "INSERT",
		"table":  "notifications",
		"record": map[string]any{"recipient_id": "u1"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueEndpoints_RequireReadCredential(t *testing.T) {
	env := newServerEnv(t)

	rec := env.do(t, http.MethodGet, "/api/queue/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/queue/status", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Both the anonymous-tier key and a user token are accepted.
	rec = env.do(t, http.MethodGet, "/api/queue/status", "anon-key", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/queue/status", "admin-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueueEndpoints_FailedOpControls(t *testing.T) {
	env := newServerEnv(t)
	ctx := context.Background()

	_, err := env.queue.Enqueue(ctx, offline.Operation{Method: http.MethodPost, Endpoint: "/tasks"})
	require.NoError(t, err)
	require.NoError(t, env.queue.Drain(ctx))

	rec := env.do(t, http.MethodGet, "/api/queue/status", "anon-key", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var counts struct {
		Pending int `json:"pending"`
		Failed  int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, 1, counts.Failed)

	rec = env.do(t, http.MethodGet, "/api/queue/failed", "anon-key", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var failed struct {
		Failed []struct {
			ID       string `json:"id"`
			Endpoint string `json:"endpoint"`
			Attempts int    `json:"attempts"`
		} `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	require.Len(t, failed.Failed, 1)
	assert.Equal(t, "/tasks", failed.Failed[0].Endpoint)
	assert.Equal(t, 1, failed.Failed[0].Attempts)

	rec = env.do(t, http.MethodPost, "/api/queue/retry", "anon-key", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var retried struct {
		Requeued int `json:"requeued"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &retried))
	assert.Equal(t, 1, retried.Requeued)

	require.NoError(t, env.queue.Drain(ctx))
	rec = env.do(t, http.MethodPost, "/api/queue/clear", "anon-key", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cleared struct {
		Cleared int `json:"cleared"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.Equal(t, 1, cleared.Cleared)

	rec = env.do(t, http.MethodGet, "/api/queue/status", "anon-key", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Zero(t, counts.Failed)
	assert.Zero(t, counts.Pending)
}

func TestQueueEndpoints_EnqueueAndOnlineTransition(t *testing.T) {
	env := newServerEnv(t)
	ctx := context.Background()

	// Going offline parks new operations instead of replaying them.
	rec := env.do(t, http.MethodPost, "/api/queue/online", "anon-key", map[string]bool{"online": false})
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Online bool `json:"online"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.False(t, state.Online)

	rec = env.do(t, http.MethodPost, "/api/queue", "anon-key", map[string]string{
		"method":   http.MethodPost,
		"endpoint": "/tasks",
		"payload":  `{"title":"deferred"}`,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var enq struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enq))
	assert.NotEmpty(t, enq.ID)
	assert.Equal(t, "pending", enq.Status)

	counts, err := env.queue.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Pending)

	// Reconnecting drains; the failing dispatcher exhausts the single
	// allowed attempt and parks the operation.
	rec = env.do(t, http.MethodPost, "/api/queue/online", "anon-key", map[string]bool{"online": true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.Online)

	counts, err = env.queue.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Pending)
	assert.Equal(t, 1, counts.Failed)

	// Missing online flag is a payload error.
	rec = env.do(t, http.MethodPost, "/api/queue/online", "anon-key", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Enqueue without an endpoint is rejected.
	rec = env.do(t, http.MethodPost, "/api/queue", "anon-key", map[string]string{"method": http.MethodPost})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheMessageEndpoint(t *testing.T) {
	env := newServerEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.Put(ctx, "taskdesk-images-v1", "/logo.png", &swcache.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("png-bytes"),
	}))

	rec := env.do(t, http.MethodPost, "/api/cache/message", "anon-key", map[string]string{"type": "CLEAR_CACHE"})
	require.Equal(t, http.StatusOK, rec.Code)
	var reply struct {
		Type    string `json:"type"`
		Success bool   `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "CACHE_CLEARED", reply.Type)
	assert.True(t, reply.Success)

	buckets, err := env.store.Buckets(ctx)
	require.NoError(t, err)
	assert.Empty(t, buckets)

	rec = env.do(t, http.MethodPost, "/api/cache/message", "anon-key", map[string]string{"type": "SKIP_WAITING"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "ACTIVATED", reply.Type)
	assert.True(t, reply.Success)

	// Unknown message types map to the payload error.
	rec = env.do(t, http.MethodPost, "/api/cache/message", "anon-key", map[string]string{"type": "REFRESH"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No credential, no cache control.
	rec = env.do(t, http.MethodPost, "/api/cache/message", "", map[string]string{"type": "CLEAR_CACHE"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	env := newServerEnv(t)
	ctx := context.Background()

	other := testutil.NewTestUser("Other User")
	require.NoError(t, env.users.Create(ctx, other))

	mine := testutil.NewTestNotification(env.admin.ID, domain.NotifyTaskAssigned)
	theirs := testutil.NewTestNotification(other.ID, domain.NotifyBulletin)
	require.NoError(t, env.notifications.Create(ctx, mine))
	require.NoError(t, env.notifications.Create(ctx, theirs))

	rec := env.do(t, http.MethodGet, "/api/notifications", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Notifications []struct {
			ID   string `json:"id"`
			Read bool   `json:"read"`
		} `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, mine.ID, list.Notifications[0].ID)
	assert.False(t, list.Notifications[0].Read)

	rec = env.do(t, http.MethodPost, "/api/notifications/"+mine.ID+"/read", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/notifications?unread=true", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Notifications)

	// Another recipient's notification is indistinguishable from a missing
	// one.
	rec = env.do(t, http.MethodPost, "/api/notifications/"+theirs.ID+"/read", "admin-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The anonymous-tier key carries no identity and cannot read an inbox.
	rec = env.do(t, http.MethodGet, "/api/notifications", "anon-key", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
