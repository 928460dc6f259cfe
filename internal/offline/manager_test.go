package offline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/repository"
	"github.com/mfallon/taskdesk/internal/testutil"
)

// fakeDispatcher records dispatched operations and fails on demand.
type fakeDispatcher struct {
	mu      sync.Mutex
	ops     []Operation
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeDispatcher) Dispatch(_ context.Context, op Operation) error {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
	return f.err
}

func (f *fakeDispatcher) dispatched() []Operation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Operation(nil), f.ops...)
}

func newTestManager(t *testing.T, dispatch Dispatcher, cfg Config) (*Manager, repository.QueueRepo) {
	t.Helper()
	queue := repository.NewSQLiteQueueRepo(testutil.NewTestDB(t))
	return NewManager(queue, dispatch, cfg, nil), queue
}

func TestDrain_ReplaysInEnqueueOrderAndRemoves(t *testing.T) {
	dispatch := &fakeDispatcher{}
	m, queue := newTestManager(t, dispatch, Config{})
	ctx := context.Background()

	for _, endpoint := range []string{"/tasks/1", "/tasks/2", "/tasks/3"} {
		_, err := m.Enqueue(ctx, Operation{Method: http.MethodPatch, Endpoint: endpoint, Payload: `{}`})
		require.NoError(t, err)
	}

	require.NoError(t, m.Drain(ctx))

	ops := dispatch.dispatched()
	require.Len(t, ops, 3)
	assert.Equal(t, "/tasks/1", ops[0].Endpoint)
	assert.Equal(t, "/tasks/2", ops[1].Endpoint)
	assert.Equal(t, "/tasks/3", ops[2].Endpoint)

	counts, err := queue.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Pending)
	assert.Zero(t, counts.Processing)
	assert.Zero(t, counts.Failed)
}

func TestDrain_TransientFailureReturnsToPending(t *testing.T) {
	dispatch := &fakeDispatcher{err: errors.New("connection refused")}
	m, queue := newTestManager(t, dispatch, Config{MaxAttempts: 3})
	ctx := context.Background()

	id, err := m.Enqueue(ctx, Operation{Method: http.MethodPost, Endpoint: "/tasks"})
	require.NoError(t, err)

	require.NoError(t, m.Drain(ctx))

	op, err := queue.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.OpPending, op.Status)
	assert.Equal(t, 1, op.Attempts)
}

func TestDrain_ExhaustedAttemptsParkAsFailed(t *testing.T) {
	dispatch := &fakeDispatcher{err: errors.New("connection refused")}
	m, queue := newTestManager(t, dispatch, Config{MaxAttempts: 3})
	ctx := context.Background()

	id, err := m.Enqueue(ctx, Operation{Method: http.MethodPost, Endpoint: "/tasks"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Drain(ctx))
	}

	op, err := queue.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.OpFailed, op.Status)
	assert.Equal(t, 3, op.Attempts)

	// Failed operations are excluded from further automatic drains.
	before := len(dispatch.dispatched())
	require.NoError(t, m.Drain(ctx))
	assert.Equal(t, before, len(dispatch.dispatched()))
}

func TestDrain_ConcurrentInvocationIsNoOp(t *testing.T) {
	dispatch := &fakeDispatcher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	m, _ := newTestManager(t, dispatch, Config{})
	ctx := context.Background()

	_, err := m.Enqueue(ctx, Operation{Method: http.MethodPost, Endpoint: "/tasks"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- m.Drain(ctx) }()
	<-dispatch.started

	// Second drain while the first holds the in-flight flag.
	require.NoError(t, m.Drain(ctx))
	assert.Empty(t, dispatch.dispatched(), "second drain must not double-send")

	close(dispatch.release)
	require.NoError(t, <-done)
	assert.Len(t, dispatch.dispatched(), 1)
}

func TestSetOnline_TransitionTriggersDrain(t *testing.T) {
	dispatch := &fakeDispatcher{}
	m, _ := newTestManager(t, dispatch, Config{})
	ctx := context.Background()

	require.NoError(t, m.SetOnline(ctx, false))
	_, err := m.Enqueue(ctx, Operation{Method: http.MethodPost, Endpoint: "/tasks"})
	require.NoError(t, err)
	assert.Empty(t, dispatch.dispatched())

	require.NoError(t, m.SetOnline(ctx, true))
	assert.Len(t, dispatch.dispatched(), 1)

	// Staying online does not re-trigger.
	require.NoError(t, m.SetOnline(ctx, true))
	assert.Len(t, dispatch.dispatched(), 1)
}

func TestManualFailedOpControls(t *testing.T) {
	dispatch := &fakeDispatcher{err: errors.New("boom")}
	m, queue := newTestManager(t, dispatch, Config{MaxAttempts: 1})
	ctx := context.Background()

	id, err := m.Enqueue(ctx, Operation{Method: http.MethodPost, Endpoint: "/tasks"})
	require.NoError(t, err)
	require.NoError(t, m.Drain(ctx))

	counts, err := m.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Failed)

	require.NoError(t, m.RetryFailed(ctx, id))
	op, err := queue.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.OpPending, op.Status)

	require.NoError(t, m.Drain(ctx))
	n, err := m.ClearFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	counts, err = m.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Failed)
}

func TestRetryFailed_OnlyParkedOperations(t *testing.T) {
	m, _ := newTestManager(t, &fakeDispatcher{}, Config{})
	ctx := context.Background()

	assert.ErrorIs(t, m.RetryFailed(ctx, "nonexistent"), domain.ErrNotFound)

	id, err := m.Enqueue(ctx, Operation{Method: http.MethodPost, Endpoint: "/tasks"})
	require.NoError(t, err)
	assert.ErrorIs(t, m.RetryFailed(ctx, id), domain.ErrInvalidParameters,
		"a pending operation is not retryable")
}

func TestListFailed(t *testing.T) {
	dispatch := &fakeDispatcher{err: errors.New("boom")}
	m, _ := newTestManager(t, dispatch, Config{MaxAttempts: 1})
	ctx := context.Background()

	id, err := m.Enqueue(ctx, Operation{Method: http.MethodDelete, Endpoint: "/tasks/1"})
	require.NoError(t, err)
	require.NoError(t, m.Drain(ctx))

	failed, err := m.ListFailed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, id, failed[0].ID)
	assert.Equal(t, domain.OpFailed, failed[0].Status)
}

func TestEnqueue_RequiresMethodAndEndpoint(t *testing.T) {
	m, _ := newTestManager(t, &fakeDispatcher{}, Config{})

	_, err := m.Enqueue(context.Background(), Operation{Endpoint: "/tasks"})
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestHTTPDispatcher_ReplaysOperation(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewHTTPDispatcher(srv.URL, "svc-secret")
	err := d.Dispatch(context.Background(), Operation{
		Method:   http.MethodPatch,
		Endpoint: "/api/tasks/42",
		Payload:  `{"status":"done"}`,
	})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/tasks/42", gotPath)
	assert.Equal(t, "Bearer svc-secret", gotAuth)
	assert.Equal(t, `{"status":"done"}`, gotBody)
}

func TestHTTPDispatcher_NonSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conflict", http.StatusConflict)
	}))
	defer srv.Close()

	d := NewHTTPDispatcher(srv.URL, "")
	err := d.Dispatch(context.Background(), Operation{Method: http.MethodPost, Endpoint: "/api/tasks"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}
