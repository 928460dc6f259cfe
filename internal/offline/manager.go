package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/repository"
)

// Operation is one deferred mutation to replay against the API.
type Operation struct {
	Method   string
	Endpoint string
	Payload  string
}

// Config tunes the queue manager.
type Config struct {
	// MaxAttempts is the attempt count at which an operation stops
	// auto-retrying and parks as failed.
	MaxAttempts int

	// DrainInterval is the periodic drain cadence while online.
	DrainInterval time.Duration
}

const (
	defaultMaxAttempts   = 5
	defaultDrainInterval = 30 * time.Second
)

// Manager owns the offline write queue: it persists deferred mutations and
// replays them in strict enqueue order, one drain at a time.
type Manager struct {
	queue    repository.QueueRepo
	dispatch Dispatcher
	logger   *slog.Logger

	maxAttempts   int
	drainInterval time.Duration

	draining atomic.Bool
	online   atomic.Bool
}

func NewManager(queue repository.QueueRepo, dispatch Dispatcher, cfg Config, logger *slog.Logger) *Manager {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.DrainInterval <= 0 {
		cfg.DrainInterval = defaultDrainInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Manager{
		queue:         queue,
		dispatch:      dispatch,
		logger:        logger,
		maxAttempts:   cfg.MaxAttempts,
		drainInterval: cfg.DrainInterval,
	}
	m.online.Store(true)
	return m
}

// Enqueue persists the operation with attempt count zero.
func (m *Manager) Enqueue(ctx context.Context, op Operation) (string, error) {
	if op.Method == "" || op.Endpoint == "" {
		return "", fmt.Errorf("%w: operation requires method and endpoint", domain.ErrInvalidParameters)
	}
	now := time.Now().UTC()
	queued := &repository.QueuedOp{
		ID:        uuid.New().String(),
		Method:    op.Method,
		Endpoint:  op.Endpoint,
		Payload:   op.Payload,
		Attempts:  0,
		Status:    domain.OpPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.queue.Enqueue(ctx, queued); err != nil {
		return "", fmt.Errorf("enqueueing operation: %w", err)
	}
	m.logger.Info("operation queued", "op_id", queued.ID, "method", op.Method, "endpoint", op.Endpoint)
	return queued.ID, nil
}

// Drain replays pending operations oldest-first. A drain invoked while
// another is in flight is a no-op, never a queued duplicate. A dispatch in
// progress is not cancelled; the context is only consulted between
// operations.
func (m *Manager) Drain(ctx context.Context) error {
	if !m.draining.CompareAndSwap(false, true) {
		return nil
	}
	defer m.draining.Store(false)

	ops, err := m.queue.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("listing pending operations: %w", err)
	}

	for _, op := range ops {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := m.drainOne(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) drainOne(ctx context.Context, op *repository.QueuedOp) error {
	// Claiming flips pending to processing; a row already claimed by another
	// process surfaces as NotFound and is simply skipped.
	if err := m.queue.MarkProcessing(ctx, op.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("claiming operation %s: %w", op.ID, err)
	}

	dispatchErr := m.dispatch.Dispatch(ctx, Operation{
		Method:   op.Method,
		Endpoint: op.Endpoint,
		Payload:  op.Payload,
	})
	if dispatchErr == nil {
		if err := m.queue.Delete(ctx, op.ID); err != nil {
			return fmt.Errorf("removing replayed operation %s: %w", op.ID, err)
		}
		m.logger.Info("operation replayed", "op_id", op.ID, "endpoint", op.Endpoint)
		return nil
	}

	attempts := op.Attempts + 1
	if attempts >= m.maxAttempts {
		if err := m.queue.MarkFailed(ctx, op.ID, attempts); err != nil {
			return fmt.Errorf("parking exhausted operation %s: %w", op.ID, err)
		}
		m.logger.Warn("operation failed permanently",
			"op_id", op.ID, "endpoint", op.Endpoint, "attempts", attempts, "error", dispatchErr.Error())
		return nil
	}
	if err := m.queue.ReturnToPending(ctx, op.ID, attempts); err != nil {
		return fmt.Errorf("requeueing operation %s: %w", op.ID, err)
	}
	m.logger.Warn("operation replay failed, will retry",
		"op_id", op.ID, "endpoint", op.Endpoint, "attempts", attempts, "error", dispatchErr.Error())
	return nil
}

// SetOnline records connectivity. The offline-to-online transition triggers
// an immediate drain.
func (m *Manager) SetOnline(ctx context.Context, online bool) error {
	was := m.online.Swap(online)
	if online && !was {
		m.logger.Info("connectivity restored, draining queue")
		return m.Drain(ctx)
	}
	return nil
}

// Online reports the last recorded connectivity state.
func (m *Manager) Online() bool {
	return m.online.Load()
}

// Run drains periodically while online, until the context ends.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !m.online.Load() {
				continue
			}
			if err := m.Drain(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error("periodic drain failed", "error", err.Error())
			}
		}
	}
}

// Counts reports live queue health.
func (m *Manager) Counts(ctx context.Context) (repository.QueueCounts, error) {
	return m.queue.Counts(ctx)
}

// ListFailed returns the parked operations oldest-first.
func (m *Manager) ListFailed(ctx context.Context) ([]*repository.QueuedOp, error) {
	return m.queue.ListFailed(ctx)
}

// RetryFailed returns one failed operation to the pending state. Only
// parked operations are eligible; anything else is still in flight.
func (m *Manager) RetryFailed(ctx context.Context, id string) error {
	op, err := m.queue.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if op.Status != domain.OpFailed {
		return fmt.Errorf("%w: operation %s is %s, not failed", domain.ErrInvalidParameters, id, op.Status)
	}
	return m.queue.RequeueFailed(ctx, id)
}

// RetryAllFailed requeues every failed operation and reports how many.
func (m *Manager) RetryAllFailed(ctx context.Context) (int, error) {
	return m.queue.RequeueAllFailed(ctx)
}

// ClearFailed drops all failed operations and reports how many.
func (m *Manager) ClearFailed(ctx context.Context) (int, error) {
	return m.queue.ClearFailed(ctx)
}
