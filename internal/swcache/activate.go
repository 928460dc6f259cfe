package swcache

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mfallon/taskdesk/internal/domain"
)

// Activate performs the version sweep and budget enforcement. Only one
// activation runs at a time; a second call while one is in flight is a
// no-op.
func (m *Manager) Activate(ctx context.Context) error {
	if !m.activating.CompareAndSwap(false, true) {
		return nil
	}
	defer m.activating.Store(false)

	if err := m.sweepStaleVersions(ctx); err != nil {
		return err
	}
	return m.enforceBudget(ctx)
}

// sweepStaleVersions deletes owned buckets tagged with any version other
// than the current one.
func (m *Manager) sweepStaleVersions(ctx context.Context) error {
	names, err := m.store.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("listing buckets: %w", err)
	}

	currentSuffix := "-v" + m.cfg.Version
	for _, name := range names {
		if !m.owns(name) || strings.HasSuffix(name, currentSuffix) {
			continue
		}
		if _, err := m.store.DeleteBucket(ctx, name); err != nil {
			return fmt.Errorf("deleting stale bucket %s: %w", name, err)
		}
		m.logger.Info("stale cache bucket deleted", "bucket", name)
	}
	return nil
}

// enforceBudget deletes whole owned buckets, ascending by size, until the
// total is under the ceiling. Eviction is bucket-granular, not per-entry.
func (m *Manager) enforceBudget(ctx context.Context) error {
	names, err := m.store.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("listing buckets: %w", err)
	}

	type sized struct {
		name string
		size int64
	}
	var owned []sized
	var total int64
	for _, name := range names {
		if !m.owns(name) {
			continue
		}
		size, err := m.store.BucketSize(ctx, name)
		if err != nil {
			return fmt.Errorf("sizing bucket %s: %w", name, err)
		}
		owned = append(owned, sized{name: name, size: size})
		total += size
	}
	if total <= m.cfg.BudgetBytes {
		return nil
	}

	sort.Slice(owned, func(i, j int) bool { return owned[i].size < owned[j].size })
	for _, b := range owned {
		if total <= m.cfg.BudgetBytes {
			break
		}
		if _, err := m.store.DeleteBucket(ctx, b.name); err != nil {
			return fmt.Errorf("evicting bucket %s: %w", b.name, err)
		}
		total -= b.size
		m.logger.Info("cache bucket evicted", "bucket", b.name, "bytes", b.size)
	}
	return nil
}

func (m *Manager) owns(bucket string) bool {
	return strings.HasPrefix(bucket, m.cfg.Prefix+"-")
}

// HandleMessage services control commands from the owning page.
func (m *Manager) HandleMessage(ctx context.Context, msg Message) (MessageReply, error) {
	switch msg.Type {
	case MsgClearCache:
		if err := m.clearAll(ctx); err != nil {
			return MessageReply{Type: "CACHE_CLEARED"}, err
		}
		return MessageReply{Type: "CACHE_CLEARED", Success: true}, nil
	case MsgSkipWaiting:
		if err := m.Activate(ctx); err != nil {
			return MessageReply{Type: "ACTIVATED"}, err
		}
		return MessageReply{Type: "ACTIVATED", Success: true}, nil
	default:
		return MessageReply{}, fmt.Errorf("%w: unknown message type %q", domain.ErrInvalidPayload, msg.Type)
	}
}

func (m *Manager) clearAll(ctx context.Context) error {
	names, err := m.store.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("listing buckets: %w", err)
	}
	for _, name := range names {
		if !m.owns(name) {
			continue
		}
		if _, err := m.store.DeleteBucket(ctx, name); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
	}
	m.logger.Info("all cache buckets cleared")
	return nil
}
