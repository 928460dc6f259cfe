package swcache

import (
	"context"
	"sync"
)

// BucketStore is the persistence behind the cache manager. It mirrors the
// browser Cache API surface: named buckets of keyed responses, deletable
// only at bucket granularity, with byte accounting for budget enforcement.
type BucketStore interface {
	Get(ctx context.Context, bucket, key string) (*Response, bool, error)
	Put(ctx context.Context, bucket, key string, resp *Response) error
	DeleteBucket(ctx context.Context, bucket string) (bool, error)
	Buckets(ctx context.Context) ([]string, error)
	BucketSize(ctx context.Context, bucket string) (int64, error)
}

// MemoryStore is an in-memory BucketStore.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*Response
	sizes   map[string]int64
	order   []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]map[string]*Response),
		sizes:   make(map[string]int64),
	}
}

func (s *MemoryStore) Get(_ context.Context, bucket, key string) (*Response, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.buckets[bucket]
	if !ok {
		return nil, false, nil
	}
	resp, ok := entries[key]
	if !ok {
		return nil, false, nil
	}
	return resp.clone(), true, nil
}

func (s *MemoryStore) Put(_ context.Context, bucket, key string, resp *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.buckets[bucket]
	if !ok {
		entries = make(map[string]*Response)
		s.buckets[bucket] = entries
		s.order = append(s.order, bucket)
	}
	if old, ok := entries[key]; ok {
		s.sizes[bucket] -= old.size()
	}
	stored := resp.clone()
	entries[key] = stored
	s.sizes[bucket] += stored.size()
	return nil
}

func (s *MemoryStore) DeleteBucket(_ context.Context, bucket string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		return false, nil
	}
	delete(s.buckets, bucket)
	delete(s.sizes, bucket)
	for i, name := range s.order {
		if name == bucket {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *MemoryStore) Buckets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...), nil
}

func (s *MemoryStore) BucketSize(_ context.Context, bucket string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sizes[bucket], nil
}
