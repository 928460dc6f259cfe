package swcache

import (
	"context"
	"net/http"
)

// servedFromHeader marks responses that did not come fresh off the network.
const servedFromHeader = "X-Served-From"

// passThrough forwards the request untouched. Errors are the caller's
// problem; nothing here may cache.
func (m *Manager) passThrough(ctx context.Context, req *Request) (*Response, error) {
	return m.fetch.Fetch(ctx, req)
}

// networkOnly fetches fresh and degrades to a synthetic unavailable
// response. Used for credentialed requests where serving another user's
// cached data would be worse than failing.
func (m *Manager) networkOnly(ctx context.Context, req *Request) (*Response, error) {
	resp, err := m.fetch.Fetch(ctx, req)
	if err != nil {
		return syntheticUnavailable(), nil
	}
	return resp, nil
}

// cacheFirst serves the cached copy when present, otherwise fetches and
// caches per the cacheable predicate.
func (m *Manager) cacheFirst(ctx context.Context, req *Request, bucket string, cacheable func(*Response) bool) (*Response, error) {
	cached, hit, err := m.store.Get(ctx, bucket, req.Path)
	if err == nil && hit {
		cached.Headers.Set(servedFromHeader, "cache")
		return cached, nil
	}

	resp, err := m.fetch.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if cacheable(resp) {
		m.put(ctx, bucket, req.Path, resp)
	}
	return resp, nil
}

// staleWhileRevalidate serves the cached copy immediately while refreshing
// it in the background. With no cached copy it waits on the network and
// falls back to the synthetic offline page.
func (m *Manager) staleWhileRevalidate(ctx context.Context, req *Request, bucket string) (*Response, error) {
	cached, hit, err := m.store.Get(ctx, bucket, req.Path)
	if err == nil && hit {
		m.revalidations.Add(1)
		go func() {
			defer m.revalidations.Done()
			bg := context.WithoutCancel(ctx)
			resp, err := m.fetch.Fetch(bg, req)
			if err != nil || !resp.ok() {
				return
			}
			m.put(bg, bucket, req.Path, resp)
		}()
		cached.Headers.Set(servedFromHeader, "cache")
		return cached, nil
	}

	resp, err := m.fetch.Fetch(ctx, req)
	if err != nil {
		return m.offlinePage(), nil
	}
	if resp.ok() {
		m.put(ctx, bucket, req.Path, resp)
	}
	return resp, nil
}

// networkFirst prefers fresh data and caches it; on network failure it
// serves the cached copy annotated as stale, else a synthetic error.
func (m *Manager) networkFirst(ctx context.Context, req *Request, bucket string) (*Response, error) {
	resp, err := m.fetch.Fetch(ctx, req)
	if err == nil {
		if resp.ok() {
			m.put(ctx, bucket, req.Path, resp)
		}
		return resp, nil
	}

	cached, hit, cacheErr := m.store.Get(ctx, bucket, req.Path)
	if cacheErr == nil && hit {
		cached.Headers.Set(servedFromHeader, "cache")
		return cached, nil
	}
	return syntheticUnavailable(), nil
}

// put caches a response, logging rather than failing on store errors. A
// broken cache must never break the request path.
func (m *Manager) put(ctx context.Context, bucket, key string, resp *Response) {
	if err := m.store.Put(ctx, bucket, key, resp); err != nil {
		m.logger.Warn("cache write failed", "bucket", bucket, "key", key, "error", err.Error())
	}
}

func syntheticUnavailable() *Response {
	return &Response{
		StatusCode: http.StatusServiceUnavailable,
		Headers:    http.Header{servedFromHeader: []string{"synthetic"}},
		Body:       []byte("service unavailable"),
	}
}

func (m *Manager) offlinePage() *Response {
	return &Response{
		StatusCode: http.StatusServiceUnavailable,
		Headers: http.Header{
			"Content-Type":   []string{"text/html; charset=utf-8"},
			servedFromHeader: []string{"synthetic"},
		},
		Body: append([]byte(nil), m.cfg.OfflinePage...),
	}
}
