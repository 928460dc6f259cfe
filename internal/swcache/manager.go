package swcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Config tunes the cache manager.
type Config struct {
	// Prefix namespaces every bucket this manager owns.
	Prefix string

	// Version tags bucket names; activation drops stale-version buckets.
	Version string

	// BudgetBytes caps total cached bytes across this manager's buckets.
	BudgetBytes int64

	// ImageMaxBytes is the per-image caching ceiling.
	ImageMaxBytes int64

	// ShellPaths are write-exempt application shell paths.
	ShellPaths []string

	// DenyPatterns are path substrings that must never touch the cache.
	DenyPatterns []string

	// APIPrefixes identify read-type data API paths.
	APIPrefixes []string

	// OfflinePage is served to navigations with no cache and no network.
	OfflinePage []byte
}

const (
	defaultBudgetBytes   = 50 << 20
	defaultImageMaxBytes = 1 << 20
)

func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "taskdesk"
	}
	if c.Version == "" {
		c.Version = "1"
	}
	if c.BudgetBytes <= 0 {
		c.BudgetBytes = defaultBudgetBytes
	}
	if c.ImageMaxBytes <= 0 {
		c.ImageMaxBytes = defaultImageMaxBytes
	}
	if c.ShellPaths == nil {
		c.ShellPaths = []string{"/", "/index.html", "/manifest.json"}
	}
	if c.DenyPatterns == nil {
		c.DenyPatterns = []string{"/auth/", "/storage/", "/functions/"}
	}
	if c.APIPrefixes == nil {
		c.APIPrefixes = []string{"/rest/", "/api/"}
	}
	if c.OfflinePage == nil {
		c.OfflinePage = []byte("<html><body><h1>Offline</h1><p>This page is not available without a network connection.</p></body></html>")
	}
}

// Bucket classes. Each class maps to one versioned bucket.
const (
	classImages = "images"
	classAssets = "assets"
	classPages  = "pages"
	classData   = "data"
)

var bucketClasses = []string{classImages, classAssets, classPages, classData}

// Manager decides, per request, whether to serve from cache, fetch fresh,
// or pass through untouched.
type Manager struct {
	store  BucketStore
	fetch  Fetcher
	cfg    Config
	logger *slog.Logger

	activating atomic.Bool

	// revalidations tracks background refreshes so tests and shutdown can
	// wait for them.
	revalidations sync.WaitGroup
}

func NewManager(store BucketStore, fetch Fetcher, cfg Config, logger *slog.Logger) *Manager {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{store: store, fetch: fetch, cfg: cfg, logger: logger}
}

func (m *Manager) bucket(class string) string {
	return fmt.Sprintf("%s-%s-v%s", m.cfg.Prefix, class, m.cfg.Version)
}

// Handle routes one request through the classification chain. Rules are
// evaluated in priority order; the first match short-circuits.
func (m *Manager) Handle(ctx context.Context, req *Request) (*Response, error) {
	switch {
	case req.isWrite() && !m.isShellPath(req.Path):
		return m.passThrough(ctx, req)
	case m.isDenied(req.Path):
		return m.passThrough(ctx, req)
	case req.hasBearer():
		return m.networkOnly(ctx, req)
	case req.Destination == "image":
		return m.cacheFirst(ctx, req, m.bucket(classImages), m.imageCacheable)
	case isStaticAsset(req.Destination):
		return m.cacheFirst(ctx, req, m.bucket(classAssets), func(r *Response) bool { return r.ok() })
	case req.isNavigation():
		return m.staleWhileRevalidate(ctx, req, m.bucket(classPages))
	case m.isReadAPI(req):
		return m.networkFirst(ctx, req, m.bucket(classData))
	default:
		return m.passThrough(ctx, req)
	}
}

func (m *Manager) isShellPath(path string) bool {
	for _, p := range m.cfg.ShellPaths {
		if path == p {
			return true
		}
	}
	return false
}

func (m *Manager) isDenied(path string) bool {
	for _, pattern := range m.cfg.DenyPatterns {
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

func (m *Manager) isReadAPI(req *Request) bool {
	if req.isWrite() {
		return false
	}
	for _, prefix := range m.cfg.APIPrefixes {
		if strings.HasPrefix(req.Path, prefix) {
			return true
		}
	}
	return false
}

func (m *Manager) imageCacheable(r *Response) bool {
	return r.ok() && r.size() <= m.cfg.ImageMaxBytes
}

func isStaticAsset(destination string) bool {
	switch destination {
	case "script", "style", "font":
		return true
	}
	return false
}
