package server

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mfallon/taskdesk/internal/notify"
	"github.com/mfallon/taskdesk/internal/offline"
	"github.com/mfallon/taskdesk/internal/report"
	"github.com/mfallon/taskdesk/internal/swcache"
)

// Deps carries the wired services the server exposes.
type Deps struct {
	Reports  report.Service
	Notifier *notify.Dispatcher
	Inbox    *notify.Inbox
	Queue    *offline.Manager
	Cache    *swcache.Manager
	Auth     Authenticator

	// PublicKey is the anonymous-tier credential accepted on the queue and
	// cache surfaces, where no user identity is needed.
	PublicKey string

	Logger *slog.Logger
}

// Server exposes the report, notification, queue and cache surfaces over
// HTTP.
type Server struct {
	router    *gin.Engine
	reports   report.Service
	notifier  *notify.Dispatcher
	inbox     *notify.Inbox
	queue     *offline.Manager
	cache     *swcache.Manager
	auth      Authenticator
	publicKey string
	logger    *slog.Logger
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true

	s := &Server{
		router:    router,
		reports:   d.Reports,
		notifier:  d.Notifier,
		inbox:     d.Inbox,
		queue:     d.Queue,
		cache:     d.Cache,
		auth:      d.Auth,
		publicKey: d.PublicKey,
		logger:    logger,
	}

	router.Use(gin.Recovery(), s.requestLog)

	router.GET("/healthz", s.handleHealth)
	router.POST("/functions/notify", s.handleNotify)

	api := router.Group("/api")
	{
		api.POST("/reports", s.requireUser, s.handleReport)

		api.GET("/notifications", s.requireUser, s.handleNotificationList)
		api.POST("/notifications/:id/read", s.requireUser, s.handleNotificationRead)

		queue := api.Group("/queue", s.requireRead)
		{
			queue.GET("/status", s.handleQueueStatus)
			queue.GET("/failed", s.handleQueueFailed)
			queue.POST("", s.handleQueueEnqueue)
			queue.POST("/online", s.handleQueueOnline)
			queue.POST("/retry", s.handleQueueRetry)
			queue.POST("/clear", s.handleQueueClear)
		}

		api.POST("/cache/message", s.requireRead, s.handleCacheMessage)
	}

	return s
}

// Run starts the HTTP server on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Info("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
