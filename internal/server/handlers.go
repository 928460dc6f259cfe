package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mfallon/taskdesk/internal/domain"
	"github.com/mfallon/taskdesk/internal/notify"
	"github.com/mfallon/taskdesk/internal/offline"
	"github.com/mfallon/taskdesk/internal/report"
	"github.com/mfallon/taskdesk/internal/swcache"
)

func (s *Server) handleReport(c *gin.Context) {
	var req report.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidParameters, err))
		return
	}
	req.RequestedBy = c.GetString(userIDKey)

	rep, err := s.reports.Generate(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleNotify(c *gin.Context) {
	var ev notify.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
		return
	}
	ev.ServiceCredential = bearerToken(c)

	result, err := s.notifier.Dispatch(c.Request.Context(), ev)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// notificationView is the JSON shape of one inbox entry.
type notificationView struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	RelatedID   *string   `json:"relatedId,omitempty"`
	RelatedType *string   `json:"relatedType,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *Server) handleNotificationList(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	list, err := s.inbox.List(c.Request.Context(), c.GetString(userIDKey), unreadOnly)
	if err != nil {
		abortWithError(c, err)
		return
	}

	views := make([]notificationView, 0, len(list))
	for _, n := range list {
		views = append(views, notificationView{
			ID:          n.ID,
			Type:        string(n.Type),
			Title:       n.Title,
			Message:     n.Message,
			RelatedID:   n.RelatedID,
			RelatedType: n.RelatedType,
			Read:        n.Read,
			CreatedAt:   n.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": views})
}

func (s *Server) handleNotificationRead(c *gin.Context) {
	id := c.Param("id")
	if err := s.inbox.MarkRead(c.Request.Context(), c.GetString(userIDKey), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "read": true})
}

type enqueueRequest struct {
	Method   string `json:"method"`
	Endpoint string `json:"endpoint"`
	Payload  string `json:"payload"`
}

// handleQueueEnqueue persists a deferred mutation for later replay.
func (s *Server) handleQueueEnqueue(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
		return
	}

	id, err := s.queue.Enqueue(c.Request.Context(), offline.Operation{
		Method:   req.Method,
		Endpoint: req.Endpoint,
		Payload:  req.Payload,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id, "status": "pending"})
}

type onlineRequest struct {
	Online *bool `json:"online"`
}

// handleQueueOnline records connectivity. The offline-to-online transition
// drains the queue before responding.
func (s *Server) handleQueueOnline(c *gin.Context) {
	var req onlineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Online == nil {
		abortWithError(c, fmt.Errorf("%w: body requires an online flag", domain.ErrInvalidPayload))
		return
	}

	if err := s.queue.SetOnline(c.Request.Context(), *req.Online); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": s.queue.Online()})
}

// queuedOpView is the JSON shape of one parked operation.
type queuedOpView struct {
	ID        string    `json:"id"`
	Method    string    `json:"method"`
	Endpoint  string    `json:"endpoint"`
	Attempts  int       `json:"attempts"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Server) handleQueueFailed(c *gin.Context) {
	ops, err := s.queue.ListFailed(c.Request.Context())
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", domain.ErrDataFetch, err))
		return
	}

	views := make([]queuedOpView, 0, len(ops))
	for _, op := range ops {
		views = append(views, queuedOpView{
			ID:        op.ID,
			Method:    op.Method,
			Endpoint:  op.Endpoint,
			Attempts:  op.Attempts,
			UpdatedAt: op.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"failed": views})
}

func (s *Server) handleCacheMessage(c *gin.Context) {
	var msg swcache.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
		return
	}

	reply, err := s.cache.HandleMessage(c.Request.Context(), msg)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) handleQueueStatus(c *gin.Context) {
	counts, err := s.queue.Counts(c.Request.Context())
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", domain.ErrDataFetch, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":    counts.Pending,
		"processing": counts.Processing,
		"failed":     counts.Failed,
	})
}

type queueOpRequest struct {
	ID string `json:"id"`
}

// handleQueueRetry requeues one failed operation when an ID is supplied,
// otherwise all of them.
func (s *Server) handleQueueRetry(c *gin.Context) {
	var req queueOpRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err))
			return
		}
	}

	if req.ID != "" {
		if err := s.queue.RetryFailed(c.Request.Context(), req.ID); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"requeued": 1})
		return
	}

	n, err := s.queue.RetryAllFailed(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requeued": n})
}

func (s *Server) handleQueueClear(c *gin.Context) {
	n, err := s.queue.ClearFailed(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}
