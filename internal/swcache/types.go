package swcache

import (
	"context"
	"net/http"
	"strings"
)

// Request is the service-worker view of one outgoing request. Destination
// mirrors the fetch API's request.destination hint.
type Request struct {
	Method      string
	Path        string
	Destination string
	Headers     http.Header
}

func (r *Request) header(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(name)
}

// hasBearer reports whether the request carries a bearer credential.
func (r *Request) hasBearer() bool {
	return strings.HasPrefix(r.header("Authorization"), "Bearer ")
}

// isWrite reports whether the method is non-idempotent.
func (r *Request) isWrite() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

// isNavigation reports whether this is a document navigation.
func (r *Request) isNavigation() bool {
	return r.Destination == "document"
}

// Response is a cacheable response snapshot.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func (r *Response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) size() int64 {
	return int64(len(r.Body))
}

// clone deep-copies the response so cached bodies cannot be mutated by
// callers.
func (r *Response) clone() *Response {
	c := &Response{
		StatusCode: r.StatusCode,
		Headers:    make(http.Header, len(r.Headers)),
		Body:       append([]byte(nil), r.Body...),
	}
	for k, v := range r.Headers {
		c.Headers[k] = append([]string(nil), v...)
	}
	return c
}

// Fetcher is the network. The HTTP implementation lives with the caller;
// tests substitute fakes.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req *Request) (*Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Message is a control command from the page that owns the worker.
type Message struct {
	Type string `json:"type"`
}

const (
	MsgClearCache  = "CLEAR_CACHE"
	MsgSkipWaiting = "SKIP_WAITING"
)

// MessageReply acknowledges a control command.
type MessageReply struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}
