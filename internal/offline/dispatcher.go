package offline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Dispatcher replays one queued operation against the backend. Any error is
// treated as transient; the retry budget decides when to give up.
type Dispatcher interface {
	Dispatch(ctx context.Context, op Operation) error
}

type httpDispatcher struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

// NewHTTPDispatcher replays operations as method+endpoint+payload against
// the API base URL, authenticated with the service credential.
func NewHTTPDispatcher(baseURL, serviceKey string) Dispatcher {
	return &httpDispatcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (d *httpDispatcher) Dispatch(ctx context.Context, op Operation) error {
	var body io.Reader
	if op.Payload != "" {
		body = strings.NewReader(op.Payload)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, d.baseURL+op.Endpoint, body)
	if err != nil {
		return fmt.Errorf("creating replay request: %w", err)
	}
	if op.Payload != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.serviceKey)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("replaying %s %s: %w", op.Method, op.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("replay of %s %s returned status %d: %s",
			op.Method, op.Endpoint, resp.StatusCode, string(detail))
	}
	return nil
}
