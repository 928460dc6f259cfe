package swcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	fetchTimeout = 15 * time.Second

	// maxFetchBytes bounds how much of an upstream body gets snapshotted.
	maxFetchBytes = 10 << 20
)

// NewHTTPFetcher returns a Fetcher that resolves request paths against
// baseURL. Response bodies are read fully so the snapshot is cacheable.
func NewHTTPFetcher(baseURL string) Fetcher {
	base := strings.TrimRight(baseURL, "/")
	client := &http.Client{Timeout: fetchTimeout}

	return FetcherFunc(func(ctx context.Context, req *Request) (*Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, base+req.Path, nil)
		if err != nil {
			return nil, fmt.Errorf("building request for %s: %w", req.Path, err)
		}
		for name, values := range req.Headers {
			for _, v := range values {
				httpReq.Header.Add(name, v)
			}
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", req.Path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", req.Path, err)
		}
		return &Response{
			StatusCode: resp.StatusCode,
			Headers:    resp.Header.Clone(),
			Body:       body,
		}, nil
	})
}
