package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mfallon/taskdesk/internal/domain"
)

// EmailMessage is one outbound email.
type EmailMessage struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// EmailClient delivers a single email and returns the provider's message ID.
type EmailClient interface {
	Send(ctx context.Context, msg EmailMessage) (string, error)
}

// resendClient implements EmailClient against a Resend-style HTTP API.
type resendClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	observer Observer
}

const sendTimeout = 10 * time.Second

// NewResendClient creates an EmailClient for the given provider endpoint.
func NewResendClient(endpoint, apiKey string, observer Observer) EmailClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &resendClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// sendRequest is the JSON body sent to POST /emails.
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

func (c *resendClient) Send(ctx context.Context, msg EmailMessage) (string, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	id, err := c.doRequest(ctx, sendRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})

	latency := time.Since(start).Milliseconds()
	if err != nil {
		c.observer.OnDeliveryComplete(DeliveryEvent{
			LatencyMs: latency,
			Success:   false,
			ErrorCode: "provider_error",
		})
		return "", err
	}

	c.observer.OnDeliveryComplete(DeliveryEvent{
		LatencyMs: latency,
		Success:   true,
	})
	return id, nil
}

func (c *resendClient) doRequest(ctx context.Context, body sendRequest) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := c.endpoint + "/emails"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return "", fmt.Errorf("%w: provider returned status %d: %s",
			domain.ErrDelivery, httpResp.StatusCode, string(respBody))
	}

	var resp sendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return resp.ID, nil
}
