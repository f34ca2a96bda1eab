package udlf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPTransport invokes an externally-hosted callable over HTTP POST,
// grounded on lookupsrc.HTTPJSONSource's bounded-timeout http.Client
// pattern. The request/reply bodies are the msgpack payloads Adapter
// produces and consumes; HTTPTransport itself is protocol plumbing only.
type HTTPTransport struct {
	URL    string
	client *http.Client
}

// NewHTTPTransport builds an HTTPTransport posting to url, using a
// bounded-timeout http.Client (default 5s if timeout is zero).
func NewHTTPTransport(url string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPTransport{URL: url, client: &http.Client{Timeout: timeout}}
}

// Invoke posts payload as the request body and returns the response body.
// A non-2xx status is treated as the callable's own exception.
func (t *HTTPTransport) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("udlf http transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/msgpack")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("udlf http transport: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("udlf http transport: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("udlf http transport: %s returned %s: %s", t.URL, resp.Status, body)
	}
	return body, nil
}
