package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is the finite per-request timeout applied when a provider
// config does not specify one. Every outbound call must complete or fail
// within a bounded window so a hung provider cannot stall a fan-out cycle
// indefinitely.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a provider response is read. Providers
// return bounded result pages; anything larger is a misbehaving upstream.
const maxResponseBytes = 4 << 20

// NewHTTPClient returns an HTTP client with a finite timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// HTTPError represents a non-success HTTP response from a provider.
type HTTPError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// GetJSON issues a GET request, verifies a 2xx status, and decodes the JSON
// body into v. Extra headers (API keys, accept types) are applied when
// non-nil.
func GetJSON(ctx context.Context, client *http.Client, url string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused, then report.
		_, _ = io.CopyN(io.Discard, resp.Body, 512)
		return &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body := io.LimitReader(resp.Body, maxResponseBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// GetBody issues a GET request, verifies a 2xx status, and returns the raw
// body. Used by HTML-scraping adapters.
func GetBody(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.CopyN(io.Discard, resp.Body, 512)
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}
