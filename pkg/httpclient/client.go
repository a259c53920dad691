// Package httpclient provides a thin wrapper around http.Client for
// calling upstream JSON APIs.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rsierra/ex-maps/pkg/logger"
)

// RequestIDHeader is the header used to propagate request IDs upstream.
const RequestIDHeader = "X-Request-ID"

// Client wraps http.Client with a base URL and request ID propagation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option configures a Client
type Option func(*Client)

// WithUserAgent sets the User-Agent header on outgoing requests
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTransport sets a custom transport, mainly for tests
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// NewClient creates a new HTTP client for the given base URL
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Response carries the raw outcome of an exchange: the HTTP status code
// and the full response body. Interpreting either is the caller's job.
type Response struct {
	StatusCode int
	Body       []byte
}

// Get issues a GET for path (including any encoded query) and returns the
// raw status and body. An error is returned only for transport-level
// failures: building the request, the exchange itself, or reading the
// body. A non-2xx status is not an error at this layer.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if requestID := logger.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
