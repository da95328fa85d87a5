package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultRateLimit = 5.0
	defaultRateBurst = 2
	defaultUserAgent = "genesisclient/1.0"
	baseBackoff      = 100 * time.Millisecond
	maxErrorSnippet  = 200
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// ClientConfig configures a Client. Zero values select the defaults.
type ClientConfig struct {
	// BaseURL is the site root; request paths are appended to it.
	BaseURL string

	// Timeout bounds one attempt, including reading the body. Default 60s.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after a retryable
	// failure. Zero means a single attempt.
	MaxRetries int

	// RateLimit in requests per second (default 5) with burst RateBurst
	// (default 2).
	RateLimit float64
	RateBurst int

	// Headers are sent with every request.
	Headers map[string]string

	// UserAgent defaults to "genesisclient/1.0".
	UserAgent string

	// RetryIf decides whether an error response is worth another attempt.
	// Defaults to 429 and 5xx.
	RetryIf func(*HTTPError) bool

	// Transport replaces http.DefaultTransport.
	Transport http.RoundTripper
}

// DefaultClientConfig returns a config with all defaults filled in.
func DefaultClientConfig() *ClientConfig {
	cfg := &ClientConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *ClientConfig) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RateLimit <= 0 {
		c.RateLimit = defaultRateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = defaultRateBurst
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RetryIf == nil {
		c.RetryIf = func(e *HTTPError) bool { return e.IsRateLimited() || e.IsServerError() }
	}
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client posts request bodies to one site, paced by a token bucket and
// retried with exponential backoff.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client; a nil config uses the defaults.
func NewClient(config *ClientConfig) *Client {
	var cfg ClientConfig
	if config != nil {
		cfg = *config
	}
	cfg.applyDefaults()

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// PostRaw posts body to path with the given content type and extra headers.
// Responses with status >= 400 are returned as *HTTPError.
func (c *Client) PostRaw(ctx context.Context, path, contentType string, body []byte, headers map[string]string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	target := c.url(path)
	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := c.post(ctx, target, contentType, body, headers)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var httpErr *HTTPError
		if !errors.As(err, &httpErr) || !c.cfg.RetryIf(httpErr) {
			return nil, err
		}
		if attempt >= c.cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(baseBackoff << attempt):
		}
	}

	if c.cfg.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) url(path string) string {
	if path == "" {
		return c.cfg.BaseURL
	}
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) post(ctx context.Context, target, contentType string, body []byte, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Content-Type", contentType)
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: data}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// =============================================================================
// ERRORS
// =============================================================================

// HTTPError is a response with status >= 400. Body holds the full response,
// which for SOAP services usually carries a fault document.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	msg := string(e.Body)
	if len(msg) > maxErrorSnippet {
		msg = msg[:maxErrorSnippet] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

// IsRateLimited reports a 429 response.
func (e *HTTPError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsServerError reports a 5xx response.
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500
}
