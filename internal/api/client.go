package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// retryPolicy bounds doWithRetry: max retries after the initial attempt,
// starting from base and doubling.
type retryPolicy struct {
	max  int
	base time.Duration
}

// Client provides access to the daemon REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
	retry   retryPolicy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a REST client for the daemon at baseURL. The token, when
// non-empty, is forwarded as a bearer Authorization header on every request.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
		retry:   retryPolicy{max: 3, base: time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRetries sets the retry budget and the initial backoff.
func WithRetries(max int, base time.Duration) ClientOption {
	return func(c *Client) {
		c.retry = retryPolicy{max: max, base: base}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}
