// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retrying, timeout-bounded HTTP client shared
// by every access layer. It is the only place retries happen; protocol
// clients above it propagate errors without retrying.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/pdiddy/repo-access/internal/ratelimit"
	"github.com/pdiddy/repo-access/pkg/types"
)

// RetryBaseDelay controls the base duration for exponential backoff between
// attempts: 1s, 2s, 4s, ... Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// DefaultUserAgents is the browser pool a User-Agent is drawn from per attempt.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// RequestOptions tunes a single fetch. Zero values fall back to the
// client defaults.
type RequestOptions struct {
	Timeout    time.Duration
	MaxRetries int
	Headers    map[string]string
}

// Buffer is a fetched body together with its declared content type.
type Buffer struct {
	Data        []byte
	ContentType string
}

// Client fetches URLs with per-attempt timeouts, exponential backoff and
// User-Agent rotation. When a Limiter is attached, every fetch first
// acquires a token for the target host.
type Client struct {
	hc         *http.Client
	limiter    *ratelimit.Limiter
	timeout    time.Duration
	maxRetries int
	userAgents []string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (tests pass httptest clients).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithLimiter attaches a per-host rate limiter.
func WithLimiter(l *ratelimit.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// New creates a Client from cfg.
func New(cfg types.HTTPConfig, opts ...ClientOption) *Client {
	c := &Client{
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		userAgents: cfg.UserAgents,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if len(c.userAgents) == 0 {
		c.userAgents = DefaultUserAgents
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureTLS {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // academic hosts with stale certificates
		}
		c.hc = &http.Client{Transport: transport}
	}
	return c
}

// FetchText returns the body of rawURL as a string.
func (c *Client) FetchText(ctx context.Context, rawURL string, opts RequestOptions) (string, error) {
	buf, err := c.FetchBuffer(ctx, rawURL, opts)
	if err != nil {
		return "", err
	}
	return string(buf.Data), nil
}

// FetchBuffer returns the body of rawURL with its content type.
//
// Each attempt gets a fresh timeout context. Network failures and HTTP 429
// or 503 responses are retried with a delay of RetryBaseDelay·2^attempt;
// any other non-2xx status returns a *StatusError immediately. After the
// attempts are exhausted a *NetworkError carrying the last cause is
// returned (or the last *StatusError, for throttling responses).
func (c *Client) FetchBuffer(ctx context.Context, rawURL string, opts RequestOptions) (Buffer, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = c.maxRetries
	}

	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, rawURL); err != nil {
			return Buffer{}, &NetworkError{URL: rawURL, Err: err}
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		buf, err := c.attempt(ctx, rawURL, timeout, opts.Headers)
		if err == nil {
			return buf, nil
		}
		if se, ok := err.(*StatusError); ok && !se.retryable() {
			return Buffer{}, se
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt < maxRetries-1 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
			select {
			case <-ctx.Done():
				return Buffer{}, &NetworkError{URL: rawURL, Attempts: attempt + 1, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}
	}

	if se, ok := lastErr.(*StatusError); ok {
		return Buffer{}, se
	}
	return Buffer{}, &NetworkError{URL: rawURL, Attempts: maxRetries, Err: lastErr}
}

// attempt performs one request bounded by its own timeout.
func (c *Client) attempt(ctx context.Context, rawURL string, timeout time.Duration, headers map[string]string) (Buffer, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Buffer{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return Buffer{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return Buffer{}, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Buffer{}, fmt.Errorf("reading body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Buffer{Data: data, ContentType: contentType}, nil
}

func (c *Client) userAgent() string {
	return c.userAgents[rand.IntN(len(c.userAgents))]
}
