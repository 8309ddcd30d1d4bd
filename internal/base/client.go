// Package base provides the shared HTTP client infrastructure for the
// upstream recipe API: a request semaphore, a circuit breaker, in-flight
// deduplication and typed remote errors.
package base

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
	"github.com/olgasafonova/mealdb-mcp-server/internal/infra"
	"github.com/olgasafonova/mealdb-mcp-server/metrics"
)

const (
	// DefaultTimeout bounds a single upstream request
	DefaultTimeout = 10 * time.Second

	// MaxConcurrentRequests limits parallel API calls
	MaxConcurrentRequests = 5

	// MaxResponseBytes caps how much of a response body is read
	MaxResponseBytes = 5 << 20

	DefaultUserAgent = "mealdb-mcp-server/1.0"
)

// Client provides common HTTP client infrastructure with rate limiting,
// circuit breaking, and request deduplication. Each request is attempted
// exactly once.
type Client struct {
	HTTPClient     *http.Client
	Logger         *slog.Logger
	Dedup          *infra.Deduplicator[[]byte]
	CircuitBreaker *infra.CircuitBreaker
	Semaphore      chan struct{}
	UserAgent      string
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.HTTPClient = c
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.Logger = l
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		if d > 0 {
			client.HTTPClient.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(client *Client) {
		client.UserAgent = ua
	}
}

// WithCircuitBreaker replaces the default circuit breaker.
func WithCircuitBreaker(cb *infra.CircuitBreaker) ClientOption {
	return func(client *Client) {
		client.CircuitBreaker = cb
	}
}

// NewClient creates a new base client with default settings
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		HTTPClient: newHTTPClient(DefaultTimeout),
		Logger:     slog.Default(),
		Dedup:      infra.NewDeduplicator[[]byte](),
		CircuitBreaker: infra.NewCircuitBreaker(infra.WithStateChange(func(_, to infra.CircuitState) {
			metrics.CircuitState.Set(float64(to))
		})),
		Semaphore: make(chan struct{}, MaxConcurrentRequests),
		UserAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CircuitBreakerStats returns the current circuit breaker state
func (c *Client) CircuitBreakerStats() infra.CircuitBreakerStats {
	return c.CircuitBreaker.Stats()
}

// AcquireSlot blocks until a request slot is available or context is canceled
func (c *Client) AcquireSlot(ctx context.Context) error {
	select {
	case c.Semaphore <- struct{}{}:
		return nil
	default:
	}

	metrics.RateLimitWaits.Inc()
	select {
	case c.Semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context canceled while waiting for request slot: %w", ctx.Err())
	}
}

// ReleaseSlot releases a request slot
func (c *Client) ReleaseSlot() {
	<-c.Semaphore
}

// CheckCircuitBreaker returns nil if requests are allowed, or an error if the circuit is open
func (c *Client) CheckCircuitBreaker() error {
	if c.CircuitBreaker.Allow() {
		return nil
	}
	stats := c.CircuitBreaker.Stats()
	return &infra.ErrCircuitOpen{
		State:    stats.State,
		RetryAt:  stats.RetryAt,
		Failures: stats.ConsecutiveFails,
	}
}

// Request describes one upstream GET.
type Request struct {
	Action string // label for metrics, logs and errors: "search", "search_letter", "random"
	URL    string
	// Shared coalesces concurrent requests for the same URL into one call.
	Shared bool
}

// Get performs req once and returns the body of a 2xx response. Any other
// outcome is a *errors.RemoteError.
func (c *Client) Get(ctx context.Context, req Request) ([]byte, error) {
	if !req.Shared {
		return c.do(ctx, req)
	}
	body, shared, err := c.Dedup.Do(ctx, req.URL, func() ([]byte, error) {
		return c.do(ctx, req)
	})
	if shared {
		c.Logger.Debug("Shared in-flight recipe API response", "action", req.Action, "url", req.URL)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, req Request) ([]byte, error) {
	start := time.Now()

	if err := c.CheckCircuitBreaker(); err != nil {
		metrics.RecordAPICall(req.Action, 0, false, "circuit_open")
		return nil, &apperrors.RemoteError{Action: req.Action, Err: err}
	}

	if err := c.AcquireSlot(ctx); err != nil {
		return nil, &apperrors.RemoteError{Action: req.Action, Err: err}
	}
	defer c.ReleaseSlot()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &apperrors.RemoteError{Action: req.Action, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		timeout := isTimeout(err)
		reason := "transport"
		if timeout {
			reason = "timeout"
		}
		c.CircuitBreaker.RecordFailure()
		metrics.RecordAPICall(req.Action, time.Since(start).Seconds(), false, reason)
		c.Logger.Warn("Recipe API request failed", "action", req.Action, "url", req.URL, "timeout", timeout, "error", err)
		return nil, &apperrors.RemoteError{Action: req.Action, Timeout: timeout, Err: err}
	}

	body, err := readAndClose(resp)
	if err != nil {
		c.CircuitBreaker.RecordFailure()
		metrics.RecordAPICall(req.Action, time.Since(start).Seconds(), false, "read")
		return nil, &apperrors.RemoteError{Action: req.Action, Timeout: isTimeout(err), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Client errors don't indicate the service is down.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			c.CircuitBreaker.RecordFailure()
		} else {
			c.CircuitBreaker.RecordSuccess()
		}
		metrics.RecordAPICall(req.Action, time.Since(start).Seconds(), false, "status_"+strconv.Itoa(resp.StatusCode))
		c.Logger.Warn("Recipe API returned error status",
			"action", req.Action,
			"status", resp.StatusCode,
			"body", truncate(string(body), 200))
		return nil, &apperrors.RemoteError{Action: req.Action, StatusCode: resp.StatusCode}
	}

	c.CircuitBreaker.RecordSuccess()
	metrics.RecordAPICall(req.Action, time.Since(start).Seconds(), true, "")
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// readAndClose reads the body and closes it, rejecting bodies larger than
// MaxResponseBytes.
func readAndClose(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if len(body) > MaxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", MaxResponseBytes)
	}
	return body, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// newHTTPClient creates an HTTP client with optimized transport settings
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   MaxConcurrentRequests,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
