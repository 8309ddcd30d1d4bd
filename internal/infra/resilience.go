// Package infra provides shared infrastructure for the recipe MCP server:
// a TTL/LRU cache, request deduplication, a circuit breaker for the upstream
// recipe API, and a task group for concurrent fan-out.
package infra

import (
	"context"
	"sync"
	"time"
)

// Deduplicator coalesces identical in-flight calls. While a call for a key is
// running, later callers for the same key wait for and share its result.
type Deduplicator[T any] struct {
	mu       sync.Mutex
	inflight map[string]*call[T]
}

type call[T any] struct {
	done    chan struct{}
	val     T
	err     error
	waiters int
}

// NewDeduplicator creates an empty Deduplicator.
func NewDeduplicator[T any]() *Deduplicator[T] {
	return &Deduplicator[T]{
		inflight: make(map[string]*call[T]),
	}
}

// Do runs fn unless a call with the same key is already running, in which case
// it waits for that call. shared reports whether the result came from another
// caller. A waiter whose ctx ends stops waiting; the running call continues.
func (d *Deduplicator[T]) Do(ctx context.Context, key string, fn func() (T, error)) (val T, shared bool, err error) {
	d.mu.Lock()
	if c, ok := d.inflight[key]; ok {
		c.waiters++
		d.mu.Unlock()

		select {
		case <-c.done:
			return c.val, true, c.err
		case <-ctx.Done():
			var zero T
			return zero, false, ctx.Err()
		}
	}

	c := &call[T]{done: make(chan struct{}), waiters: 1}
	d.inflight[key] = c
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.inflight, key)
		d.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	return c.val, false, c.err
}

// InFlight returns the number of calls currently running.
func (d *Deduplicator[T]) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// CircuitBreaker fails fast when the upstream API keeps failing. It opens after
// a run of consecutive failures and lets a few probe requests through once the
// reset timeout has passed.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	resetTimeout     time.Duration
	halfOpenMax      int
	onChange         func(from, to CircuitState)

	state            CircuitState
	consecutiveFails int
	lastFailure      time.Time
	halfOpenCount    int
}

// CircuitState represents the current state of the circuit breaker
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation
	CircuitOpen                         // Failing fast, rejecting requests
	CircuitHalfOpen                     // Testing if service recovered
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitOption configures a CircuitBreaker.
type CircuitOption func(*CircuitBreaker)

// WithThresholds overrides the failure threshold, reset timeout and the number
// of half-open probes.
func WithThresholds(failures int, reset time.Duration, halfOpenMax int) CircuitOption {
	return func(cb *CircuitBreaker) {
		cb.failureThreshold = failures
		cb.resetTimeout = reset
		cb.halfOpenMax = halfOpenMax
	}
}

// WithStateChange registers a callback invoked (under the breaker lock) on
// every state transition.
func WithStateChange(fn func(from, to CircuitState)) CircuitOption {
	return func(cb *CircuitBreaker) {
		cb.onChange = fn
	}
}

// NewCircuitBreaker creates a breaker that opens after 5 consecutive failures
// and probes again after 30 seconds.
func NewCircuitBreaker(opts ...CircuitOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		failureThreshold: 5,
		resetTimeout:     30 * time.Second,
		halfOpenMax:      2,
		state:            CircuitClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Allow reports whether a request may proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailure) > cb.resetTimeout {
			cb.transition(CircuitHalfOpen)
			cb.halfOpenCount = 1
			return true
		}
		return false
	case CircuitHalfOpen:
		if cb.halfOpenCount < cb.halfOpenMax {
			cb.halfOpenCount++
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess resets the failure run and closes a half-open circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails = 0
	if cb.state == CircuitHalfOpen {
		cb.transition(CircuitClosed)
		cb.halfOpenCount = 0
	}
}

// RecordFailure extends the failure run, opening the circuit at the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails++
	cb.lastFailure = time.Now()

	switch cb.state {
	case CircuitClosed:
		if cb.consecutiveFails >= cb.failureThreshold {
			cb.transition(CircuitOpen)
		}
	case CircuitHalfOpen:
		cb.transition(CircuitOpen)
		cb.halfOpenCount = 0
	}
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	cb.state = to
	if cb.onChange != nil && from != to {
		cb.onChange(from, to)
	}
}

// State returns the current circuit state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot of the breaker.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerStats{
		State:            cb.state.String(),
		ConsecutiveFails: cb.consecutiveFails,
		LastFailure:      cb.lastFailure,
		RetryAt:          cb.lastFailure.Add(cb.resetTimeout),
	}
}

// CircuitBreakerStats contains circuit breaker statistics
type CircuitBreakerStats struct {
	State            string    `json:"state"`
	ConsecutiveFails int       `json:"consecutive_failures"`
	LastFailure      time.Time `json:"last_failure,omitempty"`
	RetryAt          time.Time `json:"retry_at,omitempty"`
}

// ErrCircuitOpen is returned when the circuit breaker rejects a request.
type ErrCircuitOpen struct {
	State    string
	RetryAt  time.Time
	Failures int
}

func (e *ErrCircuitOpen) Error() string {
	return "circuit breaker is open: recipe API is failing, retry after " + e.RetryAt.Format(time.RFC3339)
}
