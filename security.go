package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/olgasafonova/mealdb-mcp-server/metrics"
)

// recoverPanic logs a recovered panic instead of crashing the process. When
// err is non-nil the panic is also reported through it.
func recoverPanic(logger *slog.Logger, operation string, err *error) {
	if r := recover(); r != nil {
		metrics.PanicsRecovered.WithLabelValues(operation).Inc()
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(debug.Stack()))
		if err != nil {
			*err = fmt.Errorf("%s panicked: %v", operation, r)
		}
	}
}

// runGuarded runs fn in its own goroutine and delivers its result on the
// returned channel. A panic in fn is delivered as an error.
func runGuarded(logger *slog.Logger, operation string, fn func() error) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		defer func() { errCh <- err }()
		defer recoverPanic(logger, operation, &err)
		err = fn()
	}()
	return errCh
}

// RateLimiter is a per-client token bucket. Each client may make rate
// requests per interval, refilled continuously.
type RateLimiter struct {
	rate     int
	interval time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	stopCh    chan struct{}
	closeOnce sync.Once
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter starts a limiter and its idle-bucket sweeper.
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		rate:     rate,
		interval: interval,
		buckets:  make(map[string]*bucket),
		stopCh:   make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow consumes a token for key and reports whether one was available.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.rate), last: now}
		rl.buckets[key] = b
	} else {
		refill := now.Sub(b.last).Seconds() / rl.interval.Seconds() * float64(rl.rate)
		b.tokens = min(float64(rl.rate), b.tokens+refill)
		b.last = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets that have been idle long enough to be full again.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(max(rl.interval, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if now.Sub(b.last) > rl.interval {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stopCh) })
}

// SecurityConfig configures the HTTP middleware.
type SecurityConfig struct {
	RateLimit   int   // requests per minute per client IP; 0 disables
	MaxBodySize int64 // bytes; 0 disables
}

// SecurityMiddleware rate limits clients, caps request bodies, sets security
// response headers and records HTTP metrics.
type SecurityMiddleware struct {
	next    http.Handler
	logger  *slog.Logger
	config  SecurityConfig
	limiter *RateLimiter
}

// NewSecurityMiddleware wraps next.
func NewSecurityMiddleware(next http.Handler, logger *slog.Logger, config SecurityConfig) *SecurityMiddleware {
	sm := &SecurityMiddleware{next: next, logger: logger, config: config}
	if config.RateLimit > 0 {
		sm.limiter = NewRateLimiter(config.RateLimit, time.Minute)
	}
	return sm
}

// Close releases the rate limiter.
func (sm *SecurityMiddleware) Close() {
	if sm.limiter != nil {
		sm.limiter.Close()
	}
}

func (sm *SecurityMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if p := recover(); p != nil {
			metrics.PanicsRecovered.WithLabelValues("http").Inc()
			sm.logger.Error("Panic in HTTP handler", "path", r.URL.Path, "panic", p, "stack", string(debug.Stack()))
			http.Error(rec, "internal server error", http.StatusInternalServerError)
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	}()

	h := rec.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Cache-Control", "no-store")

	if sm.limiter != nil {
		ip := clientIP(r)
		if !sm.limiter.Allow(ip) {
			metrics.RateLimitRejections.Inc()
			sm.logger.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)
			h.Set("Retry-After", "60")
			http.Error(rec, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
	}

	if sm.config.MaxBodySize > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(rec, r.Body, sm.config.MaxBodySize)
	}

	sm.next.ServeHTTP(rec, r)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

// Flush lets streamed MCP responses through.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
