package infra

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDeduplicator_Single(t *testing.T) {
	d := NewDeduplicator[string]()

	val, shared, err := d.Do(context.Background(), "search:s=pasta", func() (string, error) {
		return "pasta", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shared {
		t.Error("first call should not be shared")
	}
	if val != "pasta" {
		t.Errorf("expected 'pasta', got %q", val)
	}
	if d.InFlight() != 0 {
		t.Errorf("expected 0 in-flight, got %d", d.InFlight())
	}
}

func TestDeduplicator_Coalesces(t *testing.T) {
	d := NewDeduplicator[int]()

	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 5)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _, _ = d.Do(context.Background(), "rebuild", func() (int, error) {
			calls.Add(1)
			close(started)
			<-release
			return 42, nil
		})
	}()
	<-started

	var sharedCount atomic.Int32
	for i := 1; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, shared, _ := d.Do(context.Background(), "rebuild", func() (int, error) {
				calls.Add(1)
				return -1, nil
			})
			results[i] = v
			if shared {
				sharedCount.Add(1)
			}
		}(i)
	}

	// Give waiters time to attach before releasing the leader.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected fn to run once, ran %d times", calls.Load())
	}
	if sharedCount.Load() != 4 {
		t.Errorf("expected 4 shared results, got %d", sharedCount.Load())
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("result[%d] = %d, want 42", i, v)
		}
	}
}

func TestDeduplicator_DifferentKeys(t *testing.T) {
	d := NewDeduplicator[string]()

	var calls atomic.Int32
	var wg sync.WaitGroup
	for _, key := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			_, _, _ = d.Do(context.Background(), k, func() (string, error) {
				calls.Add(1)
				time.Sleep(10 * time.Millisecond)
				return k, nil
			})
		}(key)
	}
	wg.Wait()

	if calls.Load() != 3 {
		t.Errorf("expected 3 calls for distinct keys, got %d", calls.Load())
	}
}

func TestDeduplicator_ErrorPropagates(t *testing.T) {
	d := NewDeduplicator[string]()
	boom := errors.New("upstream down")

	_, _, err := d.Do(context.Background(), "k", func() (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestDeduplicator_WaiterContextCancel(t *testing.T) {
	d := NewDeduplicator[string]()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _, _ = d.Do(context.Background(), "slow", func() (string, error) {
			close(started)
			<-release
			return "done", nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, err := d.Do(ctx, "slow", func() (string, error) {
		t.Error("waiter fn should not run")
		return "", nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	close(release)
}

func TestDeduplicator_ConcurrencySafety(t *testing.T) {
	d := NewDeduplicator[string]()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		key := "key-" + string(rune('a'+i%10))
		go func(k string) {
			defer wg.Done()
			_, _, _ = d.Do(context.Background(), k, func() (string, error) {
				time.Sleep(5 * time.Millisecond)
				return k, nil
			})
		}(key)
	}
	wg.Wait()

	if d.InFlight() != 0 {
		t.Errorf("expected 0 in-flight after all complete, got %d", d.InFlight())
	}
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker()

	if cb.failureThreshold != 5 {
		t.Errorf("expected failureThreshold=5, got %d", cb.failureThreshold)
	}
	if cb.resetTimeout != 30*time.Second {
		t.Errorf("expected resetTimeout=30s, got %v", cb.resetTimeout)
	}
	if cb.halfOpenMax != 2 {
		t.Errorf("expected halfOpenMax=2, got %d", cb.halfOpenMax)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected state=Closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(WithThresholds(3, time.Second, 1))

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != CircuitClosed {
		t.Error("circuit should still be closed after 2 failures")
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Errorf("circuit should be open after 3 failures, got %v", cb.State())
	}
	if cb.Allow() {
		t.Error("open circuit should reject requests")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(WithThresholds(2, 10*time.Millisecond, 1))

	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("circuit should allow a probe after reset timeout")
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("circuit should be half-open, got %v", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != CircuitClosed {
		t.Errorf("circuit should close after a successful probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(WithThresholds(2, 10*time.Millisecond, 1))

	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Errorf("circuit should reopen after a failed probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenProbeLimit(t *testing.T) {
	cb := NewCircuitBreaker(WithThresholds(2, 10*time.Millisecond, 2))

	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if !cb.Allow() {
		t.Error("first probe should be allowed")
	}
	if !cb.Allow() {
		t.Error("second probe should be allowed")
	}
	if cb.Allow() {
		t.Error("third probe should be rejected")
	}
}

func TestCircuitBreaker_SuccessResetsRun(t *testing.T) {
	cb := NewCircuitBreaker(WithThresholds(3, time.Second, 1))

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != CircuitClosed {
		t.Error("a success should reset the consecutive failure run")
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(
		WithThresholds(1, 10*time.Millisecond, 1),
		WithStateChange(func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()
	cb.RecordSuccess()

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if strings.Join(transitions, ",") != strings.Join(want, ",") {
		t.Errorf("transitions = %v, want %v", transitions, want)
	}
}

func TestCircuitBreaker_Stats(t *testing.T) {
	cb := NewCircuitBreaker()

	stats := cb.Stats()
	if stats.State != "closed" || stats.ConsecutiveFails != 0 {
		t.Errorf("unexpected initial stats: %+v", stats)
	}

	cb.RecordFailure()
	cb.RecordFailure()

	stats = cb.Stats()
	if stats.ConsecutiveFails != 2 {
		t.Errorf("expected 2 consecutive fails, got %d", stats.ConsecutiveFails)
	}
	if stats.LastFailure.IsZero() {
		t.Error("LastFailure should be set")
	}
	if !stats.RetryAt.After(stats.LastFailure) {
		t.Error("RetryAt should be after LastFailure")
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := []struct {
		state    CircuitState
		expected string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("CircuitState(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}

func TestErrCircuitOpen_Error(t *testing.T) {
	err := &ErrCircuitOpen{State: "open", RetryAt: time.Now().Add(30 * time.Second), Failures: 5}
	if !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCircuitBreaker_UnknownStateRejects(t *testing.T) {
	cb := NewCircuitBreaker()
	cb.mu.Lock()
	cb.state = CircuitState(99)
	cb.mu.Unlock()

	if cb.Allow() {
		t.Error("unknown state should reject")
	}
}

func TestCircuitBreaker_ConcurrencySafety(t *testing.T) {
	cb := NewCircuitBreaker(WithThresholds(10, 100*time.Millisecond, 5))

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(3)
		go func() { defer wg.Done(); cb.Allow() }()
		go func() { defer wg.Done(); cb.RecordSuccess() }()
		go func() { defer wg.Done(); cb.RecordFailure() }()
	}
	wg.Wait()

	switch cb.State() {
	case CircuitClosed, CircuitOpen, CircuitHalfOpen:
	default:
		t.Errorf("unexpected state: %v", cb.State())
	}
}
