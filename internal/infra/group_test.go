package infra

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestGather_PreservesOrder(t *testing.T) {
	tasks := make([]func(context.Context) (int, error), 10)
	for i := range tasks {
		tasks[i] = func(context.Context) (int, error) {
			// Later tasks finish first.
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return i * i, nil
		}
	}

	out := Gather(context.Background(), 4, tasks)
	if len(out) != 10 {
		t.Fatalf("expected 10 outcomes, got %d", len(out))
	}
	for i, o := range out {
		if o.Err != nil {
			t.Errorf("task %d: unexpected error %v", i, o.Err)
		}
		if o.Value != i*i {
			t.Errorf("task %d: got %d, want %d", i, o.Value, i*i)
		}
	}
}

func TestGather_FailureDoesNotCancelSiblings(t *testing.T) {
	boom := errors.New("boom")
	var completed atomic.Int32

	tasks := []func(context.Context) (string, error){
		func(context.Context) (string, error) { return "", boom },
		func(ctx context.Context) (string, error) {
			time.Sleep(10 * time.Millisecond)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			completed.Add(1)
			return "ok", nil
		},
	}

	out := Gather(context.Background(), 2, tasks)
	if !errors.Is(out[0].Err, boom) {
		t.Errorf("expected boom in first outcome, got %v", out[0].Err)
	}
	if out[1].Err != nil || out[1].Value != "ok" {
		t.Errorf("sibling should succeed, got %+v", out[1])
	}
	if completed.Load() != 1 {
		t.Error("sibling task did not complete")
	}
}

func TestGather_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	tasks := make([]func(context.Context) (struct{}, error), 12)
	for i := range tasks {
		tasks[i] = func(context.Context) (struct{}, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return struct{}{}, nil
		}
	}

	Gather(context.Background(), 3, tasks)
	if peak.Load() > 3 {
		t.Errorf("peak concurrency %d exceeds limit 3", peak.Load())
	}
}

func TestGather_Empty(t *testing.T) {
	out := Gather[int](context.Background(), 0, nil)
	if len(out) != 0 {
		t.Errorf("expected no outcomes, got %d", len(out))
	}
}

func TestValues(t *testing.T) {
	first := errors.New("first")
	vals, err := Values([]Outcome[int]{
		{Value: 1},
		{Err: first},
		{Value: 3},
		{Err: errors.New("second")},
	})
	if !errors.Is(err, first) {
		t.Errorf("expected first error, got %v", err)
	}
	if len(vals) != 2 || vals[0] != 1 || vals[1] != 3 {
		t.Errorf("unexpected values %v", vals)
	}
}
