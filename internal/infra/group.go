package infra

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultGatherLimit bounds how many tasks Gather runs at once.
const DefaultGatherLimit = 8

// Outcome is the result of one task run by Gather.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Gather runs every task concurrently, at most limit at a time, and returns
// their outcomes in input order. A failing task does not cancel its siblings;
// each task gets ctx and is expected to honor it.
func Gather[T any](ctx context.Context, limit int, tasks []func(context.Context) (T, error)) []Outcome[T] {
	if limit <= 0 {
		limit = DefaultGatherLimit
	}
	out := make([]Outcome[T], len(tasks))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, task := range tasks {
		g.Go(func() error {
			v, err := task(ctx)
			out[i] = Outcome[T]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Values returns the successful values of outcomes, in order, and the first
// error seen (nil if all succeeded).
func Values[T any](outcomes []Outcome[T]) ([]T, error) {
	vals := make([]T, 0, len(outcomes))
	var first error
	for _, o := range outcomes {
		if o.Err != nil {
			if first == nil {
				first = o.Err
			}
			continue
		}
		vals = append(vals, o.Value)
	}
	return vals, first
}
