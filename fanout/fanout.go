// Package fanout issues one call per input concurrently and collects every outcome.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result pairs an input with the outcome of the call made for it.
type Result[In, Out any] struct {
	Input In
	Value Out
	Err   error
}

// Run calls fn once for every input, all at the same time, and waits for all of
// them. A failing call never cancels the others and its error is kept in the
// result. Results are in input order regardless of completion order.
//
// Run imposes no timeout; fn is expected to bound its own latency.
func Run[In, Out any](ctx context.Context, inputs []In, fn func(ctx context.Context, in In) (Out, error)) []Result[In, Out] {
	results := make([]Result[In, Out], len(inputs))

	// Plain group, not WithContext: one failure must not cancel its siblings.
	var g errgroup.Group
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			value, err := fn(ctx, in)
			results[i] = Result[In, Out]{Input: in, Value: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Errors returns the number of failed calls.
func Errors[In, Out any](results []Result[In, Out]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
