package ops

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// lookupConcurrency bounds how many lookup/join resolutions the executor
// issues ahead of the consumer for a single operator instance.
const lookupConcurrency = 8

// rowResolver turns one input row into zero or more output rows, possibly
// suspending on an underlying lookup-source call.
type rowResolver func(ctx context.Context, row value.Row) ([]value.Row, error)

type resolved struct {
	rows []value.Row
	err  error
}

// pipelineResolve wraps in with resolve, prefetching up to lookupConcurrency
// rows' worth of resolutions concurrently while preserving output order
// equal to input order (ordering guarantee). Pure in the sense
// that resolve itself may suspend; pipelineResolve's own bookkeeping never
// blocks the caller beyond waiting on the next in-order result.
func pipelineResolve(in stream.Stream, outSchema value.Schema, resolve rowResolver) stream.Stream {
	var (
		started  bool
		resultCh chan chan resolved
		pending  []value.Row
	)

	start := func(ctx context.Context) {
		resultCh = make(chan chan resolved, lookupConcurrency)
		// errgroup bounds how many resolve() calls run ahead of the
		// consumer; it is not used for first-error cancellation
		// here since a resolve failure is delivered through its row's own
		// slot, not by aborting its siblings.
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(lookupConcurrency)
		go func() {
			defer func() {
				_ = g.Wait()
				close(resultCh)
			}()
			for {
				row, ok, err := in.Next(ctx)
				if err != nil {
					slot := make(chan resolved, 1)
					slot <- resolved{err: err}
					resultCh <- slot
					return
				}
				if !ok {
					return
				}
				slot := make(chan resolved, 1)
				resultCh <- slot
				row := row
				g.Go(func() error {
					rows, err := resolve(gctx, row)
					slot <- resolved{rows: rows, err: err}
					return nil
				})
			}
		}()
	}

	return stream.New(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		if !started {
			started = true
			start(ctx)
		}
		for {
			if len(pending) > 0 {
				row := pending[0]
				pending = pending[1:]
				return row, true, nil
			}
			slot, ok := <-resultCh
			if !ok {
				return nil, false, nil
			}
			res := <-slot
			if res.err != nil {
				return nil, false, res.err
			}
			pending = res.rows
		}
	})
}
