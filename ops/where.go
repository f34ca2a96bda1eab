// Package ops implements the pipeline's transformation operators: each
// one is a function from an input stream.Stream to an output stream.Stream.
// Pure operators (where, project, take, distinct, explode, ignore-errors)
// never suspend; lookup and join may await a lookup.Source call.
package ops

import (
	"context"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// Where emits a row iff expr evaluates to Bool true on it. Error or
// non-Bool results drop the row silently, filtered rather than errored.
// The schema is unchanged.
func Where(in stream.Stream, expr dsl.Expr, reg *eval.Registry) stream.Stream {
	return stream.New(in.Schema(), func(ctx context.Context) (value.Row, bool, error) {
		for {
			row, ok, err := in.Next(ctx)
			if err != nil || !ok {
				return nil, ok, err
			}
			v := eval.Eval(expr, row, reg)
			if v.Kind() == value.KindBool && v.Bool() {
				return row, true, nil
			}
			// Error or non-Bool: row is filtered out, no ledger entry.
		}
	})
}
