package ops

import (
	"context"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/lookup"
	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// Join implements the `join` clause: like Lookup, but emits one
// output row per row returned by the source. left-outer additionally
// emits one all-Null-fields row when the source returns zero rows;
// left-inner drops the input row entirely in that case.
func Join(in stream.Stream, kind dsl.JoinKind, fields []string, src lookup.Source, keyExpr dsl.Expr, reg *eval.Registry) stream.Stream {
	outSchema := appendFields(in.Schema(), fields)
	resolve := func(ctx context.Context, row value.Row) ([]value.Row, error) {
		key := eval.Eval(keyExpr, row, reg)
		switch {
		case key.IsError():
			return []value.Row{merge(row, lookup.ErrorRow(fields, key))}, nil
		case key.IsNull():
			return []value.Row{merge(row, lookup.AllNullRow(fields))}, nil
		}
		if !key.IsSimpleScalar() {
			errv := value.NewError(value.KindType, "join key must be a simple scalar, got %s", key.Kind())
			return []value.Row{merge(row, lookup.ErrorRow(fields, errv))}, nil
		}
		rows, err := src.Lookup(ctx, key, fields)
		if err != nil {
			if kind == dsl.JoinLeftInner {
				return nil, nil
			}
			errv := value.NewError(value.KindLookup, "join %q: %v", src.Name(), err)
			return []value.Row{merge(row, lookup.ErrorRow(fields, errv))}, nil
		}
		if len(rows) == 0 {
			if kind == dsl.JoinLeftOuter {
				return []value.Row{merge(row, lookup.AllNullRow(fields))}, nil
			}
			return nil, nil // left-inner: drop this input row
		}
		out := make([]value.Row, len(rows))
		for i, r := range rows {
			out[i] = merge(row, r)
		}
		return out, nil
	}
	return pipelineResolve(in, outSchema, resolve)
}
