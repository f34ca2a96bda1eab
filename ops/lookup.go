package ops

import (
	"context"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/lookup"
	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// Lookup implements `lookup` clause: for each input row,
// evaluate key-expr; an Error key sets every new field to that Error, a
// Null key sets every new field to Null (no source call, // short-circuit), otherwise the source is queried and only its first
// returned row is used (or all-Null if it returned none). Exactly one
// output row is emitted per input row; new fields are appended to the
// schema in declared order.
func Lookup(in stream.Stream, fields []string, src lookup.Source, keyExpr dsl.Expr, reg *eval.Registry) stream.Stream {
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
			errv := value.NewError(value.KindType, "lookup key must be a simple scalar, got %s", key.Kind())
			return []value.Row{merge(row, lookup.ErrorRow(fields, errv))}, nil
		}
		rows, err := src.Lookup(ctx, key, fields)
		if err != nil {
			errv := value.NewError(value.KindLookup, "lookup %q: %v", src.Name(), err)
			return []value.Row{merge(row, lookup.ErrorRow(fields, errv))}, nil
		}
		if len(rows) == 0 {
			return []value.Row{merge(row, lookup.AllNullRow(fields))}, nil
		}
		return []value.Row{merge(row, rows[0])}, nil
	}
	return pipelineResolve(in, outSchema, resolve)
}

func appendFields(schema value.Schema, fields []string) value.Schema {
	out := schema
	for _, f := range fields {
		out = out.With(value.Column{Name: f, Type: value.TDynamic})
	}
	return out
}

func merge(base value.Row, extra value.Row) value.Row {
	out := base.Clone()
	for k, v := range extra {
		out[k] = v
	}
	return out
}
