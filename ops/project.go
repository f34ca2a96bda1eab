package ops

import (
	"context"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// Project evaluates each assignment against the input row and adds or
// overwrites that column. Output column order is original columns in input
// order, then new columns in declaration order; overwrites retain their
// original position. Errors become cell values, not row drops.
func Project(in stream.Stream, assigns []dsl.ProjectAssign, reg *eval.Registry) stream.Stream {
	outSchema := in.Schema()
	for _, a := range assigns {
		outSchema = outSchema.With(value.Column{Name: a.Name, Type: value.TDynamic})
	}
	return stream.New(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		row, ok, err := in.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		out := row.Clone()
		for _, a := range assigns {
			out[a.Name] = eval.Eval(a.Expr, row, reg)
		}
		return out, true, nil
	})
}

// ProjectRemove drops the named columns. A reference to an unknown column
// is a parse-time (semantic) error, validated by the pipeline builder
// before execution ever reaches this operator.
func ProjectRemove(in stream.Stream, names []string) stream.Stream {
	outSchema := in.Schema().Without(names...)
	return stream.New(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		row, ok, err := in.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		out := row.Clone()
		for _, n := range names {
			delete(out, n)
		}
		return out, true, nil
	})
}

// ProjectKeep retains only the named columns, in schema order.
func ProjectKeep(in stream.Stream, names []string) stream.Stream {
	outSchema := in.Schema().Keep(names...)
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	return stream.New(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		row, ok, err := in.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		out := make(value.Row, len(keep))
		for k, v := range row {
			if keep[k] {
				out[k] = v
			}
		}
		return out, true, nil
	})
}

// ProjectRename renames columns in place, preserving position.
func ProjectRename(in stream.Stream, assigns []dsl.RenameAssign) stream.Stream {
	renameMap := make(map[string]string, len(assigns)) // new -> old
	for _, a := range assigns {
		renameMap[a.New] = a.Old
	}
	outSchema := in.Schema().Renamed(renameMap)
	return stream.New(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		row, ok, err := in.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		out := row.Clone()
		for _, a := range assigns {
			v, existed := out[a.Old]
			delete(out, a.Old)
			if existed {
				out[a.New] = v
			}
		}
		return out, true, nil
	})
}
