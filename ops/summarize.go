package ops

import (
	"context"
	"fmt"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// Summarize groups the fully-drained input stream by the tuple of grouping
// expressions (equality on Values, Null-equals-Null), producing one row per
// group with the grouping columns (see GroupColumnName for how each is
// named) followed by the aggregation columns, in that order. With no `by`
// clause it produces exactly one row even for empty input; with `by` and
// empty input it produces zero rows.
//
// Groups are emitted in first-seen order of their grouping key: this is
// tracked explicitly with a slice alongside the map, not left to Go map
// iteration.
func Summarize(in stream.Stream, assigns []dsl.SummarizeAssign, by []dsl.Expr, reg *eval.Registry) stream.Stream {
	outSchema := summarizeSchema(by, assigns)
	var out []value.Row
	started := false
	var pos int

	return stream.New(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		if !started {
			started = true
			rows, err := runSummarize(ctx, in, assigns, by, reg)
			if err != nil {
				return nil, false, err
			}
			out = rows
		}
		if pos >= len(out) {
			return nil, false, nil
		}
		row := out[pos]
		pos++
		return row, true, nil
	})
}

// GroupColumnName returns the output column name for the i'th `by`
// expression: a bare column reference keeps its own name (feathr/KQL
// convention, e.g. `summarize c=count() by g` names the group column `g`,
// not `g0`), and any other expression falls back to a synthesized g<i>.
func GroupColumnName(e dsl.Expr, i int) string {
	if col, ok := e.(dsl.ColumnExpr); ok {
		return col.Name
	}
	return fmt.Sprintf("g%d", i)
}

func summarizeSchema(by []dsl.Expr, assigns []dsl.SummarizeAssign) value.Schema {
	var cols []value.Column
	for i, e := range by {
		cols = append(cols, value.Column{Name: GroupColumnName(e, i), Type: value.TDynamic})
	}
	for _, a := range assigns {
		cols = append(cols, value.Column{Name: a.Name, Type: value.TDynamic})
	}
	return value.Schema{Columns: cols}
}

type groupState struct {
	keyValues []value.Value
	accs      []eval.Accumulator
}

func runSummarize(ctx context.Context, in stream.Stream, assigns []dsl.SummarizeAssign, by []dsl.Expr, reg *eval.Registry) ([]value.Row, error) {
	order := make([]string, 0)
	groups := make(map[string]*groupState)
	anyRow := false

	for {
		row, ok, err := in.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		anyRow = true

		keyValues := make([]value.Value, len(by))
		for i, e := range by {
			keyValues[i] = eval.Eval(e, row, reg)
		}
		groupKey := groupHashKey(keyValues)

		gs, exists := groups[groupKey]
		if !exists {
			gs = &groupState{keyValues: keyValues, accs: make([]eval.Accumulator, len(assigns))}
			for i, a := range assigns {
				acc, ok := eval.NewAccumulator(a.Agg.Func)
				if !ok {
					return nil, fmt.Errorf("summarize: unknown aggregation function %q", a.Agg.Func)
				}
				gs.accs[i] = acc
			}
			groups[groupKey] = gs
			order = append(order, groupKey)
		}
		for i, a := range assigns {
			args := make([]value.Value, len(a.Agg.Args))
			for j, argExpr := range a.Agg.Args {
				args[j] = eval.Eval(argExpr, row, reg)
			}
			gs.accs[i].Add(args)
		}
	}

	// No `by` clause: always emit exactly one row, even for empty input.
	if len(by) == 0 && !anyRow {
		gs := &groupState{accs: make([]eval.Accumulator, len(assigns))}
		for i, a := range assigns {
			acc, ok := eval.NewAccumulator(a.Agg.Func)
			if !ok {
				return nil, fmt.Errorf("summarize: unknown aggregation function %q", a.Agg.Func)
			}
			gs.accs[i] = acc
		}
		groups["__empty__"] = gs
		order = append(order, "__empty__")
	}

	out := make([]value.Row, 0, len(order))
	for _, k := range order {
		gs := groups[k]
		row := make(value.Row, len(by)+len(assigns))
		for i, v := range gs.keyValues {
			row[GroupColumnName(by[i], i)] = v
		}
		for i, a := range assigns {
			row[a.Name] = gs.accs[i].Result()
		}
		out = append(out, row)
	}
	return out, nil
}

func groupHashKey(keyValues []value.Value) string {
	s := ""
	for _, v := range keyValues {
		s += fmt.Sprintf("%v\x1f", value.HashKey(v))
	}
	return s
}
