package ops

import (
	"context"

	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// Explode expands col: a List emits one row per element (optionally cast to
// `as`); Null or an empty List emits zero rows; a scalar emits one row
// unchanged; an Error propagates as a single emitted row with col set to
// that Error.
func Explode(in stream.Stream, col string, as value.TypeTag) stream.Stream {
	outSchema := in.Schema().With(value.Column{Name: col, Type: explodeType(as)})
	var pending []value.Row
	return stream.New(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		for {
			if len(pending) > 0 {
				row := pending[0]
				pending = pending[1:]
				return row, true, nil
			}
			row, ok, err := in.Next(ctx)
			if err != nil || !ok {
				return nil, ok, err
			}
			pending = explodeRow(row, col, as)
		}
	})
}

func explodeType(as value.TypeTag) value.TypeTag {
	if as == "" {
		return value.TDynamic
	}
	return as
}

func explodeRow(row value.Row, col string, as value.TypeTag) []value.Row {
	v := row.Get(col)
	switch v.Kind() {
	case value.KindList:
		items := v.Items()
		out := make([]value.Row, 0, len(items))
		for _, item := range items {
			out = append(out, withColumn(row, col, castExploded(item, as)))
		}
		return out
	case value.KindNull:
		return nil
	case value.Error:
		return []value.Row{withColumn(row, col, v)}
	default:
		return []value.Row{withColumn(row, col, v)}
	}
}

func castExploded(v value.Value, as value.TypeTag) value.Value {
	if as == "" {
		return v
	}
	k, ok := as.Kind()
	if !ok || v.Kind() == k {
		return v
	}
	// Best-effort cast; an incompatible element becomes a TypeError cell
	// rather than aborting the whole explode.
	switch k {
	case value.KindString:
		return value.String(v.String())
	case value.KindInt:
		if f, ok := v.AsFloat64(); ok {
			return value.Int(int64(f))
		}
	case value.KindDouble:
		if f, ok := v.AsFloat64(); ok {
			return value.Double(f)
		}
	}
	return value.NewError(value.KindType, "explode: cannot cast %s to %s", v.Kind(), as)
}

func withColumn(row value.Row, col string, v value.Value) value.Row {
	out := row.Clone()
	out[col] = v
	return out
}
