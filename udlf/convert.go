package udlf

import (
	"time"

	"github.com/feathr-ai/feathr-online/value"
)

// valueToAny narrows a lookup key Value down to the plain Go types the
// msgpack wire format carries natively, the same narrowing tds.go and
// embeddedsql.go do for database/sql parameters.
func valueToAny(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool()
	case value.KindInt:
		return v.Int()
	case value.KindFloat:
		return float64(v.Float32())
	case value.KindDouble:
		return v.Float64()
	case value.KindDateTime:
		return v.Time().Format(time.RFC3339Nano)
	default:
		return v.Str()
	}
}

// anyToValue converts one msgpack-decoded Go value back into a value.Value,
// mirroring lookupsrc's anyToValue for the HTTP/document-store boundary.
func anyToValue(v any) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(x)
	case int8:
		return value.Int(int64(x))
	case int16:
		return value.Int(int64(x))
	case int32:
		return value.Int(int64(x))
	case int64:
		return value.Int(x)
	case int:
		return value.Int(int64(x))
	case uint8:
		return value.Int(int64(x))
	case uint16:
		return value.Int(int64(x))
	case uint32:
		return value.Int(int64(x))
	case uint64:
		return value.Int(int64(x))
	case float32:
		return value.Float(x)
	case float64:
		return value.Double(x)
	case string:
		return value.String(x)
	case []byte:
		return value.String(string(x))
	case []any:
		items := make([]value.Value, len(x))
		for i, item := range x {
			items[i] = anyToValue(item)
		}
		return value.List(items)
	case map[string]any:
		keys := make([]string, 0, len(x))
		m := make(map[string]value.Value, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		for _, k := range keys {
			m[k] = anyToValue(x[k])
		}
		return value.Map(keys, m)
	default:
		return value.NewError(value.KindInternal, "udlf: unsupported value type %T", v)
	}
}

// rowError produces one row whose requested fields are all the same Error,
// used when a callable's reply cannot be decoded rather than when the
// callable itself raised an exception (that case is handled by returning
// an error from Adapter.Lookup, leaving the join-kind-specific row count
// to ops.Lookup/Join).
func rowError(fields []string, kind value.ErrorKind, format string, args ...any) value.Row {
	errv := value.NewError(kind, format, args...)
	row := make(value.Row, len(fields))
	for _, f := range fields {
		row[f] = errv
	}
	return row
}
