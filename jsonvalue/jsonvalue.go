// Package jsonvalue implements the JSON value mapping of for the
// HTTP request/response boundary: Bool, numeric, String, List, and Map
// Values round-trip through JSON's bool/number/string/array/object; Null
// maps to JSON null; DateTime maps to an ISO-8601 string with offset.
// Error never round-trips here — by the time a Result reaches this package
// its Error cells have already been replaced by Null and moved to the error
// ledger (pipeline-boundary rule); a stray Error that still reaches ToAny
// is rendered as JSON null.
package jsonvalue

import (
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/feathr-ai/feathr-online/value"
)

// EncodeRow converts a Row into its JSON-ready representation (a
// map[string]any goccy/go-json can marshal directly).
func EncodeRow(row value.Row) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = ToAny(v)
	}
	return out
}

// ToAny converts a single Value into the plain Go type its JSON encoding
// round-trips through.
func ToAny(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool()
	case value.KindInt:
		return v.Int()
	case value.KindFloat:
		return v.Float32()
	case value.KindDouble:
		return v.Float64()
	case value.KindString:
		return v.Str()
	case value.KindDateTime:
		return v.Time().Format(time.RFC3339Nano)
	case value.KindList:
		items := v.Items()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = ToAny(it)
		}
		return out
	case value.KindMap:
		out := make(map[string]any, len(v.Keys()))
		for _, k := range v.Keys() {
			fv, _ := v.Field(k)
			out[k] = ToAny(fv)
		}
		return out
	case value.Error:
		return nil
	default:
		panic(fmt.Sprintf("jsonvalue: unhandled kind %v", v.Kind()))
	}
}

// DecodeRow converts one decoded JSON object (the "data" field of a
// /process request entry) into a Row. Declared-type coercion happens later,
// in pipeline.Executor; DecodeRow only performs the JSON-to-Value mapping.
func DecodeRow(raw map[string]any) value.Row {
	row := make(value.Row, len(raw))
	for k, v := range raw {
		row[k] = FromAny(v)
	}
	return row
}

// FromAny converts one json.Unmarshal-produced Go value into a Value. JSON
// has no int/float distinction, so integral-valued numbers become Int and
// everything else becomes Double, matching the engine's open-question
// decision to collapse Int and Long.
func FromAny(v any) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(x)
	case float64:
		if x == float64(int64(x)) {
			return value.Int(int64(x))
		}
		return value.Double(x)
	case string:
		return value.String(x)
	case []any:
		items := make([]value.Value, len(x))
		for i, item := range x {
			items[i] = FromAny(item)
		}
		return value.List(items)
	case map[string]any:
		keys := make([]string, 0, len(x))
		m := make(map[string]value.Value, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m[k] = FromAny(x[k])
		}
		return value.Map(keys, m)
	default:
		return value.NewError(value.KindInternal, "jsonvalue: unsupported JSON type %T", v)
	}
}

// Marshal and Unmarshal re-export goccy/go-json so callers in this package's
// domain never fall back to encoding/json.
var (
	Marshal   = json.Marshal
	Unmarshal = json.Unmarshal
)
