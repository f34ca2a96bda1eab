// Package value implements the tagged-union Value type that flows through
// every layer of the engine: the expression evaluator, the row-set
// operators, and the lookup-source boundary. Error is a first-class
// variant of Value rather than a Go exception, so it can sit in a row cell
// and propagate through arithmetic, function calls, and operators exactly
// like any other value.
package value

import (
	"fmt"
	"sort"
	"time"
)

// Kind tags the active variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt // covers both Int and Long from the DSL; see SPEC_FULL.md open question
	KindFloat
	KindDouble
	KindString
	KindDateTime
	KindList
	KindMap
	Error
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindDateTime:
		return "datetime"
	case KindList:
		return "array"
	case KindMap:
		return "object"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged union. Zero value is Null.
type Value struct {
	kind Kind

	b    bool
	i    int64
	f32  float32
	f64  float64
	s    string
	t    time.Time
	list []Value
	m    map[string]Value
	keys []string // insertion order for Map, so Keys()/Values() are deterministic
	err  *CellError
}

// Kind returns the active variant.
func (v Value) Kind() Kind { return v.kind }

// Constructors.

func Null() Value                 { return Value{kind: KindNull} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Int(i int64) Value           { return Value{kind: KindInt, i: i} }
func Float(f float32) Value       { return Value{kind: KindFloat, f32: f} }
func Double(f float64) Value      { return Value{kind: KindDouble, f64: f} }
func String(s string) Value       { return Value{kind: KindString, s: s} }
func DateTime(t time.Time) Value  { return Value{kind: KindDateTime, t: t} }
func List(items []Value) Value    { return Value{kind: KindList, list: items} }

// Map builds a Map Value from an ordered set of keys; keys must be unique.
func Map(keys []string, vals map[string]Value) Value {
	return Value{kind: KindMap, keys: keys, m: vals}
}

// MapFromPairs is a convenience constructor that preserves insertion order.
func MapFromPairs(pairs ...[2]any) Value {
	keys := make([]string, 0, len(pairs))
	m := make(map[string]Value, len(pairs))
	for _, p := range pairs {
		k := p[0].(string)
		val := p[1].(Value)
		if _, exists := m[k]; !exists {
			keys = append(keys, k)
		}
		m[k] = val
	}
	return Value{kind: KindMap, keys: keys, m: m}
}

// IsNull reports whether v is the Null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsError reports whether v is the Error variant.
func (v Value) IsError() bool { return v.kind == Error }

// Accessors. Callers must check Kind() first; these do not check the kind
// and on mismatch return whatever the field holds, usually its zero value.

func (v Value) Bool() bool          { return v.b }
func (v Value) Int() int64          { return v.i }
func (v Value) Float32() float32    { return v.f32 }
func (v Value) Float64() float64    { return v.f64 }
func (v Value) Str() string         { return v.s }
func (v Value) Time() time.Time     { return v.t }
func (v Value) Items() []Value      { return v.list }
func (v Value) Keys() []string      { return v.keys }

// Field looks up a Map key; returns Null, false if absent or v is not a Map.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindMap {
		return Null(), false
	}
	val, ok := v.m[key]
	return val, ok
}

// IsNumeric reports whether v is Int, Float, or Double.
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindInt, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// AsFloat64 widens any numeric variant to float64 for arithmetic promotion
// (Int -> Double is the widest common type ).
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return float64(v.f32), true
	case KindDouble:
		return v.f64, true
	default:
		return 0, false
	}
}

// IsSimpleScalar reports whether v is a legal lookup key type :
// Null, Bool, any numeric, String, or DateTime. List and Map are not.
func (v Value) IsSimpleScalar() bool {
	switch v.kind {
	case KindNull, KindBool, KindInt, KindFloat, KindDouble, KindString, KindDateTime:
		return true
	default:
		return false
	}
}

// String renders v for debugging and for log messages; it is not the JSON
// encoding (see jsonvalue package for that).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f32)
	case KindDouble:
		return fmt.Sprintf("%g", v.f64)
	case KindString:
		return v.s
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	case KindList:
		return fmt.Sprintf("%v", v.list)
	case KindMap:
		keys := append([]string(nil), v.keys...)
		sort.Strings(keys)
		return fmt.Sprintf("%v", keys)
	case Error:
		return v.err.Error()
	default:
		return "<invalid>"
	}
}

// Equal implements the value-lattice equality used by distinct, summarize
// grouping, and the `==` operator: Null equals only Null, Bool compares only
// with Bool, numerics compare across variants, List/Map compare structurally.
func Equal(a, b Value) bool {
	if a.kind == KindNull || b.kind == KindNull {
		return a.kind == KindNull && b.kind == KindNull
	}
	if a.IsNumeric() && b.IsNumeric() {
		af, _ := a.AsFloat64()
		bf, _ := b.AsFloat64()
		return af == bf
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindDateTime:
		return a.t.Equal(b.t)
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.keys) != len(b.keys) {
			return false
		}
		for _, k := range a.keys {
			av, aok := a.m[k]
			bv, bok := b.m[k]
			if !aok || !bok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case Error:
		return a.err == b.err
	default:
		return false
	}
}

// HashKey returns a comparable Go value suitable as a map key, used by
// distinct and summarize for grouping. List/Map are flattened into their
// String() form since Go maps cannot key on slices or other maps directly.
func HashKey(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt, KindFloat, KindDouble:
		f, _ := v.AsFloat64()
		return f
	case KindString:
		return v.s
	case KindDateTime:
		return v.t.UTC().UnixNano()
	default:
		return v.String()
	}
}
