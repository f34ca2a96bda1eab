package eval

import (
	"strconv"

	"github.com/feathr-ai/feathr-online/value"
)

func registerTypeConv(r *Registry) {
	r.register("type_of", 1, 1, func(a []value.Value) value.Value {
		return value.String(string(a[0].Kind().String()))
	})

	r.register("to_int", 1, 1, func(a []value.Value) value.Value { return toInt(a[0]) })
	r.register("to_long", 1, 1, func(a []value.Value) value.Value { return toInt(a[0]) }) // Int/Long collapsed, see SPEC_FULL.md
	r.register("to_double", 1, 1, func(a []value.Value) value.Value { return toDouble(a[0]) })
	r.register("to_string", 1, 1, func(a []value.Value) value.Value { return value.String(a[0].String()) })
	r.register("to_bool", 1, 1, func(a []value.Value) value.Value { return toBool(a[0]) })
	r.register("to_datetime", 1, 1, func(a []value.Value) value.Value { return toDateTime(a[0]) })
}

func toInt(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindInt:
		return v
	case value.KindFloat:
		return value.Int(int64(v.Float32()))
	case value.KindDouble:
		return value.Int(int64(v.Float64()))
	case value.KindBool:
		if v.Bool() {
			return value.Int(1)
		}
		return value.Int(0)
	case value.KindString:
		n, err := strconv.ParseInt(v.Str(), 10, 64)
		if err != nil {
			return value.NewError(value.KindType, "to_int: cannot parse %q as int", v.Str())
		}
		return value.Int(n)
	default:
		return typeErr("to_int", v)
	}
}

func toDouble(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindInt, value.KindFloat, value.KindDouble:
		f, _ := v.AsFloat64()
		return value.Double(f)
	case value.KindBool:
		if v.Bool() {
			return value.Double(1)
		}
		return value.Double(0)
	case value.KindString:
		f, err := strconv.ParseFloat(v.Str(), 64)
		if err != nil {
			return value.NewError(value.KindType, "to_double: cannot parse %q as double", v.Str())
		}
		return value.Double(f)
	default:
		return typeErr("to_double", v)
	}
}

func toBool(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindBool:
		return v
	case value.KindString:
		b, err := strconv.ParseBool(v.Str())
		if err != nil {
			return value.NewError(value.KindType, "to_bool: cannot parse %q as bool", v.Str())
		}
		return value.Bool(b)
	case value.KindInt:
		return value.Bool(v.Int() != 0)
	default:
		return typeErr("to_bool", v)
	}
}
