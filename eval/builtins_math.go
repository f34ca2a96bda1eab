package eval

import (
	"math"

	"github.com/feathr-ai/feathr-online/value"
)

func registerMath(r *Registry) {
	r.register("abs", 1, 1, func(a []value.Value) value.Value {
		switch a[0].Kind() {
		case value.KindInt:
			n := a[0].Int()
			if n < 0 {
				n = -n
			}
			return value.Int(n)
		case value.KindFloat:
			return value.Float(float32(math.Abs(float64(a[0].Float32()))))
		case value.KindDouble:
			return value.Double(math.Abs(a[0].Float64()))
		default:
			return typeErr("abs", a[0])
		}
	})
	r.register("ceil", 1, 1, unaryDoubleFn("ceil", math.Ceil))
	r.register("floor", 1, 1, unaryDoubleFn("floor", math.Floor))
	r.register("round", 1, 1, unaryDoubleFn("round", math.Round))
	r.register("exp", 1, 1, unaryDoubleFn("exp", math.Exp))
	r.register("sqrt", 1, 1, unaryDoubleFn("sqrt", math.Sqrt))
	r.register("log", 1, 2, func(a []value.Value) value.Value {
		x, ok := a[0].AsFloat64()
		if !ok {
			return typeErr("log", a[0])
		}
		if len(a) == 1 {
			return value.Double(math.Log(x))
		}
		base, ok := a[1].AsFloat64()
		if !ok {
			return typeErr("log", a[1])
		}
		return value.Double(math.Log(x) / math.Log(base))
	})
	r.register("pow", 2, 2, func(a []value.Value) value.Value {
		x, ok1 := a[0].AsFloat64()
		y, ok2 := a[1].AsFloat64()
		if !ok1 || !ok2 {
			return value.NewError(value.KindType, "pow requires numeric arguments")
		}
		return value.Double(math.Pow(x, y))
	})
}

func unaryDoubleFn(name string, fn func(float64) float64) Handler {
	return func(a []value.Value) value.Value {
		x, ok := a[0].AsFloat64()
		if !ok {
			return typeErr(name, a[0])
		}
		return value.Double(fn(x))
	}
}

func typeErr(fn string, v value.Value) value.Value {
	return value.NewError(value.KindType, "%s: unsupported operand type %s", fn, v.Kind())
}
