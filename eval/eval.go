// Package eval implements the pure, synchronous expression evaluator and
// the function registry that backs it. Evaluation never suspends: every
// scalar function and operator dispatched from here runs to completion on
// the calling goroutine; none of it awaits I/O.
package eval

import (
	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/value"
)

// Eval evaluates expr against row using the given function Registry.
func Eval(expr dsl.Expr, row value.Row, reg *Registry) value.Value {
	switch e := expr.(type) {
	case dsl.LiteralExpr:
		return e.Value

	case dsl.ColumnExpr:
		return row.Get(e.Name)

	case dsl.UnaryExpr:
		return evalUnary(e, row, reg)

	case dsl.BinaryExpr:
		return evalBinary(e, row, reg)

	case dsl.IndexExpr:
		return evalIndex(e, row, reg)

	case dsl.FieldExpr:
		return evalField(e, row, reg)

	case dsl.CallExpr:
		return evalCall(e, row, reg)

	case dsl.CaseExpr:
		return evalCase(e, row, reg)

	default:
		return value.NewError(value.KindInternal, "unhandled expression node %T", expr)
	}
}

func evalUnary(e dsl.UnaryExpr, row value.Row, reg *Registry) value.Value {
	v := Eval(e.Operand, row, reg)
	if v.IsError() {
		return v
	}
	switch e.Op {
	case dsl.OpNeg:
		return negate(v)
	case dsl.OpNot:
		if v.Kind() != value.KindBool {
			return value.NewError(value.KindType, "'not' requires bool, got %s", v.Kind())
		}
		return value.Bool(!v.Bool())
	default:
		return value.NewError(value.KindInternal, "unknown unary operator %q", e.Op)
	}
}

func negate(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindInt:
		return value.Int(-v.Int())
	case value.KindFloat:
		return value.Float(-v.Float32())
	case value.KindDouble:
		return value.Double(-v.Float64())
	default:
		return value.NewError(value.KindType, "unary '-' requires a numeric operand, got %s", v.Kind())
	}
}

func evalIndex(e dsl.IndexExpr, row value.Row, reg *Registry) value.Value {
	target := Eval(e.Target, row, reg)
	idx := Eval(e.Index, row, reg)
	if errv, ok := value.FirstError(target, idx); ok {
		return errv
	}
	switch target.Kind() {
	case value.KindList:
		if idx.Kind() != value.KindInt {
			return value.NewError(value.KindType, "array subscript requires int index, got %s", idx.Kind())
		}
		items := target.Items()
		i := idx.Int()
		if i < 0 || i >= int64(len(items)) {
			return value.NewError(value.KindType, "array index %d out of range [0,%d)", i, len(items))
		}
		return items[i]
	case value.KindMap:
		if idx.Kind() != value.KindString {
			return value.NewError(value.KindType, "map subscript requires string key, got %s", idx.Kind())
		}
		v, ok := target.Field(idx.Str())
		if !ok {
			return value.Null()
		}
		return v
	case value.KindNull:
		return value.Null()
	default:
		return value.NewError(value.KindType, "cannot subscript a %s value", target.Kind())
	}
}

func evalField(e dsl.FieldExpr, row value.Row, reg *Registry) value.Value {
	target := Eval(e.Target, row, reg)
	if target.IsError() {
		return target
	}
	switch target.Kind() {
	case value.KindMap:
		v, ok := target.Field(e.Name)
		if !ok {
			return value.Null()
		}
		return v
	case value.KindNull:
		return value.Null()
	default:
		return value.NewError(value.KindType, "cannot access field %q on a %s value", e.Name, target.Kind())
	}
}

func evalCall(e dsl.CallExpr, row value.Row, reg *Registry) value.Value {
	args := make([]value.Value, len(e.Args))
	for i, a := range e.Args {
		args[i] = Eval(a, row, reg)
	}
	return reg.Invoke(e.Func, args)
}

// evalCase evaluates branches lazily in order; the first matching `when`
// picks its `then`; Null if none match and there is no `else`.
func evalCase(e dsl.CaseExpr, row value.Row, reg *Registry) value.Value {
	for _, w := range e.Whens {
		cond := Eval(w.Cond, row, reg)
		if cond.IsError() {
			return cond
		}
		if cond.Kind() == value.KindBool && cond.Bool() {
			return Eval(w.Then, row, reg)
		}
	}
	if e.Else != nil {
		return Eval(e.Else, row, reg)
	}
	return value.Null()
}
