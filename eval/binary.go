package eval

import (
	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/value"
)

func evalBinary(e dsl.BinaryExpr, row value.Row, reg *Registry) value.Value {
	// and/or behave like the other boolean operators and are not
	// short-circuited in the DSL grammar (there is no lazy boolean rule
	// outside `case`); both operands are evaluated, then errors propagate.
	left := Eval(e.Left, row, reg)
	right := Eval(e.Right, row, reg)
	if errv, ok := value.FirstError(left, right); ok {
		return errv
	}

	switch e.Op {
	case dsl.OpPlus:
		return add(left, right)
	case dsl.OpMinus:
		return arith(left, right, subInt, subFloat, subDouble)
	case dsl.OpMul:
		return arith(left, right, mulInt, mulFloat, mulDouble)
	case dsl.OpDiv:
		return divide(left, right)
	case dsl.OpMod:
		return modulo(left, right)
	case dsl.OpEq:
		return value.Bool(value.Equal(left, right))
	case dsl.OpNeq:
		return value.Bool(!value.Equal(left, right))
	case dsl.OpLt, dsl.OpLte, dsl.OpGt, dsl.OpGte:
		return compareOp(e.Op, left, right)
	case dsl.OpAnd:
		return boolOp(left, right, func(a, b bool) bool { return a && b })
	case dsl.OpOr:
		return boolOp(left, right, func(a, b bool) bool { return a || b })
	default:
		return value.NewError(value.KindInternal, "unknown binary operator %q", e.Op)
	}
}

// add implements `+` for numerics (with Int->Float->Double promotion) and
// for strings (concatenation).
func add(left, right value.Value) value.Value {
	if left.Kind() == value.KindString && right.Kind() == value.KindString {
		return value.String(left.Str() + right.Str())
	}
	return arith(left, right, addInt, addFloat, addDouble)
}

func addInt(a, b int64) int64       { return a + b }
func subInt(a, b int64) int64       { return a - b }
func mulInt(a, b int64) int64       { return a * b }
func addFloat(a, b float32) float32 { return a + b }
func subFloat(a, b float32) float32 { return a - b }
func mulFloat(a, b float32) float32 { return a * b }
func addDouble(a, b float64) float64 { return a + b }
func subDouble(a, b float64) float64 { return a - b }
func mulDouble(a, b float64) float64 { return a * b }

// arith promotes Int -> Float -> Double to the widest operand type and
// applies the matching operator.
func arith(left, right value.Value, intOp func(a, b int64) int64, floatOp func(a, b float32) float32, doubleOp func(a, b float64) float64) value.Value {
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.NewError(value.KindType, "arithmetic requires numeric operands, got %s and %s", left.Kind(), right.Kind())
	}
	switch widestKind(left.Kind(), right.Kind()) {
	case value.KindInt:
		return value.Int(intOp(left.Int(), right.Int()))
	case value.KindFloat:
		lf, _ := toFloat32(left)
		rf, _ := toFloat32(right)
		return value.Float(floatOp(lf, rf))
	default:
		lf, _ := left.AsFloat64()
		rf, _ := right.AsFloat64()
		return value.Double(doubleOp(lf, rf))
	}
}

func widestKind(a, b value.Kind) value.Kind {
	rank := func(k value.Kind) int {
		switch k {
		case value.KindInt:
			return 0
		case value.KindFloat:
			return 1
		default:
			return 2
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

func toFloat32(v value.Value) (float32, bool) {
	switch v.Kind() {
	case value.KindInt:
		return float32(v.Int()), true
	case value.KindFloat:
		return v.Float32(), true
	case value.KindDouble:
		return float32(v.Float64()), true
	default:
		return 0, false
	}
}

// divide implements integer division-by-zero as an Error; floating division
// follows IEEE-754.
func divide(left, right value.Value) value.Value {
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.NewError(value.KindType, "division requires numeric operands, got %s and %s", left.Kind(), right.Kind())
	}
	if widestKind(left.Kind(), right.Kind()) == value.KindInt {
		if right.Int() == 0 {
			return value.NewError(value.KindArithmetic, "integer division by zero")
		}
		return value.Int(left.Int() / right.Int())
	}
	if widestKind(left.Kind(), right.Kind()) == value.KindFloat {
		lf, _ := toFloat32(left)
		rf, _ := toFloat32(right)
		return value.Float(lf / rf)
	}
	lf, _ := left.AsFloat64()
	rf, _ := right.AsFloat64()
	return value.Double(lf / rf)
}

func modulo(left, right value.Value) value.Value {
	if left.Kind() != value.KindInt || right.Kind() != value.KindInt {
		return value.NewError(value.KindType, "'%%' requires int operands, got %s and %s", left.Kind(), right.Kind())
	}
	if right.Int() == 0 {
		return value.NewError(value.KindArithmetic, "integer modulo by zero")
	}
	return value.Int(left.Int() % right.Int())
}

func compareOp(op dsl.BinaryOp, left, right value.Value) value.Value {
	ord, ok := value.Compare(left, right)
	if !ok {
		return value.NewError(value.KindType, "cannot compare %s with %s", left.Kind(), right.Kind())
	}
	switch op {
	case dsl.OpLt:
		return value.Bool(ord == value.Less)
	case dsl.OpLte:
		return value.Bool(ord != value.Greater)
	case dsl.OpGt:
		return value.Bool(ord == value.Greater)
	case dsl.OpGte:
		return value.Bool(ord != value.Less)
	default:
		return value.NewError(value.KindInternal, "unreachable comparison operator %q", op)
	}
}

func boolOp(left, right value.Value, op func(a, b bool) bool) value.Value {
	if left.Kind() != value.KindBool || right.Kind() != value.KindBool {
		return value.NewError(value.KindType, "logical operator requires bool operands, got %s and %s", left.Kind(), right.Kind())
	}
	return value.Bool(op(left.Bool(), right.Bool()))
}
