package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/value"
)

func mustParseExpr(t *testing.T, pipeline string) dsl.Expr {
	t.Helper()
	pls, err := dsl.Parse(pipeline)
	require.NoError(t, err)
	pc := pls[0].Clauses[0].(dsl.ProjectClause)
	return pc.Assigns[0].Expr
}

func TestEval_ArithmeticAndDivisionByZero(t *testing.T) {
	r := eval.NewRegistry(nil)
	expr := mustParseExpr(t, `t(x as int) | project y = x / 0;`)
	got := eval.Eval(expr, value.Row{"x": value.Int(1)}, r)
	ce, ok := got.AsError()
	require.True(t, ok)
	assert.Equal(t, value.KindArithmetic, ce.Kind)
}

func TestEval_CaseLazyEvaluation(t *testing.T) {
	r := eval.NewRegistry(nil)
	expr := mustParseExpr(t, `t(x as int) | project y = case when x > 0 then "pos" else "nonpos" end;`)
	got := eval.Eval(expr, value.Row{"x": value.Int(5)}, r)
	assert.Equal(t, "pos", got.Str())
	got = eval.Eval(expr, value.Row{"x": value.Int(-1)}, r)
	assert.Equal(t, "nonpos", got.Str())
}

func TestEval_CaseNoElseIsNull(t *testing.T) {
	r := eval.NewRegistry(nil)
	expr := mustParseExpr(t, `t(x as int) | project y = case when x > 10 then "big" end;`)
	got := eval.Eval(expr, value.Row{"x": value.Int(1)}, r)
	assert.True(t, got.IsNull())
}

func TestEval_StringConcatViaPlus(t *testing.T) {
	r := eval.NewRegistry(nil)
	expr := mustParseExpr(t, `t(a as string, b as string) | project y = a + b;`)
	got := eval.Eval(expr, value.Row{"a": value.String("foo"), "b": value.String("bar")}, r)
	assert.Equal(t, "foobar", got.Str())
}

func TestEval_ComparisonAcrossNumericVariants(t *testing.T) {
	r := eval.NewRegistry(nil)
	expr := mustParseExpr(t, `t(x as int) | project y = x > 1.5;`)
	got := eval.Eval(expr, value.Row{"x": value.Int(2)}, r)
	assert.True(t, got.Bool())
}

func TestEval_IndexAndFieldAccess(t *testing.T) {
	r := eval.NewRegistry(nil)
	expr := mustParseExpr(t, `t(a as array) | project y = a[1];`)
	got := eval.Eval(expr, value.Row{"a": value.List([]value.Value{value.Int(10), value.Int(20)})}, r)
	assert.Equal(t, int64(20), got.Int())
}
