package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/value"
)

// Property 1: for every scalar function and every argument position,
// F(..., Error(e), ...) == Error(e).
func TestRegistry_ErrorPropagation(t *testing.T) {
	r := eval.NewRegistry(nil)
	e := value.NewError(value.KindType, "boom")

	cases := []struct {
		name string
		args []value.Value
	}{
		{"abs", []value.Value{e}},
		{"concat", []value.Value{value.String("a"), e, value.String("b")}},
		{"pow", []value.Value{e, value.Int(2)}},
		{"coalesce", []value.Value{value.Null(), e}},
	}
	for _, c := range cases {
		got := r.Invoke(c.name, c.args)
		ce, ok := got.AsError()
		require.Truef(t, ok, "%s should propagate error", c.name)
		assert.Equal(t, "boom", ce.Message)
	}
}

// Property 2: a registered UDF is never invoked with an Error argument.
func TestRegistry_UDFIsolationFromErrors(t *testing.T) {
	r := eval.NewRegistry(nil)
	called := false
	require.NoError(t, r.RegisterUDF("myudf", 1, 1, func(args []value.Value) value.Value {
		called = true
		return value.Int(1)
	}))

	got := r.Invoke("myudf", []value.Value{value.NewError(value.KindType, "x")})
	assert.False(t, called, "UDF must not be invoked when an argument is Error")
	assert.True(t, got.IsError())
}

func TestRegistry_UDFPanicBecomesError(t *testing.T) {
	r := eval.NewRegistry(nil)
	require.NoError(t, r.RegisterUDF("panicky", 0, 0, func(args []value.Value) value.Value {
		panic("kaboom")
	}))
	got := r.Invoke("panicky", nil)
	ce, ok := got.AsError()
	require.True(t, ok)
	assert.Contains(t, ce.Message, "kaboom")
}

func TestRegistry_ArityMismatch(t *testing.T) {
	r := eval.NewRegistry(nil)
	got := r.Invoke("pow", []value.Value{value.Int(1)})
	assert.True(t, got.IsError())
}

func TestRegistry_UnknownFunction(t *testing.T) {
	r := eval.NewRegistry(nil)
	got := r.Invoke("does_not_exist", nil)
	ce, ok := got.AsError()
	require.True(t, ok)
	assert.Equal(t, value.KindSemantic, ce.Kind)
}
