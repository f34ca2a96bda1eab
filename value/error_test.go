package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feathr-ai/feathr-online/value"
)

func TestFirstError_DeterministicByPosition(t *testing.T) {
	e1 := value.NewError(value.KindType, "first")
	e2 := value.NewError(value.KindArithmetic, "second")
	got, ok := value.FirstError(value.Int(1), e1, e2)
	require.True(t, ok)
	ce, ok := got.AsError()
	require.True(t, ok)
	assert.Equal(t, "first", ce.Message)
}

func TestFirstError_NoneFound(t *testing.T) {
	_, ok := value.FirstError(value.Int(1), value.String("a"))
	assert.False(t, ok)
}

func TestWrapError_PreservesCellErrorKind(t *testing.T) {
	orig := value.NewError(value.KindLookup, "boom")
	ce, _ := orig.AsError()
	wrapped := value.WrapError(value.KindInternal, ce)
	wce, ok := wrapped.AsError()
	require.True(t, ok)
	assert.Equal(t, value.KindLookup, wce.Kind)
}
