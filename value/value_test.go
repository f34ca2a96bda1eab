package value_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feathr-ai/feathr-online/value"
)

func TestEqual_NullOnlyEqualsNull(t *testing.T) {
	assert.True(t, value.Equal(value.Null(), value.Null()))
	assert.False(t, value.Equal(value.Null(), value.Int(0)))
	assert.False(t, value.Equal(value.Int(0), value.Null()))
}

func TestEqual_NumericCrossVariant(t *testing.T) {
	assert.True(t, value.Equal(value.Int(2), value.Double(2.0)))
	assert.True(t, value.Equal(value.Float(1.5), value.Double(1.5)))
	assert.False(t, value.Equal(value.Int(2), value.Int(3)))
}

func TestEqual_BoolOnlyComparesToBool(t *testing.T) {
	assert.True(t, value.Equal(value.Bool(true), value.Bool(true)))
	assert.False(t, value.Equal(value.Bool(true), value.Int(1)))
}

func TestEqual_ListAndMap(t *testing.T) {
	a := value.List([]value.Value{value.Int(1), value.String("x")})
	b := value.List([]value.Value{value.Int(1), value.String("x")})
	c := value.List([]value.Value{value.Int(1), value.String("y")})
	assert.True(t, value.Equal(a, b))
	assert.False(t, value.Equal(a, c))

	m1 := value.MapFromPairs([2]any{"k", value.Int(1)})
	m2 := value.MapFromPairs([2]any{"k", value.Int(1)})
	assert.True(t, value.Equal(m1, m2))
}

func TestCompare_Numeric(t *testing.T) {
	o, ok := value.Compare(value.Int(1), value.Double(2))
	require.True(t, ok)
	assert.Equal(t, value.Less, o)
}

func TestCompare_IncomparableTypes(t *testing.T) {
	_, ok := value.Compare(value.String("a"), value.Int(1))
	assert.False(t, ok)
}

func TestCompare_DateTime(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	o, ok := value.Compare(value.DateTime(t0), value.DateTime(t1))
	require.True(t, ok)
	assert.Equal(t, value.Less, o)
}

func TestSchema_WithOverwriteRetainsPosition(t *testing.T) {
	s := value.Schema{Columns: []value.Column{{Name: "a", Type: value.TInt}, {Name: "b", Type: value.TInt}}}
	s2 := s.With(value.Column{Name: "a", Type: value.TString})
	require.Len(t, s2.Columns, 2)
	assert.Equal(t, "a", s2.Columns[0].Name)
	assert.Equal(t, value.TString, s2.Columns[0].Type)
}

func TestSchema_WithAppendsNewInOrder(t *testing.T) {
	s := value.Schema{Columns: []value.Column{{Name: "a", Type: value.TInt}}}
	s = s.With(value.Column{Name: "b", Type: value.TInt})
	s = s.With(value.Column{Name: "c", Type: value.TInt})
	assert.Equal(t, []string{"a", "b", "c"}, s.Names())
}
