package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/lookup"
	"github.com/feathr-ai/feathr-online/pipeline"
	"github.com/feathr-ai/feathr-online/value"
)

func zeroElapsed() float64 { return 0 }

func buildCatalog(t *testing.T, script string, sources map[string]lookup.Source) (*pipeline.Catalog, *eval.Registry) {
	t.Helper()
	reg := eval.NewRegistry(nil)
	cat, err := pipeline.Build(script, sources, reg)
	require.NoError(t, err)
	return cat, reg
}

// S1.
func TestExecutor_S1_ProjectArithmetic(t *testing.T) {
	cat, reg := buildCatalog(t, `t(x as int) | project y=x+42, z=x-42;`, nil)
	ex := pipeline.NewExecutor(cat, reg)
	res := ex.Run(context.Background(), "t", value.Row{"x": value.Int(57)}, zeroElapsed)

	require.Equal(t, pipeline.StatusOK, res.Status)
	require.Len(t, res.Data, 1)
	assert.Equal(t, int64(57), res.Data[0]["x"].Int())
	assert.Equal(t, int64(99), res.Data[0]["y"].Int())
	assert.Equal(t, int64(15), res.Data[0]["z"].Int())
	assert.Empty(t, res.Errors)
}

// S2.
func TestExecutor_S2_DivisionByZero(t *testing.T) {
	cat, reg := buildCatalog(t, `t(x as int) | project y=x/0;`, nil)
	ex := pipeline.NewExecutor(cat, reg)
	res := ex.Run(context.Background(), "t", value.Row{"x": value.Int(1)}, zeroElapsed)

	require.Equal(t, pipeline.StatusOK, res.Status)
	require.Len(t, res.Data, 1)
	assert.Equal(t, int64(1), res.Data[0]["x"].Int())
	assert.True(t, res.Data[0]["y"].IsNull())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 0, res.Errors[0].Row)
	assert.Equal(t, "y", res.Errors[0].Column)
}

// S5.
func TestExecutor_S5_LookupEmptyResult(t *testing.T) {
	src := lookup.SourceFunc{SourceName: "s", Fn: func(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
		return nil, nil
	}}
	cat, reg := buildCatalog(t, `t(key as string) | lookup name,age from s on key;`, map[string]lookup.Source{"s": src})
	ex := pipeline.NewExecutor(cat, reg)
	res := ex.Run(context.Background(), "t", value.Row{"key": value.String("k")}, zeroElapsed)

	require.Equal(t, pipeline.StatusOK, res.Status)
	require.Len(t, res.Data, 1)
	assert.True(t, res.Data[0]["name"].IsNull())
	assert.True(t, res.Data[0]["age"].IsNull())
	assert.Empty(t, res.Errors)
}

// S6.
func TestExecutor_S6_Explode(t *testing.T) {
	cat, reg := buildCatalog(t, `t(items as array) | explode items;`, nil)
	ex := pipeline.NewExecutor(cat, reg)

	res := ex.Run(context.Background(), "t", value.Row{"items": value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)})}, zeroElapsed)
	require.Equal(t, pipeline.StatusOK, res.Status)
	require.Len(t, res.Data, 3)

	resEmpty := ex.Run(context.Background(), "t", value.Row{"items": value.List(nil)}, zeroElapsed)
	assert.Len(t, resEmpty.Data, 0)

	resNull := ex.Run(context.Background(), "t", value.Row{"items": value.Null()}, zeroElapsed)
	assert.Len(t, resNull.Data, 0)
}

func TestExecutor_UnknownPipeline(t *testing.T) {
	cat, reg := buildCatalog(t, `t(x as int) | take 1;`, nil)
	ex := pipeline.NewExecutor(cat, reg)
	res := ex.Run(context.Background(), "missing", value.Row{}, zeroElapsed)
	assert.Equal(t, pipeline.StatusError, res.Status)
	assert.NotEmpty(t, res.Failure())
}

func TestBuild_UnknownColumnIsLoadTimeError(t *testing.T) {
	reg := eval.NewRegistry(nil)
	_, err := pipeline.Build(`t(x as int) | where nope > 0;`, nil, reg)
	assert.Error(t, err)
}

func TestBuild_UnknownSourceIsLoadTimeError(t *testing.T) {
	reg := eval.NewRegistry(nil)
	_, err := pipeline.Build(`t(k as string) | lookup v from missing on k;`, nil, reg)
	assert.Error(t, err)
}

func TestExecutor_MissingInputColumnBecomesNull(t *testing.T) {
	cat, reg := buildCatalog(t, `t(x as int, y as string) | project z=x;`, nil)
	ex := pipeline.NewExecutor(cat, reg)
	res := ex.Run(context.Background(), "t", value.Row{"x": value.Int(3)}, zeroElapsed)
	require.Equal(t, pipeline.StatusOK, res.Status)
	require.Len(t, res.Data, 1)
	assert.True(t, res.Data[0]["y"].IsNull())
}

// S4: the grouping column of `summarize ... by g` must be named g, not g0,
// both in the result row and in the schema seen by later clauses.
func TestExecutor_S4_SummarizeGroupColumnKeepsItsName(t *testing.T) {
	cat, reg := buildCatalog(t, `t(g as string, x as int) | summarize c=count(), s=sum(x) by g | project z=g;`, nil)
	ex := pipeline.NewExecutor(cat, reg)
	res := ex.Run(context.Background(), "t", value.Row{"g": value.String("a"), "x": value.Int(1)}, zeroElapsed)

	require.Equal(t, pipeline.StatusOK, res.Status)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "a", res.Data[0]["z"].Str())
	assert.Equal(t, int64(1), res.Data[0]["c"].Int())
	assert.Equal(t, int64(1), res.Data[0]["s"].Int())
}

func TestExecutor_UndeclaredInputColumnDiscarded(t *testing.T) {
	cat, reg := buildCatalog(t, `t(x as int) | project z=x;`, nil)
	ex := pipeline.NewExecutor(cat, reg)
	res := ex.Run(context.Background(), "t", value.Row{"x": value.Int(3), "extra": value.String("drop me")}, zeroElapsed)
	require.Equal(t, pipeline.StatusOK, res.Status)
	_, hasExtra := res.Data[0]["extra"]
	assert.False(t, hasExtra)
}
