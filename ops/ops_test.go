package ops_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/lookup"
	"github.com/feathr-ai/feathr-online/ops"
	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

func schemaInt(names ...string) value.Schema {
	cols := make([]value.Column, len(names))
	for i, n := range names {
		cols[i] = value.Column{Name: n, Type: value.TInt}
	}
	return value.Schema{Columns: cols}
}

// S3: where x>0 | take 2 on streamed [-1,2,3,4] -> [{x:2},{x:3}]
func TestWhereThenTake(t *testing.T) {
	reg := eval.NewRegistry(nil)
	rows := []value.Row{{"x": value.Int(-1)}, {"x": value.Int(2)}, {"x": value.Int(3)}, {"x": value.Int(4)}}
	in := stream.FromRows(schemaInt("x"), rows)

	whereExpr := parseExpr(t, `t(x as int) | where x > 0;`)
	filtered := ops.Where(in, whereExpr, reg)
	taken := ops.Take(filtered, 2)

	out, err := stream.Drain(context.Background(), taken)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0]["x"].Int())
	assert.Equal(t, int64(3), out[1]["x"].Int())
}

func parseExpr(t *testing.T, pipeline string) dsl.Expr {
	t.Helper()
	pls, err := dsl.Parse(pipeline)
	require.NoError(t, err)
	return pls[0].Clauses[0].(dsl.WhereClause).Expr
}

// Property 6: project new=col | project-remove new == identity.
func TestProjectThenRemove_RoundTrip(t *testing.T) {
	reg := eval.NewRegistry(nil)
	rows := []value.Row{{"x": value.Int(1)}}
	in := stream.FromRows(schemaInt("x"), rows)

	assigns := []dsl.ProjectAssign{{Name: "newcol", Expr: dsl.ColumnExpr{Name: "x"}}}
	projected := ops.Project(in, assigns, reg)
	removed := ops.ProjectRemove(projected, []string{"newcol"})

	assert.Equal(t, []string{"x"}, removed.Schema().Names())
	out, err := stream.Drain(context.Background(), removed)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0]["x"].Int())
}

// Property 7: distinct | distinct == distinct; ignore-errors | ignore-errors == ignore-errors.
func TestDistinct_Idempotent(t *testing.T) {
	rows := []value.Row{{"x": value.Int(1)}, {"x": value.Int(1)}, {"x": value.Int(2)}}
	in := stream.FromRows(schemaInt("x"), rows)
	once := ops.Distinct(in)
	onceRows, err := stream.Drain(context.Background(), once)
	require.NoError(t, err)

	in2 := stream.FromRows(schemaInt("x"), onceRows)
	twice := ops.Distinct(in2)
	twiceRows, err := stream.Drain(context.Background(), twice)
	require.NoError(t, err)

	assert.Equal(t, onceRows, twiceRows)
	assert.Len(t, onceRows, 2)
}

func TestIgnoreErrors_Idempotent(t *testing.T) {
	e := value.NewError(value.KindType, "boom")
	rows := []value.Row{{"x": value.Int(1)}, {"x": e}}
	in := stream.FromRows(schemaInt("x"), rows)
	once := ops.IgnoreErrors(in)
	onceRows, err := stream.Drain(context.Background(), once)
	require.NoError(t, err)
	require.Len(t, onceRows, 1)

	in2 := stream.FromRows(schemaInt("x"), onceRows)
	twice := ops.IgnoreErrors(in2)
	twiceRows, err := stream.Drain(context.Background(), twice)
	require.NoError(t, err)
	assert.Equal(t, onceRows, twiceRows)
}

// S6: explode items with [1,2,3] -> 3 rows; [] -> 0 rows; null -> 0 rows.
func TestExplode_Scenarios(t *testing.T) {
	schema := value.Schema{Columns: []value.Column{{Name: "items", Type: value.TArray}}}

	listRow := value.Row{"items": value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)})}
	in := stream.FromRows(schema, []value.Row{listRow})
	out, err := stream.Drain(context.Background(), ops.Explode(in, "items", ""))
	require.NoError(t, err)
	assert.Len(t, out, 3)

	emptyRow := value.Row{"items": value.List(nil)}
	in2 := stream.FromRows(schema, []value.Row{emptyRow})
	out2, err := stream.Drain(context.Background(), ops.Explode(in2, "items", ""))
	require.NoError(t, err)
	assert.Len(t, out2, 0)

	nullRow := value.Row{"items": value.Null()}
	in3 := stream.FromRows(schema, []value.Row{nullRow})
	out3, err := stream.Drain(context.Background(), ops.Explode(in3, "items", ""))
	require.NoError(t, err)
	assert.Len(t, out3, 0)
}

// S4: summarize c=count(), s=sum(x) by g.
func TestSummarize_GroupBy(t *testing.T) {
	reg := eval.NewRegistry(nil)
	schema := value.Schema{Columns: []value.Column{{Name: "g", Type: value.TString}, {Name: "x", Type: value.TInt}}}
	rows := []value.Row{
		{"g": value.String("a"), "x": value.Int(1)},
		{"g": value.String("a"), "x": value.Int(2)},
		{"g": value.String("b"), "x": value.Int(5)},
	}
	in := stream.FromRows(schema, rows)
	assigns := []dsl.SummarizeAssign{
		{Name: "c", Agg: dsl.AggExpr{Func: "count"}},
		{Name: "s", Agg: dsl.AggExpr{Func: "sum", Args: []dsl.Expr{dsl.ColumnExpr{Name: "x"}}}},
	}
	by := []dsl.Expr{dsl.ColumnExpr{Name: "g"}}
	out, err := stream.Drain(context.Background(), ops.Summarize(in, assigns, by, reg))
	require.NoError(t, err)
	require.Len(t, out, 2)

	byGroup := make(map[string]value.Row, len(out))
	for _, r := range out {
		gv, ok := r["g"]
		require.True(t, ok, "grouping column must be named after its source column, not g0")
		byGroup[gv.Str()] = r
	}
	require.Contains(t, byGroup, "a")
	require.Contains(t, byGroup, "b")
	assert.Equal(t, int64(2), byGroup["a"]["c"].Int())
	assert.Equal(t, int64(3), byGroup["a"]["s"].Int())
	assert.Equal(t, int64(1), byGroup["b"]["c"].Int())
	assert.Equal(t, int64(5), byGroup["b"]["s"].Int())

	total := int64(0)
	for _, r := range out {
		total += r["c"].Int()
	}
	assert.Equal(t, int64(3), total)
}

func TestSummarize_NoByOnEmptyInputStillEmitsOneRow(t *testing.T) {
	reg := eval.NewRegistry(nil)
	in := stream.FromRows(value.Schema{}, nil)
	assigns := []dsl.SummarizeAssign{{Name: "c", Agg: dsl.AggExpr{Func: "count"}}}
	out, err := stream.Drain(context.Background(), ops.Summarize(in, assigns, nil, reg))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(0), out[0]["c"].Int())
}

func TestSummarize_ByOnEmptyInputEmitsZeroRows(t *testing.T) {
	reg := eval.NewRegistry(nil)
	in := stream.FromRows(value.Schema{}, nil)
	assigns := []dsl.SummarizeAssign{{Name: "c", Agg: dsl.AggExpr{Func: "count"}}}
	by := []dsl.Expr{dsl.ColumnExpr{Name: "g"}}
	out, err := stream.Drain(context.Background(), ops.Summarize(in, assigns, by, reg))
	require.NoError(t, err)
	assert.Len(t, out, 0)
}

// Top: errors sort to the bottom regardless of asc/desc.
func TestTop_ErrorsSortToBottom(t *testing.T) {
	reg := eval.NewRegistry(nil)
	schema := value.Schema{Columns: []value.Column{{Name: "x", Type: value.TInt}}}
	e := value.NewError(value.KindType, "boom")
	rows := []value.Row{
		{"x": value.Int(3)},
		{"x": e},
		{"x": value.Int(1)},
	}
	in := stream.FromRows(schema, rows)
	terms := []dsl.SortTerm{{Expr: dsl.ColumnExpr{Name: "x"}, Desc: false}}
	out, err := stream.Drain(context.Background(), ops.Top(in, 3, terms, reg))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.True(t, out[len(out)-1]["x"].IsError())
}

// S5: lookup returning no rows -> all-null fields, no error.
func TestLookup_EmptyResultIsAllNull(t *testing.T) {
	reg := eval.NewRegistry(nil)
	schema := value.Schema{Columns: []value.Column{{Name: "key", Type: value.TString}}}
	rows := []value.Row{{"key": value.String("k")}}
	in := stream.FromRows(schema, rows)

	src := lookup.SourceFunc{SourceName: "s", Fn: func(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
		return nil, nil
	}}
	keyExpr := dsl.ColumnExpr{Name: "key"}
	out, err := stream.Drain(context.Background(), ops.Lookup(in, []string{"name", "age"}, src, keyExpr, reg))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0]["name"].IsNull())
	assert.True(t, out[0]["age"].IsNull())
}

// Property 8: left-inner drops rows on empty source; left-outer keeps them.
func TestJoin_EmptinessByKind(t *testing.T) {
	reg := eval.NewRegistry(nil)
	schema := value.Schema{Columns: []value.Column{{Name: "key", Type: value.TString}}}
	rows := []value.Row{{"key": value.String("k1")}, {"key": value.String("k2")}}
	emptySrc := lookup.SourceFunc{SourceName: "s", Fn: func(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
		return nil, nil
	}}
	keyExpr := dsl.ColumnExpr{Name: "key"}

	innerIn := stream.FromRows(schema, rows)
	innerOut, err := stream.Drain(context.Background(), ops.Join(innerIn, dsl.JoinLeftInner, []string{"v"}, emptySrc, keyExpr, reg))
	require.NoError(t, err)
	assert.Len(t, innerOut, 0)

	outerIn := stream.FromRows(schema, rows)
	outerOut, err := stream.Drain(context.Background(), ops.Join(outerIn, dsl.JoinLeftOuter, []string{"v"}, emptySrc, keyExpr, reg))
	require.NoError(t, err)
	require.Len(t, outerOut, 2)
	assert.True(t, outerOut[0]["v"].IsNull())
}

func TestLookup_OrderPreserved(t *testing.T) {
	reg := eval.NewRegistry(nil)
	schema := value.Schema{Columns: []value.Column{{Name: "key", Type: value.TInt}}}
	var rows []value.Row
	for i := 0; i < 30; i++ {
		rows = append(rows, value.Row{"key": value.Int(int64(i))})
	}
	in := stream.FromRows(schema, rows)
	src := lookup.SourceFunc{SourceName: "s", Fn: func(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
		return []value.Row{{"v": key}}, nil
	}}
	out, err := stream.Drain(context.Background(), ops.Lookup(in, []string{"v"}, src, dsl.ColumnExpr{Name: "key"}, reg))
	require.NoError(t, err)
	require.Len(t, out, 30)
	for i, r := range out {
		assert.Equal(t, int64(i), r["v"].Int())
	}
}
