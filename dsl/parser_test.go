package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/value"
)

func TestParse_SimpleProject(t *testing.T) {
	pls, err := dsl.Parse(`t(x as int) | project y=x+42, z=x-42;`)
	require.NoError(t, err)
	require.Len(t, pls, 1)
	p := pls[0]
	assert.Equal(t, "t", p.Name)
	require.Len(t, p.InputSchema.Columns, 1)
	assert.Equal(t, value.TInt, p.InputSchema.Columns[0].Type)
	require.Len(t, p.Clauses, 1)
	pc, ok := p.Clauses[0].(dsl.ProjectClause)
	require.True(t, ok)
	require.Len(t, pc.Assigns, 2)
	assert.Equal(t, "y", pc.Assigns[0].Name)
}

func TestParse_WhereTake(t *testing.T) {
	pls, err := dsl.Parse(`t(x as int) | where x>0 | take 2;`)
	require.NoError(t, err)
	clauses := pls[0].Clauses
	require.Len(t, clauses, 2)
	_, ok := clauses[0].(dsl.WhereClause)
	assert.True(t, ok)
	tc, ok := clauses[1].(dsl.TakeClause)
	require.True(t, ok)
	assert.Equal(t, int64(2), tc.N)
}

func TestParse_MultiplePipelines(t *testing.T) {
	pls, err := dsl.Parse(`a(x as int) | take 1; b(y as string) | distinct;`)
	require.NoError(t, err)
	require.Len(t, pls, 2)
	assert.Equal(t, "a", pls[0].Name)
	assert.Equal(t, "b", pls[1].Name)
}

func TestParse_IgnoreErrorsAndProjectRemove(t *testing.T) {
	pls, err := dsl.Parse(`t(x as int) | project-remove x | ignore-errors;`)
	require.NoError(t, err)
	clauses := pls[0].Clauses
	require.Len(t, clauses, 2)
	pr, ok := clauses[0].(dsl.ProjectRemoveClause)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, pr.Names)
	_, ok = clauses[1].(dsl.IgnoreErrorsClause)
	assert.True(t, ok)
}

func TestParse_TopByMultipleTerms(t *testing.T) {
	pls, err := dsl.Parse(`t(x as int, g as string) | top 3 by g asc, x desc;`)
	require.NoError(t, err)
	tc, ok := pls[0].Clauses[0].(dsl.TopClause)
	require.True(t, ok)
	assert.Equal(t, int64(3), tc.N)
	require.Len(t, tc.Terms, 2)
	assert.False(t, tc.Terms[0].Desc)
	assert.True(t, tc.Terms[1].Desc)
}

func TestParse_SummarizeByGroup(t *testing.T) {
	pls, err := dsl.Parse(`t(x as int, g as string) | summarize c=count(), s=sum(x) by g;`)
	require.NoError(t, err)
	sc, ok := pls[0].Clauses[0].(dsl.SummarizeClause)
	require.True(t, ok)
	require.Len(t, sc.Assigns, 2)
	assert.Equal(t, "count", sc.Assigns[0].Agg.Func)
	require.Len(t, sc.By, 1)
}

func TestParse_LookupAndJoin(t *testing.T) {
	pls, err := dsl.Parse(`t(k as string) |
		lookup name,age from people on k |
		join kind=left-outer score from scores on k;`)
	require.NoError(t, err)
	clauses := pls[0].Clauses
	require.Len(t, clauses, 2)
	lc, ok := clauses[0].(dsl.LookupClause)
	require.True(t, ok)
	assert.Equal(t, "people", lc.Source)
	assert.Equal(t, []string{"name", "age"}, lc.Fields)

	jc, ok := clauses[1].(dsl.JoinClause)
	require.True(t, ok)
	assert.Equal(t, dsl.JoinLeftOuter, jc.Kind)
}

func TestParse_CaseExpr(t *testing.T) {
	pls, err := dsl.Parse(`t(x as int) | project y = case when x > 0 then "pos" when x < 0 then "neg" else "zero" end;`)
	require.NoError(t, err)
	pc := pls[0].Clauses[0].(dsl.ProjectClause)
	ce, ok := pc.Assigns[0].Expr.(dsl.CaseExpr)
	require.True(t, ok)
	assert.Len(t, ce.Whens, 2)
	assert.NotNil(t, ce.Else)
}

func TestParse_PrecedenceUnaryBeforeMul(t *testing.T) {
	pls, err := dsl.Parse(`t(x as int) | project y = -x * 2;`)
	require.NoError(t, err)
	pc := pls[0].Clauses[0].(dsl.ProjectClause)
	be, ok := pc.Assigns[0].Expr.(dsl.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, dsl.OpMul, be.Op)
	_, ok = be.Left.(dsl.UnaryExpr)
	assert.True(t, ok)
}

func TestParse_UnknownClauseKeyword(t *testing.T) {
	_, err := dsl.Parse(`t(x as int) | bogus x;`)
	assert.Error(t, err)
}

func TestParse_IndexAndFieldAccess(t *testing.T) {
	pls, err := dsl.Parse(`t(m as object, a as array) | project y = m.field, z = a[0], w = m["field"];`)
	require.NoError(t, err)
	pc := pls[0].Clauses[0].(dsl.ProjectClause)
	_, ok := pc.Assigns[0].Expr.(dsl.FieldExpr)
	assert.True(t, ok)
	_, ok = pc.Assigns[1].Expr.(dsl.IndexExpr)
	assert.True(t, ok)
	_, ok = pc.Assigns[2].Expr.(dsl.IndexExpr)
	assert.True(t, ok)
}
