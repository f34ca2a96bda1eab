package pipeline

import (
	"context"
	"sort"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/lookup"
	"github.com/feathr-ai/feathr-online/ops"
	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// Executor drives requests against a Catalog's compiled pipelines. It holds
// no per-request state; a single Executor is shared and called concurrently
// across requests.
type Executor struct {
	catalog  *Catalog
	registry *eval.Registry
}

// NewExecutor pairs a Catalog with the registry used to evaluate its
// pipelines' expressions.
func NewExecutor(catalog *Catalog, registry *eval.Registry) *Executor {
	return &Executor{catalog: catalog, registry: registry}
}

// Run executes pipelineName against a single input row: look up the
// compiled pipeline, validate the row against its input schema, drive it
// through the operator chain, and collect rows or errors into a Result.
// elapsed is injected rather than read from time.Now so TimeMs is
// deterministic in tests.
func (ex *Executor) Run(ctx context.Context, pipelineName string, data value.Row, elapsed func() float64) Result {
	pl, err := ex.catalog.Lookup(pipelineName)
	if err != nil {
		return Result{Status: StatusError, Pipeline: pipelineName, failure: err.Error(), TimeMs: elapsed()}
	}

	row := coerceRow(data, pl.InputSchema)
	in := stream.FromRows(pl.InputSchema, []value.Row{row})

	out := buildChain(in, pl.Clauses, ex.catalog.sources, ex.registry)

	rows, err := stream.Drain(ctx, out)
	if err != nil {
		kind := value.KindInternal
		if ctx.Err() != nil {
			kind = value.KindTimeout
		}
		errv := value.WrapError(kind, err)
		ce, _ := errv.AsError()
		return Result{Status: StatusError, Pipeline: pipelineName, failure: ce.Error(), TimeMs: elapsed()}
	}

	data2, ledger := extractErrors(rows)
	return Result{
		Status:   StatusOK,
		Count:    len(data2),
		Data:     data2,
		Pipeline: pipelineName,
		Errors:   ledger,
		TimeMs:   elapsed(),
	}
}

// coerceRow implements step 2: missing declared columns become
// Null; undeclared input columns are discarded; a value whose Kind doesn't
// match its declared type (and isn't Dynamic) becomes a TypeError cell
// rather than failing the whole request.
func coerceRow(data value.Row, schema value.Schema) value.Row {
	out := make(value.Row, len(schema.Columns))
	for _, col := range schema.Columns {
		v, present := data[col.Name]
		if !present {
			out[col.Name] = value.Null()
			continue
		}
		out[col.Name] = coerceValue(v, col.Type, col.Name)
	}
	return out
}

func coerceValue(v value.Value, declared value.TypeTag, name string) value.Value {
	if declared == value.TDynamic || v.IsNull() || v.IsError() {
		return v
	}
	wantKind, ok := declared.Kind()
	if !ok || v.Kind() == wantKind {
		return v
	}
	// Numeric widening between the declared numeric type and an actually
	// numeric value is accepted; anything else is a coercion failure.
	if isNumericKind(wantKind) && v.IsNumeric() {
		f, _ := v.AsFloat64()
		switch wantKind {
		case value.KindInt:
			return value.Int(int64(f))
		case value.KindFloat:
			return value.Float(float32(f))
		case value.KindDouble:
			return value.Double(f)
		}
	}
	return value.NewError(value.KindType, "column %q: expected %s, got %s", name, declared, v.Kind())
}

func isNumericKind(k value.Kind) bool {
	return k == value.KindInt || k == value.KindFloat || k == value.KindDouble
}

// buildChain composes the operator chain for pl's clauses over in, the way
// step 3 describes ("compose the operator chain"). Each clause
// type maps directly to its ops.* constructor.
func buildChain(in stream.Stream, clauses []dsl.Clause, sources map[string]lookup.Source, registry *eval.Registry) stream.Stream {
	s := in
	for _, c := range clauses {
		s = applyClause(s, c, sources, registry)
	}
	return s
}

func applyClause(in stream.Stream, c dsl.Clause, sources map[string]lookup.Source, registry *eval.Registry) stream.Stream {
	switch cl := c.(type) {
	case dsl.WhereClause:
		return ops.Where(in, cl.Expr, registry)
	case dsl.TakeClause:
		return ops.Take(in, cl.N)
	case dsl.ProjectClause:
		return ops.Project(in, cl.Assigns, registry)
	case dsl.ProjectRemoveClause:
		return ops.ProjectRemove(in, cl.Names)
	case dsl.ProjectKeepClause:
		return ops.ProjectKeep(in, cl.Names)
	case dsl.ProjectRenameClause:
		return ops.ProjectRename(in, cl.Assigns)
	case dsl.TopClause:
		return ops.Top(in, cl.N, cl.Terms, registry)
	case dsl.SummarizeClause:
		return ops.Summarize(in, cl.Assigns, cl.By, registry)
	case dsl.DistinctClause:
		return ops.Distinct(in)
	case dsl.ExplodeClause:
		return ops.Explode(in, cl.Column, cl.As)
	case dsl.IgnoreErrorsClause:
		return ops.IgnoreErrors(in)
	case dsl.LookupClause:
		return ops.Lookup(in, cl.Fields, sources[cl.Source], cl.Key, registry)
	case dsl.JoinClause:
		return ops.Join(in, cl.Kind, cl.Fields, sources[cl.Source], cl.Key, registry)
	default:
		return in
	}
}

// extractErrors implements step 4: replace Error cells with Null
// in the returned data, recording each into the ledger. Ledger entries are
// sorted by (row_index, column_name).
func extractErrors(rows []value.Row) ([]value.Row, []ErrorEntry) {
	out := make([]value.Row, len(rows))
	var ledger []ErrorEntry
	for i, row := range rows {
		clean := make(value.Row, len(row))
		for col, v := range row {
			if ce, isErr := v.AsError(); isErr {
				clean[col] = value.Null()
				ledger = append(ledger, ErrorEntry{Row: i, Column: col, Message: ce.Error()})
				continue
			}
			clean[col] = v
		}
		out[i] = clean
	}
	sort.Slice(ledger, func(i, j int) bool {
		if ledger[i].Row != ledger[j].Row {
			return ledger[i].Row < ledger[j].Row
		}
		return ledger[i].Column < ledger[j].Column
	})
	return out, ledger
}
