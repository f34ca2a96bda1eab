package pipeline

import (
	"fmt"

	"github.com/feathr-ai/feathr-online/dsl"
	"github.com/feathr-ai/feathr-online/eval"
	"github.com/feathr-ai/feathr-online/lookup"
	"github.com/feathr-ai/feathr-online/ops"
	"github.com/feathr-ai/feathr-online/value"
)

// validatePipeline walks pl's clause list tracking the schema each clause
// would see at run time, and fails on any reference calls a
// load-time semantic error: unknown column, unknown function, scalar
// function arity, unknown lookup source, unknown aggregation.
func validatePipeline(pl *dsl.Pipeline, sources map[string]lookup.Source, registry *eval.Registry) error {
	schema := pl.InputSchema
	for _, clause := range pl.Clauses {
		next, err := validateClause(clause, schema, sources, registry)
		if err != nil {
			return err
		}
		schema = next
	}
	return nil
}

func validateClause(c dsl.Clause, schema value.Schema, sources map[string]lookup.Source, registry *eval.Registry) (value.Schema, error) {
	switch cl := c.(type) {
	case dsl.WhereClause:
		return schema, validateExpr(cl.Expr, schema, registry)

	case dsl.TakeClause:
		return schema, nil

	case dsl.ProjectClause:
		out := schema
		for _, a := range cl.Assigns {
			if err := validateExpr(a.Expr, schema, registry); err != nil {
				return schema, err
			}
			out = out.With(value.Column{Name: a.Name, Type: value.TDynamic})
		}
		return out, nil

	case dsl.ProjectRemoveClause:
		for _, n := range cl.Names {
			if !schema.Has(n) {
				return schema, fmt.Errorf("%w: %q", ErrUnknownColumn, n)
			}
		}
		return schema.Without(cl.Names...), nil

	case dsl.ProjectKeepClause:
		for _, n := range cl.Names {
			if !schema.Has(n) {
				return schema, fmt.Errorf("%w: %q", ErrUnknownColumn, n)
			}
		}
		return schema.Keep(cl.Names...), nil

	case dsl.ProjectRenameClause:
		renameMap := make(map[string]string, len(cl.Assigns))
		for _, a := range cl.Assigns {
			if !schema.Has(a.Old) {
				return schema, fmt.Errorf("%w: %q", ErrUnknownColumn, a.Old)
			}
			renameMap[a.New] = a.Old
		}
		return schema.Renamed(renameMap), nil

	case dsl.TopClause:
		for _, t := range cl.Terms {
			if err := validateExpr(t.Expr, schema, registry); err != nil {
				return schema, err
			}
		}
		return schema, nil

	case dsl.SummarizeClause:
		for _, e := range cl.By {
			if err := validateExpr(e, schema, registry); err != nil {
				return schema, err
			}
		}
		var cols []value.Column
		for i, e := range cl.By {
			cols = append(cols, value.Column{Name: ops.GroupColumnName(e, i), Type: value.TDynamic})
		}
		for _, a := range cl.Assigns {
			if _, ok := eval.NewAccumulator(a.Agg.Func); !ok {
				return schema, fmt.Errorf("%w: aggregation %q", ErrUnknownFunction, a.Agg.Func)
			}
			for _, arg := range a.Agg.Args {
				if err := validateExpr(arg, schema, registry); err != nil {
					return schema, err
				}
			}
			cols = append(cols, value.Column{Name: a.Name, Type: value.TDynamic})
		}
		return value.Schema{Columns: cols}, nil

	case dsl.DistinctClause:
		return schema, nil

	case dsl.ExplodeClause:
		if !schema.Has(cl.Column) {
			return schema, fmt.Errorf("%w: %q", ErrUnknownColumn, cl.Column)
		}
		return schema.With(value.Column{Name: cl.Column, Type: explodeColumnType(cl.As)}), nil

	case dsl.IgnoreErrorsClause:
		return schema, nil

	case dsl.LookupClause:
		if err := validateExpr(cl.Key, schema, registry); err != nil {
			return schema, err
		}
		if _, ok := sources[cl.Source]; !ok {
			return schema, fmt.Errorf("%w: %q", ErrUnknownSource, cl.Source)
		}
		out := schema
		for _, f := range cl.Fields {
			out = out.With(value.Column{Name: f, Type: value.TDynamic})
		}
		return out, nil

	case dsl.JoinClause:
		if err := validateExpr(cl.Key, schema, registry); err != nil {
			return schema, err
		}
		if _, ok := sources[cl.Source]; !ok {
			return schema, fmt.Errorf("%w: %q", ErrUnknownSource, cl.Source)
		}
		out := schema
		for _, f := range cl.Fields {
			out = out.With(value.Column{Name: f, Type: value.TDynamic})
		}
		return out, nil

	default:
		return schema, fmt.Errorf("pipeline: unhandled clause type %T", c)
	}
}

func explodeColumnType(as value.TypeTag) value.TypeTag {
	if as == "" {
		return value.TDynamic
	}
	return as
}

// validateExpr recursively checks column references and function calls
// against schema and registry.
func validateExpr(e dsl.Expr, schema value.Schema, registry *eval.Registry) error {
	switch ex := e.(type) {
	case dsl.LiteralExpr:
		return nil
	case dsl.ColumnExpr:
		if !schema.Has(ex.Name) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, ex.Name)
		}
		return nil
	case dsl.UnaryExpr:
		return validateExpr(ex.Operand, schema, registry)
	case dsl.BinaryExpr:
		if err := validateExpr(ex.Left, schema, registry); err != nil {
			return err
		}
		return validateExpr(ex.Right, schema, registry)
	case dsl.IndexExpr:
		if err := validateExpr(ex.Target, schema, registry); err != nil {
			return err
		}
		return validateExpr(ex.Index, schema, registry)
	case dsl.FieldExpr:
		return validateExpr(ex.Target, schema, registry)
	case dsl.CallExpr:
		rec := registry.Lookup(ex.Func)
		if rec == nil {
			return fmt.Errorf("%w: %q", ErrUnknownFunction, ex.Func)
		}
		if len(ex.Args) < rec.MinArity || (rec.MaxArity >= 0 && len(ex.Args) > rec.MaxArity) {
			return fmt.Errorf("pipeline: function %q called with %d arguments", ex.Func, len(ex.Args))
		}
		for _, arg := range ex.Args {
			if err := validateExpr(arg, schema, registry); err != nil {
				return err
			}
		}
		return nil
	case dsl.CaseExpr:
		for _, w := range ex.Whens {
			if err := validateExpr(w.Cond, schema, registry); err != nil {
				return err
			}
			if err := validateExpr(w.Then, schema, registry); err != nil {
				return err
			}
		}
		if ex.Else != nil {
			return validateExpr(ex.Else, schema, registry)
		}
		return nil
	default:
		return fmt.Errorf("pipeline: unhandled expr type %T", e)
	}
}
