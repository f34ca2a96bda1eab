// Package lookup defines the lookup-source capability and
// the shared single-flight + bounded-LRU cache layer that wraps every
// built-in and UDLF-backed source.
package lookup

import (
	"context"

	"github.com/feathr-ai/feathr-online/value"
)

// Source yields rows for a key and an ordered list of requested field
// names. Implementations must be goroutine-safe: the executor may issue
// concurrent calls for disjoint rows of a single lookup/join operator.
//
// A Null key short-circuits before Source.Lookup is ever called;
// implementations do not need to handle a Null key themselves.
type Source interface {
	// Name identifies the source for error messages, metrics, and cache
	// partitioning.
	Name() string

	// Lookup fetches rows for key, each row populated with exactly the
	// requested fields (fields absent in the underlying data are Null).
	// Returns zero rows, not an error, when the key legitimately has no
	// match. A non-nil error indicates a transport/query failure and is
	// surfaced as a LookupError cell on every requested field.
	Lookup(ctx context.Context, key value.Value, fields []string) ([]value.Row, error)
}

// SourceFunc adapts a plain function to the Source interface, the same
// function-type-as-interface-implementation pattern used for test doubles
// and simple built-in sources throughout this package.
type SourceFunc struct {
	SourceName string
	Fn         func(ctx context.Context, key value.Value, fields []string) ([]value.Row, error)
}

func (f SourceFunc) Name() string { return f.SourceName }

func (f SourceFunc) Lookup(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
	return f.Fn(ctx, key, fields)
}

// AllNullRow builds a row whose every requested field is Null, used for the
// Null-key short-circuit and for an empty-result lookup/outer-join miss.
func AllNullRow(fields []string) value.Row {
	row := make(value.Row, len(fields))
	for _, f := range fields {
		row[f] = value.Null()
	}
	return row
}

// ErrorRow builds a row whose every requested field carries the same Error
// value, used when a key or source lookup fails.
func ErrorRow(fields []string, errv value.Value) value.Row {
	row := make(value.Row, len(fields))
	for _, f := range fields {
		row[f] = errv
	}
	return row
}
