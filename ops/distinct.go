package ops

import (
	"context"
	"fmt"

	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// Distinct emits each distinct row once, in first-seen order. Equality uses
// the value lattice (Null-equals-Null), It is a buffering
// operator only in the sense that it must remember every row it has already
// emitted; it does not wait for upstream exhaustion before emitting.
func Distinct(in stream.Stream) stream.Stream {
	schema := in.Schema()
	names := schema.Names()
	seen := make(map[string]struct{})
	return stream.New(schema, func(ctx context.Context) (value.Row, bool, error) {
		for {
			row, ok, err := in.Next(ctx)
			if err != nil || !ok {
				return nil, ok, err
			}
			key := rowKey(row, names)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			return row, true, nil
		}
	})
}

// rowKey builds a comparable string key for a row over the given column
// order, using the value lattice's HashKey per cell.
func rowKey(row value.Row, names []string) string {
	key := ""
	for _, n := range names {
		key += fmt.Sprintf("%v\x1f", value.HashKey(row.Get(n)))
	}
	return key
}
