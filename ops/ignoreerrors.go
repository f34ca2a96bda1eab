package ops

import (
	"context"

	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// IgnoreErrors drops any row where any cell is Error. Schema is unchanged.
// This is the only operator that excludes error rows before the pipeline
// boundary.
func IgnoreErrors(in stream.Stream) stream.Stream {
	return stream.New(in.Schema(), func(ctx context.Context) (value.Row, bool, error) {
		for {
			row, ok, err := in.Next(ctx)
			if err != nil || !ok {
				return nil, ok, err
			}
			if !rowHasError(row) {
				return row, true, nil
			}
		}
	})
}

func rowHasError(row value.Row) bool {
	for _, v := range row {
		if v.IsError() {
			return true
		}
	}
	return false
}
