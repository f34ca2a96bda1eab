package ops

import (
	"context"

	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

// Take emits the first n rows (n >= 0), then closes upstream — it never
// pulls more than n+1 rows from in, matching "close the
// upstream thereafter". Schema is unchanged.
func Take(in stream.Stream, n int64) stream.Stream {
	if n < 0 {
		n = 0
	}
	var emitted int64
	return stream.New(in.Schema(), func(ctx context.Context) (value.Row, bool, error) {
		if emitted >= n {
			return nil, false, nil
		}
		row, ok, err := in.Next(ctx)
		if err != nil || !ok {
			return nil, ok, err
		}
		emitted++
		return row, true, nil
	})
}
