// Package stream implements the lazy, asynchronous, single-pass row-set
// substrate that every transformation operator consumes and produces.
// A Stream is pulled one Row at a time; pulls are context-aware so a
// request deadline or cancellation can unwind an in-flight pull cleanly.
package stream

import (
	"context"

	"github.com/feathr-ai/feathr-online/value"
)

// Stream is a pull-based, single-owner row sequence with an attached
// Schema. It is not restartable: once exhausted (or abandoned), it must be
// discarded. Implementations must be safe to call Next on on a single
// goroutine at a time — no internal fan-out.
type Stream interface {
	// Schema returns this stream's output Schema. Stable for the life of
	// the stream.
	Schema() value.Schema

	// Next pulls the next Row. ok is false once the stream is exhausted.
	// A non-nil error aborts the stream (request-level failure); operators
	// that only drop or filter rows must not return an error for that.
	Next(ctx context.Context) (row value.Row, ok bool, err error)
}

// sliceStream is the base case: an in-memory slice of rows, used to seed a
// pipeline run from its single input row.
type sliceStream struct {
	schema value.Schema
	rows   []value.Row
	pos    int
}

// FromRows builds a Stream that replays rows in order against schema.
func FromRows(schema value.Schema, rows []value.Row) Stream {
	return &sliceStream{schema: schema, rows: rows}
}

func (s *sliceStream) Schema() value.Schema { return s.schema }

func (s *sliceStream) Next(ctx context.Context) (value.Row, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}

// Drain pulls every row from s into a slice. Used by the pipeline executor
// to materialize the final output, and by tests.
func Drain(ctx context.Context, s Stream) ([]value.Row, error) {
	var out []value.Row
	for {
		row, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, row)
	}
}

// funcStream adapts a pull function into a Stream; operators build their
// output stream this way rather than defining a named type each time.
type funcStream struct {
	schema value.Schema
	pull   func(ctx context.Context) (value.Row, bool, error)
}

// New wraps pull as a Stream with the given output schema.
func New(schema value.Schema, pull func(ctx context.Context) (value.Row, bool, error)) Stream {
	return &funcStream{schema: schema, pull: pull}
}

func (s *funcStream) Schema() value.Schema { return s.schema }

func (s *funcStream) Next(ctx context.Context) (value.Row, bool, error) {
	return s.pull(ctx)
}
