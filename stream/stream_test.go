package stream_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feathr-ai/feathr-online/stream"
	"github.com/feathr-ai/feathr-online/value"
)

func TestFromRows_DrainPreservesOrder(t *testing.T) {
	schema := value.Schema{Columns: []value.Column{{Name: "x", Type: value.TInt}}}
	rows := []value.Row{
		{"x": value.Int(1)},
		{"x": value.Int(2)},
		{"x": value.Int(3)},
	}
	s := stream.FromRows(schema, rows)
	out, err := stream.Drain(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, int64(1), out[0]["x"].Int())
	assert.Equal(t, int64(3), out[2]["x"].Int())
}

func TestFromRows_ExhaustedReturnsFalse(t *testing.T) {
	s := stream.FromRows(value.Schema{}, nil)
	_, ok, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFromRows_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := stream.FromRows(value.Schema{}, []value.Row{{"x": value.Int(1)}})
	_, _, err := s.Next(ctx)
	assert.Error(t, err)
}

func TestNew_FuncStream(t *testing.T) {
	i := 0
	s := stream.New(value.Schema{}, func(ctx context.Context) (value.Row, bool, error) {
		if i >= 2 {
			return nil, false, nil
		}
		i++
		return value.Row{"n": value.Int(int64(i))}, true, nil
	})
	out, err := stream.Drain(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, out, 2)
}
