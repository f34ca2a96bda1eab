package lookupsrc_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/feathr-ai/feathr-online/lookupsrc"
	"github.com/feathr-ai/feathr-online/value"
)

// writeIPCFile builds a two-column ("id" int64, "name" string) Arrow IPC
// file with one record batch and returns its path under t.TempDir().
func writeIPCFile(t *testing.T, compress bool) string {
	t.Helper()
	pool := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String},
	}, nil)

	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"ada", "grace"}, nil)
	rec := b.NewRecordBatch()
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	data := buf.Bytes()
	name := "data.arrow"
	if compress {
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		data = enc.EncodeAll(data, nil)
		require.NoError(t, enc.Close())
		name = "data.arrow.zst"
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestColumnFileSource_Lookup(t *testing.T) {
	path := writeIPCFile(t, false)
	src, err := lookupsrc.NewColumnFileSource(lookupsrc.ColumnFileConfig{
		Name: "users", Path: path, KeyColumn: "id",
	})
	require.NoError(t, err)

	rows, err := src.Lookup(t.Context(), value.Int(2), []string{"name"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "grace", rows[0].Get("name").Str())
}

func TestColumnFileSource_ZstdCompressed(t *testing.T) {
	path := writeIPCFile(t, true)
	src, err := lookupsrc.NewColumnFileSource(lookupsrc.ColumnFileConfig{
		Name: "users", Path: path, KeyColumn: "id",
	})
	require.NoError(t, err)

	rows, err := src.Lookup(t.Context(), value.Int(1), []string{"name"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "ada", rows[0].Get("name").Str())
}

func TestColumnFileSource_UnknownKeyYieldsNoRows(t *testing.T) {
	path := writeIPCFile(t, false)
	src, err := lookupsrc.NewColumnFileSource(lookupsrc.ColumnFileConfig{
		Name: "users", Path: path, KeyColumn: "id",
	})
	require.NoError(t, err)

	rows, err := src.Lookup(t.Context(), value.Int(99), []string{"name"})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestColumnFileSource_MissingKeyColumnErrors(t *testing.T) {
	path := writeIPCFile(t, false)
	_, err := lookupsrc.NewColumnFileSource(lookupsrc.ColumnFileConfig{
		Name: "users", Path: path, KeyColumn: "nope",
	})
	require.Error(t, err)
}
