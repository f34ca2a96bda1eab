package lookupsrc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/klauspost/compress/zstd"

	"github.com/feathr-ai/feathr-online/value"
)

// ColumnFileConfig configures the local columnar lookup source: an Arrow
// IPC stream-format file, optionally zstd-compressed, is read once at load
// time and indexed in memory by equality on KeyColumn; subsequent lookups
// never touch disk again.
type ColumnFileConfig struct {
	Name string

	// Path is the file to read. A ".zst" suffix is treated as
	// zstd-compressed Arrow IPC. REQUIRED.
	Path string

	// KeyColumn is the Arrow column equality-matched against the lookup
	// key. REQUIRED.
	KeyColumn string
}

// ColumnFileSource is the lookup source built from a ColumnFileConfig; it
// holds its whole index in memory, so Lookup never suspends and never
// fails once successfully loaded.
type ColumnFileSource struct {
	name  string
	index map[any][]value.Row
}

// NewColumnFileSource reads and indexes cfg.Path entirely at construction
// time, converting each column into value.Value cells with a per-Arrow-type
// switch over the decoded record batch.
func NewColumnFileSource(cfg ColumnFileConfig) (*ColumnFileSource, error) {
	raw, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.columnfile %q: %w", cfg.Name, err)
	}
	if strings.HasSuffix(cfg.Path, ".zst") {
		raw, err = decompressZstd(raw)
		if err != nil {
			return nil, fmt.Errorf("lookupsrc.columnfile %q: zstd: %w", cfg.Name, err)
		}
	}

	reader, err := ipc.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.columnfile %q: ipc: %w", cfg.Name, err)
	}
	defer reader.Release()

	schema := reader.Schema()
	hasKeyCol := false
	for i := 0; i < schema.NumFields(); i++ {
		if schema.Field(i).Name == cfg.KeyColumn {
			hasKeyCol = true
			break
		}
	}
	if !hasKeyCol {
		return nil, fmt.Errorf("lookupsrc.columnfile %q: key column %q not found", cfg.Name, cfg.KeyColumn)
	}

	index := make(map[any][]value.Row)
	for reader.Next() {
		rec := reader.RecordBatch()
		rows := recordToRows(rec, schema)
		for _, row := range rows {
			k := value.HashKey(row.Get(cfg.KeyColumn))
			index[k] = append(index[k], row)
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("lookupsrc.columnfile %q: %w", cfg.Name, err)
	}

	return &ColumnFileSource{name: cfg.Name, index: index}, nil
}

func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// recordToRows converts one Arrow record batch into value.Row per row,
// keyed by every field name in schema.
func recordToRows(rec arrow.RecordBatch, schema *arrow.Schema) []value.Row {
	n := int(rec.NumRows())
	rows := make([]value.Row, n)
	for i := range rows {
		rows[i] = make(value.Row, schema.NumFields())
	}
	for c := 0; c < int(rec.NumCols()); c++ {
		name := schema.Field(c).Name
		col := rec.Column(c)
		for i := 0; i < n; i++ {
			rows[i][name] = arrowScalar(col, i)
		}
	}
	return rows
}

// arrowScalar converts one cell of an Arrow array into a value.Value with
// a switch over the array's concrete type.
func arrowScalar(arr arrow.Array, idx int) value.Value {
	if arr.IsNull(idx) {
		return value.Null()
	}
	switch a := arr.(type) {
	case *array.Int8:
		return value.Int(int64(a.Value(idx)))
	case *array.Int16:
		return value.Int(int64(a.Value(idx)))
	case *array.Int32:
		return value.Int(int64(a.Value(idx)))
	case *array.Int64:
		return value.Int(a.Value(idx))
	case *array.Uint8:
		return value.Int(int64(a.Value(idx)))
	case *array.Uint16:
		return value.Int(int64(a.Value(idx)))
	case *array.Uint32:
		return value.Int(int64(a.Value(idx)))
	case *array.Uint64:
		return value.Int(int64(a.Value(idx)))
	case *array.Float32:
		return value.Float(a.Value(idx))
	case *array.Float64:
		return value.Double(a.Value(idx))
	case *array.String:
		return value.String(a.Value(idx))
	case *array.Binary:
		return value.String(string(a.Value(idx)))
	case *array.Boolean:
		return value.Bool(a.Value(idx))
	default:
		return value.Null()
	}
}

func (s *ColumnFileSource) Name() string { return s.name }

// Lookup is a pure in-memory map read; it never returns an error once the
// file has loaded successfully.
func (s *ColumnFileSource) Lookup(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
	rows := s.index[value.HashKey(key)]
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]value.Row, len(rows))
	for i, r := range rows {
		nr := make(value.Row, len(fields))
		for _, f := range fields {
			nr[f] = r.Get(f)
		}
		out[i] = nr
	}
	return out, nil
}
