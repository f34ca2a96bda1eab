package lookupsrc

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" database/sql driver

	"github.com/feathr-ai/feathr-online/value"
)

// TDSConfig configures a SQL (TDS dialect) lookup source: the key is bound
// as the single positional parameter `@P1` of Query, and the result row's
// columns are returned in the order Columns declares.
type TDSConfig struct {
	Name string

	// DSN is a sqlserver:// connection string, may contain ${ENV} tokens
	// already expanded by the caller. REQUIRED.
	DSN string

	// Query selects the row for a key, e.g.
	// "SELECT name, age FROM dbo.users WHERE id = @P1". REQUIRED.
	Query string

	// Columns names the result columns in Query's SELECT order; Lookup maps
	// them onto the caller's requested fields. REQUIRED.
	Columns []string

	MaxOpenConns int
}

// TDSSource is the lookup source built from a TDSConfig.
type TDSSource struct {
	cfg TDSConfig
	db  *sql.DB
}

// NewTDSSource opens (lazily) a connection pool per cfg.
func NewTDSSource(cfg TDSConfig) (*TDSSource, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.tds %q: open: %w", cfg.Name, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return &TDSSource{cfg: cfg, db: db}, nil
}

func (s *TDSSource) Name() string { return s.cfg.Name }

func (s *TDSSource) Lookup(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
	rows, err := s.db.QueryContext(ctx, s.cfg.Query, sql.Named("P1", sqlParam(key)))
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.tds %q: %w", s.cfg.Name, err)
	}
	defer rows.Close()

	colIndex := make(map[string]int, len(s.cfg.Columns))
	for i, c := range s.cfg.Columns {
		colIndex[c] = i
	}

	var out []value.Row
	for rows.Next() {
		scanDest := make([]any, len(s.cfg.Columns))
		raw := make([]sql.NullString, len(s.cfg.Columns))
		for i := range raw {
			scanDest[i] = &raw[i]
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("lookupsrc.tds %q: scan: %w", s.cfg.Name, err)
		}
		row := make(value.Row, len(fields))
		for _, f := range fields {
			idx, ok := colIndex[f]
			if !ok || !raw[idx].Valid {
				row[f] = value.Null()
				continue
			}
			row[f] = value.String(raw[idx].String)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lookupsrc.tds %q: %w", s.cfg.Name, err)
	}
	return out, nil
}

// sqlParam narrows a lookup key Value down to the driver value types
// database/sql accepts directly.
func sqlParam(key value.Value) any {
	switch key.Kind() {
	case value.KindInt:
		return key.Int()
	case value.KindDouble:
		return key.Float64()
	case value.KindFloat:
		return float64(key.Float32())
	case value.KindBool:
		return key.Bool()
	case value.KindDateTime:
		return key.Time()
	case value.KindNull:
		return nil
	default:
		return key.String()
	}
}

func (s *TDSSource) Close() error { return s.db.Close() }
