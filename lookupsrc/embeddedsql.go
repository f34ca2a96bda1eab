package lookupsrc

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/feathr-ai/feathr-online/value"
)

// EmbeddedSQLConfig configures an embedded SQL (SQLite-like) lookup source:
// the key is bound to the named parameter `:key`, and result columns are
// returned in the order Columns declares.
type EmbeddedSQLConfig struct {
	Name string

	// Path is a modernc.org/sqlite DSN, e.g. "file:features.db?mode=ro".
	// REQUIRED.
	Path string

	// Query selects the row for a key, e.g.
	// "SELECT name, age FROM users WHERE id = :key". REQUIRED.
	Query string

	// Columns names the result columns in Query's SELECT order.
	Columns []string
}

// EmbeddedSQLSource is the lookup source built from an EmbeddedSQLConfig.
type EmbeddedSQLSource struct {
	cfg EmbeddedSQLConfig
	db  *sql.DB
}

// NewEmbeddedSQLSource opens the sqlite file per cfg.
func NewEmbeddedSQLSource(cfg EmbeddedSQLConfig) (*EmbeddedSQLSource, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.embeddedsql %q: open: %w", cfg.Name, err)
	}
	return &EmbeddedSQLSource{cfg: cfg, db: db}, nil
}

func (s *EmbeddedSQLSource) Name() string { return s.cfg.Name }

func (s *EmbeddedSQLSource) Lookup(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
	rows, err := s.db.QueryContext(ctx, s.cfg.Query, sql.Named("key", sqlParam(key)))
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.embeddedsql %q: %w", s.cfg.Name, err)
	}
	defer rows.Close()

	colIndex := make(map[string]int, len(s.cfg.Columns))
	for i, c := range s.cfg.Columns {
		colIndex[c] = i
	}

	var out []value.Row
	for rows.Next() {
		raw := make([]sql.NullString, len(s.cfg.Columns))
		scanDest := make([]any, len(raw))
		for i := range raw {
			scanDest[i] = &raw[i]
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("lookupsrc.embeddedsql %q: scan: %w", s.cfg.Name, err)
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
		return nil, fmt.Errorf("lookupsrc.embeddedsql %q: %w", s.cfg.Name, err)
	}
	return out, nil
}

func (s *EmbeddedSQLSource) Close() error { return s.db.Close() }
