// Package lookupsrc implements the six built-in lookup-source variants
// tables: each is a concrete Go type satisfying lookup.Source,
// built at catalog load time from a class-specific config object.
package lookupsrc

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/feathr-ai/feathr-online/value"
)

// KVConfig configures a key-value store (Redis-like) lookup source: the key
// is looked up as a hash row, all requested fields read with one HMGET.
type KVConfig struct {
	// Name identifies this source in pipeline `lookup`/`join from` clauses.
	Name string

	// Addr is the Redis server address, e.g. "localhost:6379". REQUIRED.
	Addr string

	// Password, DB are passed through to redis.Options verbatim. OPTIONAL.
	Password string
	DB       int

	// KeyPrefix is prepended to the string form of the lookup key before
	// the hash name is formed, e.g. "user:" + key. OPTIONAL.
	KeyPrefix string
}

// KVSource is the Redis-backed lookup source built from a KVConfig.
type KVSource struct {
	name   string
	prefix string
	client *redis.Client
}

// NewKVSource dials (lazily; go-redis connects on first command) a Redis
// client per cfg and returns a Source ready for registration.
func NewKVSource(cfg KVConfig) *KVSource {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &KVSource{name: cfg.Name, prefix: cfg.KeyPrefix, client: client}
}

func (s *KVSource) Name() string { return s.name }

// Lookup issues one HMGet against the hash named by the key, returning
// exactly one row (or zero if the hash doesn't exist). Fields absent in the
// hash come back Null, "fields absent in the underlying data
// are Null".
func (s *KVSource) Lookup(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
	hashKey := s.prefix + key.String()
	vals, err := s.client.HMGet(ctx, hashKey, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("lookupsrc.kv %q: %w", s.name, err)
	}
	if allNil(vals) {
		exists, err := s.client.Exists(ctx, hashKey).Result()
		if err != nil {
			return nil, fmt.Errorf("lookupsrc.kv %q: %w", s.name, err)
		}
		if exists == 0 {
			return nil, nil
		}
	}
	row := make(value.Row, len(fields))
	for i, f := range fields {
		if vals[i] == nil {
			row[f] = value.Null()
			continue
		}
		row[f] = value.String(fmt.Sprintf("%v", vals[i]))
	}
	return []value.Row{row}, nil
}

func allNil(vals []any) bool {
	for _, v := range vals {
		if v != nil {
			return false
		}
	}
	return true
}

// Close releases the underlying connection pool.
func (s *KVSource) Close() error { return s.client.Close() }
