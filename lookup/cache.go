package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/feathr-ai/feathr-online/internal/recovery"
	"github.com/feathr-ai/feathr-online/value"
)

// DefaultCacheCapacity is the per-source LRU capacity defaults to
// when a source's config does not override it.
const DefaultCacheCapacity = 1024

type cacheEntry struct {
	fields map[string]bool
	rows   []value.Row
}

// Cache wraps a Source with a single-flight + bounded-LRU layer: concurrent
// misses on the same key with the same field list are coalesced into at most one underlying Lookup
// call per cache-valid window, and a hit is served when the cached entry's
// field set is a superset of what's requested and the entry has not
// expired.
//
// Cache partitions its locking per Source instance (one Cache wraps one
// Source), so access serializes per source rather than behind one global
// lock.
type Cache struct {
	source Source
	lru    *lru.LRU[string, *cacheEntry]
	flight singleflight.Group
	mu     sync.Mutex

	hits, misses int64
}

// NewCache wraps src with a bounded LRU of the given capacity (0 uses
// DefaultCacheCapacity) and optional ttl (0 means cache-until-evicted).
func NewCache(src Source, capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	// expirable.LRU requires a positive TTL; a "no TTL" source gets a very
	// long one so entries are only evicted by capacity pressure, which is
	// what an absent TTL is meant to mean.
	effectiveTTL := ttl
	if effectiveTTL <= 0 {
		effectiveTTL = 365 * 24 * time.Hour
	}
	return &Cache{
		source: src,
		lru:    lru.NewLRU[string, *cacheEntry](capacity, nil, effectiveTTL),
	}
}

// Name delegates to the wrapped source so Cache itself satisfies Source.
func (c *Cache) Name() string { return c.source.Name() }

// Source returns the wrapped Source, for callers (such as a shutdown hook)
// that need the concrete client underneath the cache.
func (c *Cache) Source() Source { return c.source }

// Lookup implements Source, consulting the cache before falling through to
// the wrapped source under single-flight coalescing. The underlying call is
// panic-recovered: a lookup source wraps a third-party client (a SQL
// driver, a Redis client, an HTTP round trip, a UDLF callable) and a panic
// there must not crash the request.
func (c *Cache) Lookup(ctx context.Context, key value.Value, fields []string) ([]value.Row, error) {
	cacheKey := c.cacheKey(key)

	if entry, ok := c.lru.Get(cacheKey); ok && hasAllFields(entry.fields, fields) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return projectRows(entry.rows, fields), nil
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()

	flightKey := cacheKey + "|" + strings.Join(sortedCopy(fields), ",")
	rowsAny, err, _ := c.flight.Do(flightKey, func() (any, error) {
		var rows []value.Row
		lookupErr := recovery.RecoverToError(slog.Default(), "lookup:"+c.source.Name(), func() error {
			r, err := c.source.Lookup(ctx, key, fields)
			rows = r
			return err
		})
		if lookupErr != nil {
			return nil, lookupErr
		}
		c.lru.Add(cacheKey, &cacheEntry{fields: fieldSet(fields), rows: rows})
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return rowsAny.([]value.Row), nil
}

// Stats returns cumulative hit/miss counts for the GET /metrics surface.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) cacheKey(key value.Value) string {
	return fmt.Sprintf("%v", value.HashKey(key))
}

func hasAllFields(set map[string]bool, fields []string) bool {
	for _, f := range fields {
		if !set[f] {
			return false
		}
	}
	return true
}

func fieldSet(fields []string) map[string]bool {
	m := make(map[string]bool, len(fields))
	for _, f := range fields {
		m[f] = true
	}
	return m
}

func sortedCopy(fields []string) []string {
	out := append([]string(nil), fields...)
	sort.Strings(out)
	return out
}

// projectRows narrows cached rows (which may carry a superset of fields) to
// exactly the requested fields.
func projectRows(rows []value.Row, fields []string) []value.Row {
	out := make([]value.Row, len(rows))
	for i, r := range rows {
		nr := make(value.Row, len(fields))
		for _, f := range fields {
			nr[f] = r.Get(f)
		}
		out[i] = nr
	}
	return out
}
