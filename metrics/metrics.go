// Package metrics implements the plaintext key/value metrics surface of
// GET /metrics: request counts, per-pipeline latency, and per-source cache
// hit/miss counters. It is intentionally dependency-free: the output is a
// handful of "key value" lines, which has no natural third-party library
// to reach for.
package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
)

// CacheSource is the subset of lookup.Cache that Render needs; kept narrow
// so this package does not import lookup (avoiding a dependency cycle with
// httpapi, which imports both).
type CacheSource interface {
	Name() string
	Stats() (hits, misses int64)
}

// Registry holds process-wide counters and gauges, safe for concurrent use
// from every request goroutine. Per-source cache hit/miss counters are not
// duplicated here: lookup.Cache already tracks its own, so Render accepts
// them as a parameter at scrape time instead.
type Registry struct {
	requests int64

	mu         sync.Mutex
	pipelineNs map[string]*pipelineStats
}

type pipelineStats struct {
	count   int64
	totalNs int64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pipelineNs: make(map[string]*pipelineStats)}
}

// IncRequests records one processed /process request.
func (r *Registry) IncRequests() {
	atomic.AddInt64(&r.requests, 1)
}

// ObservePipelineLatency records how long one pipeline run took.
func (r *Registry) ObservePipelineLatency(pipeline string, nanos int64) {
	r.mu.Lock()
	ps, ok := r.pipelineNs[pipeline]
	if !ok {
		ps = &pipelineStats{}
		r.pipelineNs[pipeline] = ps
	}
	r.mu.Unlock()
	atomic.AddInt64(&ps.count, 1)
	atomic.AddInt64(&ps.totalNs, nanos)
}

// Render writes the registry plus the given per-source caches out as
// plaintext "key value" lines, one metric per line, keys sorted for a
// stable diff-friendly response.
func (r *Registry) Render(caches []CacheSource) string {
	lines := make(map[string]string)
	lines["requests_total"] = strconv.FormatInt(atomic.LoadInt64(&r.requests), 10)

	r.mu.Lock()
	for pipeline, ps := range r.pipelineNs {
		count := atomic.LoadInt64(&ps.count)
		total := atomic.LoadInt64(&ps.totalNs)
		var avgMs float64
		if count > 0 {
			avgMs = float64(total) / float64(count) / 1e6
		}
		lines[fmt.Sprintf("pipeline_latency_avg_ms{pipeline=%q}", pipeline)] = strconv.FormatFloat(avgMs, 'f', 3, 64)
		lines[fmt.Sprintf("pipeline_requests_total{pipeline=%q}", pipeline)] = strconv.FormatInt(count, 10)
	}
	r.mu.Unlock()

	for _, c := range caches {
		hits, misses := c.Stats()
		lines[fmt.Sprintf("cache_hits_total{source=%q}", c.Name())] = strconv.FormatInt(hits, 10)
		lines[fmt.Sprintf("cache_misses_total{source=%q}", c.Name())] = strconv.FormatInt(misses, 10)
	}

	keys := make([]string, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for _, k := range keys {
		out += k + " " + lines[k] + "\n"
	}
	return out
}
