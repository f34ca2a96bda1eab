package metrics_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feathr-ai/feathr-online/metrics"
)

type fakeCache struct {
	name         string
	hits, misses int64
}

func (f fakeCache) Name() string                    { return f.name }
func (f fakeCache) Stats() (hits, misses int64) { return f.hits, f.misses }

func TestRegistry_Render(t *testing.T) {
	r := metrics.NewRegistry()
	r.IncRequests()
	r.IncRequests()
	r.ObservePipelineLatency("p1", 2_000_000)
	r.ObservePipelineLatency("p1", 4_000_000)

	out := r.Render([]metrics.CacheSource{fakeCache{name: "users", hits: 3, misses: 1}})

	assert.Contains(t, out, "requests_total 2\n")
	assert.Contains(t, out, `pipeline_requests_total{pipeline="p1"} 2`)
	assert.Contains(t, out, `pipeline_latency_avg_ms{pipeline="p1"} 3.000`)
	assert.Contains(t, out, `cache_hits_total{source="users"} 3`)
	assert.Contains(t, out, `cache_misses_total{source="users"} 1`)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, lines, sortedCopy(lines))
}

func sortedCopy(lines []string) []string {
	out := append([]string(nil), lines...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
