package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AdapterCall("across", ResultSuccess, 120*time.Millisecond)
	m.AdapterCall("across", ResultSuccess, 80*time.Millisecond)
	m.AdapterCall("hop", ResultTimeout, 6*time.Second)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.CacheEvicted(3)
	m.Discovery("ok", 4)
	m.BestRoute("multi-hop")
	m.ReliabilityScore("across", 91.5)
	m.CircuitState("hop", 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.adapterCalls.WithLabelValues("across", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.adapterCalls.WithLabelValues("hop", ResultTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cacheEvictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.discoveries.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bestRouteSearch.WithLabelValues("multi-hop")))
	assert.Equal(t, 91.5, testutil.ToFloat64(m.reliabilityScore.WithLabelValues("across")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.circuitState.WithLabelValues("hop")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AdapterCall("across", ResultError, time.Second)
		m.CacheLookup(true)
		m.CacheEvicted(1)
		m.Discovery("error", 0)
		m.BestRoute("direct")
		m.ReliabilityScore("across", 10)
		m.CircuitState("across", 0)
	})
}
