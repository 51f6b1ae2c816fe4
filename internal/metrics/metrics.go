// Package metrics holds the Prometheus collectors for route discovery. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Adapter call outcomes used as label values
const (
	ResultSuccess = "success"
	ResultNoRoute = "no_route"
	ResultError   = "error"
	ResultTimeout = "timeout"
	ResultSkipped = "skipped"

	// ResultCancelled is a call abandoned because the caller went away
	ResultCancelled = "cancelled"
)

// Metrics holds Prometheus collectors for the aggregator
type Metrics struct {
	adapterCalls     *prometheus.CounterVec
	adapterDuration  *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	cacheEvictions   prometheus.Counter
	discoveries      *prometheus.CounterVec
	routesFound      prometheus.Histogram
	bestRouteSearch  *prometheus.CounterVec
	reliabilityScore *prometheus.GaugeVec
	circuitState     *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		adapterCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_adapter_calls_total",
				Help: "Quote requests sent to bridge adapters",
			},
			[]string{"bridge", "result"},
		),
		adapterDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_adapter_duration_seconds",
				Help:    "Bridge adapter quote latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"bridge"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_quote_cache_lookups_total",
				Help: "Quote cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		cacheEvictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_quote_cache_evictions_total",
				Help: "Entries dropped from the quote cache on overflow",
			},
		),
		discoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_route_discoveries_total",
				Help: "Route discovery requests by status",
			},
			[]string{"status"},
		),
		routesFound: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bridge_routes_found",
				Help:    "Number of ranked quotes per discovery",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
		),
		bestRouteSearch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_best_route_searches_total",
				Help: "Best route searches by winning route type",
			},
			[]string{"route_type"},
		),
		reliabilityScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bridge_reliability_score",
				Help: "Latest overall reliability score per bridge (0-100)",
			},
			[]string{"bridge"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bridge_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"bridge"},
		),
	}

	reg.MustRegister(
		m.adapterCalls,
		m.adapterDuration,
		m.cacheLookups,
		m.cacheEvictions,
		m.discoveries,
		m.routesFound,
		m.bestRouteSearch,
		m.reliabilityScore,
		m.circuitState,
	)
	return m
}

// AdapterCall records one adapter quote attempt
func (m *Metrics) AdapterCall(bridge, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.adapterCalls.WithLabelValues(bridge, result).Inc()
	if result != ResultSkipped {
		m.adapterDuration.WithLabelValues(bridge).Observe(elapsed.Seconds())
	}
}

// CacheLookup records a cache hit or miss
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// CacheEvicted records entries dropped on overflow
func (m *Metrics) CacheEvicted(n int) {
	if m == nil {
		return
	}
	m.cacheEvictions.Add(float64(n))
}

// Discovery records the outcome of one discovery request
func (m *Metrics) Discovery(status string, routes int) {
	if m == nil {
		return
	}
	m.discoveries.WithLabelValues(status).Inc()
	m.routesFound.Observe(float64(routes))
}

// BestRoute records which route type won a best-route search
func (m *Metrics) BestRoute(routeType string) {
	if m == nil {
		return
	}
	m.bestRouteSearch.WithLabelValues(routeType).Inc()
}

// ReliabilityScore publishes the latest score for a bridge
func (m *Metrics) ReliabilityScore(bridge string, score float64) {
	if m == nil {
		return
	}
	m.reliabilityScore.WithLabelValues(bridge).Set(score)
}

// CircuitState publishes a breaker state as its numeric value
func (m *Metrics) CircuitState(bridge string, state int) {
	if m == nil {
		return
	}
	m.circuitState.WithLabelValues(bridge).Set(float64(state))
}
