// Package discovery fans a route request out to every bridge adapter, ranks
// the quotes that come back and caches the ranked list.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JustRahman/cross-chain-bridghe/internal/bridge"
	"github.com/JustRahman/cross-chain-bridghe/internal/cache"
	"github.com/JustRahman/cross-chain-bridghe/internal/circuitbreaker"
	"github.com/JustRahman/cross-chain-bridghe/internal/metrics"
	"github.com/JustRahman/cross-chain-bridghe/internal/model"
	"github.com/JustRahman/cross-chain-bridghe/internal/otel"
	"github.com/JustRahman/cross-chain-bridghe/internal/security"
	"github.com/JustRahman/cross-chain-bridghe/internal/validation"
)

// ErrNoRoutesFound means every adapter declined, failed or timed out
var ErrNoRoutesFound = errors.New("discovery: no routes found")

// DefaultAdapterTimeout bounds each adapter's GetQuote call
const DefaultAdapterTimeout = 6 * time.Second

// Engine is the route discovery engine. It holds no cross-call state besides
// the quote cache and the circuit breakers.
type Engine struct {
	adapters    []bridge.Adapter
	byName      map[string]bridge.Adapter
	cache       cache.QuoteCache
	timeout     time.Duration
	reliability ReliabilitySource
	liquidity   LiquiditySource
	breakers    *circuitbreaker.Group
	metrics     *metrics.Metrics
	validation  validation.ValidationOptions
}

// Option configures an Engine
type Option func(*Engine)

// WithCache replaces the default in-memory cache
func WithCache(c cache.QuoteCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithAdapterTimeout sets the per-adapter deadline
func WithAdapterTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithReliabilitySource ranks by persisted reliability instead of the quoted success rate
func WithReliabilitySource(src ReliabilitySource) Option {
	return func(e *Engine) { e.reliability = src }
}

// WithLiquiditySource supplies a liquidity signal for ranking
func WithLiquiditySource(src LiquiditySource) Option {
	return func(e *Engine) { e.liquidity = src }
}

// WithCircuitBreakers skips adapters whose breaker is open
func WithCircuitBreakers(g *circuitbreaker.Group) Option {
	return func(e *Engine) { e.breakers = g }
}

// WithMetrics records adapter, cache and discovery metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithValidationOptions overrides the quote checks applied before ranking
func WithValidationOptions(opts validation.ValidationOptions) Option {
	return func(e *Engine) { e.validation = opts }
}

// NewRouteDiscoveryEngine builds an engine over adapters in registration order
func NewRouteDiscoveryEngine(adapters []bridge.Adapter, opts ...Option) *Engine {
	e := &Engine{
		adapters:   make([]bridge.Adapter, 0, len(adapters)),
		byName:     make(map[string]bridge.Adapter, len(adapters)),
		timeout:    DefaultAdapterTimeout,
		validation: validation.DefaultValidationOptions(),
	}
	for _, a := range adapters {
		if a == nil {
			continue
		}
		e.adapters = append(e.adapters, a)
		e.byName[strings.ToLower(a.Name())] = a
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.NewMemory(cache.DefaultTTL, cache.DefaultCapacity,
			cache.WithEvictionHook(e.metrics.CacheEvicted))
	}
	return e
}

// Adapter looks an adapter up by name, case-insensitively
func (e *Engine) Adapter(name string) (bridge.Adapter, bool) {
	a, ok := e.byName[strings.ToLower(name)]
	return a, ok
}

// Adapters returns the registered adapters in order
func (e *Engine) Adapters() []bridge.Adapter {
	out := make([]bridge.Adapter, len(e.adapters))
	copy(out, e.adapters)
	return out
}

// DiscoverRoutes returns the quotes for params, best first
func (e *Engine) DiscoverRoutes(ctx context.Context, params model.RouteParams, prefs *RankingPreferences) ([]model.BridgeQuote, error) {
	ranked, err := e.RankedRoutes(ctx, params, prefs)
	if err != nil {
		return nil, err
	}
	quotes := make([]model.BridgeQuote, len(ranked))
	for i, r := range ranked {
		quotes[i] = r.Quote
	}
	return quotes, nil
}

// RankedRoutes is DiscoverRoutes with the scores behind each position
func (e *Engine) RankedRoutes(ctx context.Context, params model.RouteParams, prefs *RankingPreferences) ([]RankedQuote, error) {
	params = params.Normalized()
	ctx, span := otel.Tracer().Start(ctx, "discovery.DiscoverRoutes", trace.WithAttributes(
		attribute.String("route.source_chain", params.SourceChain),
		attribute.String("route.destination_chain", params.DestinationChain),
		attribute.String("route.amount", params.Amount),
	))
	defer span.End()

	if params.SourceChain == "" || params.DestinationChain == "" {
		err := fmt.Errorf("source and destination chain are required: %w", ErrNoRoutesFound)
		otel.RecordError(ctx, err)
		return nil, err
	}

	r := ranker{prefs: prefs.resolve(), reliability: e.reliability, liquidity: e.liquidity}

	key, err := security.RouteFingerprint(params)
	if err != nil {
		// an unfingerprintable request simply bypasses the cache
		logrus.WithError(err).Warn("Could not fingerprint route request")
	}
	if key != "" {
		if cached, ok := e.cache.Get(ctx, key); ok {
			e.metrics.CacheLookup(true)
			span.SetAttributes(attribute.Bool("cache.hit", true))
			ranked := r.rank(cached, params)
			e.metrics.Discovery("cache_hit", len(ranked))
			return ranked, nil
		}
		e.metrics.CacheLookup(false)
	}

	collected := e.collect(ctx, params)
	if err := ctx.Err(); err != nil {
		// a partial cohort is neither cached nor reported as "no routes"
		e.metrics.Discovery("cancelled", 0)
		return nil, fmt.Errorf("route discovery abandoned: %w", err)
	}
	quotes := validation.FilterInvalidWithOptions(collected, e.validation)
	if len(quotes) == 0 {
		e.metrics.Discovery("no_routes", 0)
		err := fmt.Errorf("%s -> %s: %w", params.SourceChain, params.DestinationChain, ErrNoRoutesFound)
		otel.RecordError(ctx, err)
		return nil, err
	}

	// cached in registration order so every read ranks with its own
	// preferences and ties fall back to adapter order
	if key != "" {
		e.cache.Set(ctx, key, quotes)
	}
	ranked := r.rank(quotes, params)

	e.metrics.Discovery("ok", len(ranked))
	span.SetAttributes(attribute.Int("routes.count", len(ranked)))
	logrus.WithFields(logrus.Fields{
		"source":      params.SourceChain,
		"destination": params.DestinationChain,
		"routes":      len(ranked),
		"best":        ranked[0].Quote.Protocol,
		"best_score":  ranked[0].Scores.Total,
	}).Debug("Ranked bridge routes")

	return ranked, nil
}

type outcome struct {
	quote model.BridgeQuote
	err   error
}

// collect calls every eligible adapter concurrently and returns the
// successes in registration order.
func (e *Engine) collect(ctx context.Context, params model.RouteParams) []model.BridgeQuote {
	results := make([]*model.BridgeQuote, len(e.adapters))

	var wg sync.WaitGroup
	for i, a := range e.adapters {
		if !a.SupportsRoute(params.SourceChain, params.DestinationChain) {
			continue
		}
		var cb *circuitbreaker.CircuitBreaker
		if e.breakers != nil {
			cb = e.breakers.For(a.Name())
			if !cb.Allow() {
				e.metrics.AdapterCall(a.Name(), metrics.ResultSkipped, 0)
				logrus.WithField("bridge", a.Name()).Debug("Skipping adapter with open circuit")
				continue
			}
		}

		wg.Add(1)
		go func(i int, a bridge.Adapter, cb *circuitbreaker.CircuitBreaker) {
			defer wg.Done()
			q, ok := e.quote(ctx, a, cb, params)
			if ok {
				results[i] = &q
			}
		}(i, a, cb)
	}
	wg.Wait()

	quotes := make([]model.BridgeQuote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	return quotes
}

// quote runs one adapter call under its own deadline. The adapter runs in a
// separate goroutine so a call that ignores ctx cannot hold up the batch.
func (e *Engine) quote(ctx context.Context, a bridge.Adapter, cb *circuitbreaker.CircuitBreaker, params model.RouteParams) (model.BridgeQuote, bool) {
	name := a.Name()
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	callCtx, span := otel.Tracer().Start(callCtx, "bridge.GetQuote", trace.WithAttributes(attribute.String("bridge", name)))
	defer span.End()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		q, err := a.GetQuote(callCtx, params)
		done <- outcome{quote: q, err: err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-callCtx.Done():
		o.err = fmt.Errorf("%s: %w", name, bridge.ErrUpstreamTimeout)
	}
	elapsed := time.Since(start)

	log := logrus.WithFields(logrus.Fields{
		"bridge":     name,
		"elapsed_ms": elapsed.Milliseconds(),
	})

	// the caller gave up; the adapter did not fail
	if o.err != nil && ctx.Err() != nil {
		e.metrics.AdapterCall(name, metrics.ResultCancelled, elapsed)
		log.WithError(ctx.Err()).Debug("Discarding adapter result after caller cancelled")
		return model.BridgeQuote{}, false
	}

	switch {
	case o.err == nil:
		e.metrics.AdapterCall(name, metrics.ResultSuccess, elapsed)
		if cb != nil {
			cb.RecordSuccess()
		}
		return o.quote, true
	case errors.Is(o.err, bridge.ErrNoRoute):
		e.metrics.AdapterCall(name, metrics.ResultNoRoute, elapsed)
		// declining a route says nothing about adapter health
		if cb != nil {
			cb.RecordSuccess()
		}
		log.Debug("Adapter declined route")
	case errors.Is(o.err, bridge.ErrUpstreamTimeout), errors.Is(o.err, context.DeadlineExceeded):
		e.metrics.AdapterCall(name, metrics.ResultTimeout, elapsed)
		if cb != nil {
			cb.RecordFailure("timeout")
		}
		otel.RecordError(callCtx, o.err)
		log.WithError(o.err).Warn("Adapter timed out")
	default:
		e.metrics.AdapterCall(name, metrics.ResultError, elapsed)
		if cb != nil {
			cb.RecordFailure(o.err.Error())
		}
		otel.RecordError(callCtx, o.err)
		log.WithError(o.err).Warn("Adapter quote failed")
	}
	return model.BridgeQuote{}, false
}

// CheckHealth checks every adapter concurrently, in registration order
func (e *Engine) CheckHealth(ctx context.Context) []model.BridgeHealth {
	out := make([]model.BridgeHealth, len(e.adapters))

	var wg sync.WaitGroup
	for i, a := range e.adapters {
		wg.Add(1)
		go func(i int, a bridge.Adapter) {
			defer wg.Done()
			h := a.CheckAvailability(ctx)
			if h.BridgeName == "" {
				h.BridgeName = a.Name()
			}
			if !h.IsHealthy {
				logrus.WithFields(logrus.Fields{
					"bridge": a.Name(),
					"error":  h.ErrorMessage,
				}).Warn("Bridge unhealthy")
			}
			out[i] = h
		}(i, a)
	}
	wg.Wait()
	return out
}
