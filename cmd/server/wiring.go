package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/JustRahman/cross-chain-bridghe/internal/bridge"
	"github.com/JustRahman/cross-chain-bridghe/internal/cache"
	"github.com/JustRahman/cross-chain-bridghe/internal/circuitbreaker"
	"github.com/JustRahman/cross-chain-bridghe/internal/config"
	"github.com/JustRahman/cross-chain-bridghe/internal/discovery"
	"github.com/JustRahman/cross-chain-bridghe/internal/history"
	"github.com/JustRahman/cross-chain-bridghe/internal/metrics"
	"github.com/JustRahman/cross-chain-bridghe/internal/multihop"
	"github.com/JustRahman/cross-chain-bridghe/internal/reliability"
	"github.com/JustRahman/cross-chain-bridghe/internal/scheduler"
)

// historyStore is implemented by both the in-memory and the SQLite store
type historyStore interface {
	history.Store
	history.SnapshotStore
}

// dependencies is the assembled service graph
type dependencies struct {
	adapters []bridge.Adapter
	engine   *discovery.Engine
	router   *multihop.Router
	scorer   *reliability.Scorer
	board    *reliability.Board
	store    historyStore
	job      *scheduler.ScoreJob
	breakers *circuitbreaker.Group
	metrics  *metrics.Metrics

	closers []func() error
}

// Close releases the store and cache connections
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logrus.WithError(err).Warn("Error during shutdown")
		}
	}
}

// buildDependencies wires the engine, router and reliability pipeline from cfg
func buildDependencies(ctx context.Context, cfg config.Config, reg prometheus.Registerer) (*dependencies, error) {
	registry, err := bridge.NewDefaultRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build bridge registry: %w", err)
	}
	return assemble(ctx, cfg, registry.Adapters(), reg)
}

// assemble builds everything downstream of the adapters
func assemble(ctx context.Context, cfg config.Config, adapters []bridge.Adapter, reg prometheus.Registerer) (*dependencies, error) {
	d := &dependencies{
		adapters: adapters,
		board:    reliability.NewBoard(),
		metrics:  metrics.New(reg),
	}

	store, err := openHistory(ctx, cfg.HistoryDSN, d)
	if err != nil {
		return nil, err
	}
	d.store = store

	opts := []discovery.Option{
		discovery.WithCache(openCache(ctx, cfg, d)),
		discovery.WithAdapterTimeout(cfg.AdapterTimeout),
		discovery.WithReliabilitySource(d.board),
		discovery.WithMetrics(d.metrics),
	}
	if cfg.EnableCircuitBreaker {
		m := d.metrics
		d.breakers = circuitbreaker.NewGroup(cfg.CircuitFailureThreshold, cfg.CircuitResetDelay, func(cb *circuitbreaker.CircuitBreaker) {
			cb.WithStateCallback(func(name string, s circuitbreaker.State) {
				m.CircuitState(name, int(s))
			})
		})
		opts = append(opts, discovery.WithCircuitBreakers(d.breakers))
	}
	d.engine = discovery.NewRouteDiscoveryEngine(adapters, opts...)

	d.router = multihop.NewRouter(d.engine,
		multihop.WithIntermediateChains(cfg.IntermediateChains),
		multihop.WithMetrics(d.metrics),
	)

	d.scorer = reliability.NewScorer(store, reliability.WithSnapshots(store))

	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	d.job = scheduler.NewScoreJob(scheduler.Config{
		Scorer:    d.scorer,
		Store:     store,
		Snapshots: store,
		Board:     d.board,
		Metrics:   d.metrics,
		Window:    cfg.ScoreWindow,
		Bridges:   names,
	})

	logrus.WithFields(logrus.Fields{
		"bridges":       len(adapters),
		"cache":         cfg.CacheBackend,
		"intermediates": cfg.IntermediateChains,
	}).Info("Route aggregator initialized")
	return d, nil
}

func openHistory(ctx context.Context, dsn string, d *dependencies) (historyStore, error) {
	if dsn == "" {
		logrus.Info("Using in-memory transaction history")
		return history.NewMemory(), nil
	}
	s, err := history.OpenSQLite(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open transaction history: %w", err)
	}
	d.closers = append(d.closers, s.Close)
	logrus.Info("Using SQLite transaction history")
	return s, nil
}

// openCache falls back to the in-process cache when Redis is unreachable
func openCache(ctx context.Context, cfg config.Config, d *dependencies) cache.QuoteCache {
	if cfg.CacheBackend == config.CacheBackendRedis {
		r, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err == nil {
			d.closers = append(d.closers, r.Close)
			logrus.Info("Using Redis quote cache")
			return r
		}
		logrus.WithError(err).Warn("Redis unavailable, using in-memory quote cache")
	}
	return cache.NewMemory(cfg.CacheTTL, cfg.CacheCapacity, cache.WithEvictionHook(d.metrics.CacheEvicted))
}
