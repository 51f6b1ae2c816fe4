// Package bridgetest provides a scriptable bridge.Adapter for tests.
package bridgetest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

// QuoteFunc produces the adapter's answer for one request
type QuoteFunc func(ctx context.Context, params model.RouteParams) (model.BridgeQuote, error)

// Adapter is an in-memory bridge.Adapter. The zero Supports func accepts
// every distinct chain pair.
type Adapter struct {
	AdapterName string
	Quote       QuoteFunc
	Supports    func(src, dst string) bool
	Health      model.BridgeHealth

	calls atomic.Int32
	mu    sync.Mutex
	seen  []model.RouteParams
}

// Name implements bridge.Adapter
func (a *Adapter) Name() string { return a.AdapterName }

// GetQuote implements bridge.Adapter and records the call
func (a *Adapter) GetQuote(ctx context.Context, params model.RouteParams) (model.BridgeQuote, error) {
	a.calls.Add(1)
	a.mu.Lock()
	a.seen = append(a.seen, params)
	a.mu.Unlock()
	return a.Quote(ctx, params)
}

// SupportsRoute implements bridge.Adapter
func (a *Adapter) SupportsRoute(src, dst string) bool {
	if a.Supports != nil {
		return a.Supports(src, dst)
	}
	return src != dst
}

// CheckAvailability implements bridge.Adapter
func (a *Adapter) CheckAvailability(context.Context) model.BridgeHealth {
	return a.Health
}

// Calls returns how many times GetQuote ran
func (a *Adapter) Calls() int { return int(a.calls.Load()) }

// Requests returns the params of every GetQuote call
func (a *Adapter) Requests() []model.RouteParams {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.RouteParams, len(a.seen))
	copy(out, a.seen)
	return out
}

// Fixed returns a QuoteFunc that always answers q
func Fixed(q model.BridgeQuote) QuoteFunc {
	return func(context.Context, model.RouteParams) (model.BridgeQuote, error) { return q, nil }
}

// Failing returns a QuoteFunc that always fails with err
func Failing(err error) QuoteFunc {
	return func(context.Context, model.RouteParams) (model.BridgeQuote, error) {
		return model.BridgeQuote{}, err
	}
}

// Hang returns a QuoteFunc that ignores ctx and blocks until release is closed
func Hang(release <-chan struct{}) QuoteFunc {
	return func(context.Context, model.RouteParams) (model.BridgeQuote, error) {
		<-release
		return model.BridgeQuote{}, context.Canceled
	}
}

// Delayed wraps fn with a ctx-aware delay
func Delayed(d time.Duration, fn QuoteFunc) QuoteFunc {
	return func(ctx context.Context, params model.RouteParams) (model.BridgeQuote, error) {
		select {
		case <-time.After(d):
			return fn(ctx, params)
		case <-ctx.Done():
			return model.BridgeQuote{}, ctx.Err()
		}
	}
}

// NewQuote builds a consistent quote with the whole cost in the bridge fee
// and a 100% success rate.
func NewQuote(protocol string, costUSD float64, seconds int) model.BridgeQuote {
	return model.BridgeQuote{
		QuoteID:              protocol + "_quote",
		BridgeName:           protocol,
		Protocol:             protocol,
		RouteType:            model.RouteDirect,
		EstimatedTimeSeconds: seconds,
		FeeBreakdown:         model.NewFeeBreakdown(decimal.NewFromFloat(costUSD), decimal.Zero, decimal.Zero),
		SuccessRate:          decimal.NewFromInt(100),
		Steps:                []model.Step{{Action: "bridge", Description: "Bridge via " + protocol}},
	}
}
