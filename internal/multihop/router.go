// Package multihop composes two-bridge routes through an intermediate chain
// and compares them with the best direct quote.
package multihop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JustRahman/cross-chain-bridghe/internal/discovery"
	"github.com/JustRahman/cross-chain-bridghe/internal/metrics"
	"github.com/JustRahman/cross-chain-bridghe/internal/model"
	"github.com/JustRahman/cross-chain-bridghe/internal/otel"
	"github.com/JustRahman/cross-chain-bridghe/internal/types"
)

// MaxSupportedHops is the deepest search performed. Larger requests get two hops.
const MaxSupportedHops = 2

// Discoverer is the part of the discovery engine the router needs
type Discoverer interface {
	DiscoverRoutes(ctx context.Context, params model.RouteParams, prefs *discovery.RankingPreferences) ([]model.BridgeQuote, error)
}

// Router searches direct and two-hop paths. The search is greedy: each hop
// takes its cheapest quote, so the result is not globally optimal.
type Router struct {
	discovery     Discoverer
	intermediates []string
	metrics       *metrics.Metrics
}

// Option configures a Router
type Option func(*Router)

// WithIntermediateChains replaces the hubs tried for two-hop routes
func WithIntermediateChains(chains []string) Option {
	return func(r *Router) {
		if len(chains) == 0 {
			return
		}
		r.intermediates = make([]string, 0, len(chains))
		for _, c := range chains {
			r.intermediates = append(r.intermediates, strings.ToLower(strings.TrimSpace(c)))
		}
	}
}

// WithMetrics records which route type wins each search
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// NewRouter creates a router on top of a discovery engine
func NewRouter(d Discoverer, opts ...Option) *Router {
	r := &Router{discovery: d}
	for _, c := range types.DefaultIntermediateChains {
		r.intermediates = append(r.intermediates, c.String())
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindBestRoute returns the cheapest of the direct quote and the best two-hop
// route, with the other offered as an alternative.
func (r *Router) FindBestRoute(ctx context.Context, sourceChain, destChain, token, amount string, maxHops int, includeMultiHop bool) (model.RouteResult, error) {
	src := strings.ToLower(strings.TrimSpace(sourceChain))
	dst := strings.ToLower(strings.TrimSpace(destChain))

	inputAmount, err := model.ParseAmount(amount)
	if err != nil {
		return model.RouteResult{}, err
	}
	amount = inputAmount.String()

	ctx, span := otel.Tracer().Start(ctx, "multihop.FindBestRoute", trace.WithAttributes(
		attribute.String("route.source_chain", src),
		attribute.String("route.destination_chain", dst),
		attribute.Int("route.max_hops", maxHops),
	))
	defer span.End()

	direct, directCount, hasDirect := r.cheapest(ctx, src, dst, token, amount)
	result := model.RouteResult{RoutesEvaluated: directCount}

	if !includeMultiHop || maxHops < 2 {
		if err := ctx.Err(); err != nil {
			return model.RouteResult{}, fmt.Errorf("best route search abandoned: %w", err)
		}
		if !hasDirect {
			return model.RouteResult{}, fmt.Errorf("%s -> %s: %w", src, dst, discovery.ErrNoRoutesFound)
		}
		result.Best = model.DirectOption(direct)
		r.metrics.BestRoute(string(model.RouteDirect))
		return result, nil
	}
	if maxHops > MaxSupportedHops {
		logrus.WithField("max_hops", maxHops).Debug("Searching two hops only")
	}

	result.MultiHopChecked = true
	routes := r.twoHopRoutes(ctx, src, dst, token, amount, inputAmount)
	result.RoutesEvaluated += len(routes)

	var best *model.MultiHopRoute
	for i := range routes {
		if best == nil || routes[i].TotalCostUSD.LessThan(best.TotalCostUSD) {
			best = &routes[i]
		}
	}

	if err := ctx.Err(); err != nil {
		return model.RouteResult{}, fmt.Errorf("best route search abandoned: %w", err)
	}

	switch {
	case best == nil && !hasDirect:
		return model.RouteResult{}, fmt.Errorf("%s -> %s: %w", src, dst, discovery.ErrNoRoutesFound)

	case best == nil:
		result.Best = model.DirectOption(direct)

	case hasDirect && direct.TotalCost().LessThanOrEqual(best.TotalCostUSD):
		result.Best = model.DirectOption(direct)
		result.Alternatives = []model.RouteOption{model.MultiHopOption(*best)}
		result.DirectSavingsUSD = decimal.NewNullDecimal(best.TotalCostUSD.Sub(direct.TotalCost()))

	default:
		best.IsBetterThanDirect = true
		if hasDirect {
			savings := direct.TotalCost().Sub(best.TotalCostUSD)
			best.SavingsUSD = decimal.NewNullDecimal(savings)
			result.SavingsUSD = decimal.NewNullDecimal(savings)
			result.Alternatives = []model.RouteOption{model.DirectOption(direct)}
		}
		result.Best = model.MultiHopOption(*best)
	}

	r.metrics.BestRoute(string(result.Best.RouteType))
	logrus.WithFields(logrus.Fields{
		"source":      src,
		"destination": dst,
		"route_type":  result.Best.RouteType,
		"cost_usd":    result.Best.TotalCostUSD().String(),
		"evaluated":   result.RoutesEvaluated,
	}).Info("Best route selected")
	return result, nil
}

// cheapest returns the lowest-cost quote for one leg; the first wins ties
func (r *Router) cheapest(ctx context.Context, src, dst, token, amount string) (model.BridgeQuote, int, bool) {
	quotes, err := r.discovery.DiscoverRoutes(ctx, model.RouteParams{
		SourceChain:      src,
		DestinationChain: dst,
		SourceToken:      token,
		DestinationToken: token,
		Amount:           amount,
	}, nil)
	if err != nil {
		if !errors.Is(err, discovery.ErrNoRoutesFound) && ctx.Err() == nil {
			logrus.WithError(err).WithFields(logrus.Fields{"source": src, "destination": dst}).Warn("Leg discovery failed")
		}
		return model.BridgeQuote{}, 0, false
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.TotalCost().LessThan(best.TotalCost()) {
			best = q
		}
	}
	return best, len(quotes), true
}

// twoHopRoutes evaluates every intermediate concurrently and returns the
// routes that could be built, in intermediate order.
func (r *Router) twoHopRoutes(ctx context.Context, src, dst, token, amount string, inputAmount decimal.Decimal) []model.MultiHopRoute {
	built := make([]*model.MultiHopRoute, len(r.intermediates))

	var wg sync.WaitGroup
	for i, mid := range r.intermediates {
		if mid == src || mid == dst {
			continue
		}
		wg.Add(1)
		go func(i int, mid string) {
			defer wg.Done()
			route, ok := r.viaIntermediate(ctx, src, mid, dst, token, amount, inputAmount)
			if ok {
				built[i] = &route
			}
		}(i, mid)
	}
	wg.Wait()

	routes := make([]model.MultiHopRoute, 0, len(built))
	for _, rt := range built {
		if rt != nil {
			routes = append(routes, *rt)
		}
	}
	return routes
}

func (r *Router) viaIntermediate(ctx context.Context, src, mid, dst, token, amount string, inputAmount decimal.Decimal) (model.MultiHopRoute, bool) {
	first, _, ok := r.cheapest(ctx, src, mid, token, amount)
	if !ok {
		return model.MultiHopRoute{}, false
	}
	hop1 := toHop(first, src, mid, token, amount)

	second, _, ok := r.cheapest(ctx, mid, dst, token, hop1.AmountOut)
	if !ok {
		return model.MultiHopRoute{}, false
	}
	hop2 := toHop(second, mid, dst, token, hop1.AmountOut)

	return model.NewMultiHopRoute([]model.RouteHop{hop1, hop2}, inputAmount), true
}

// toHop converts a quote into a leg. A missing or larger output amount is
// treated as the input amount so amounts never grow along the path.
func toHop(q model.BridgeQuote, src, dst, token, amountIn string) model.RouteHop {
	out := amountIn
	if parsedOut, err := model.ParseAmount(q.AmountOut); err == nil {
		if in, err := model.ParseAmount(amountIn); err == nil && parsedOut.LessThanOrEqual(in) {
			out = parsedOut.String()
		}
	}
	return model.RouteHop{
		SourceChain:      src,
		DestinationChain: dst,
		BridgeName:       q.BridgeName,
		Token:            token,
		AmountIn:         amountIn,
		AmountOut:        out,
		CostUSD:          q.TotalCost(),
		TimeMinutes:      q.EstimatedMinutes(),
	}
}
