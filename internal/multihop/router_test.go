package multihop

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustRahman/cross-chain-bridghe/internal/bridge"
	"github.com/JustRahman/cross-chain-bridghe/internal/bridge/bridgetest"
	"github.com/JustRahman/cross-chain-bridghe/internal/discovery"
	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

const token = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"

// mesh prices legs from a table and delivers 99.9% of the input
func mesh(name string, prices map[string]float64, seconds int) *bridgetest.Adapter {
	return &bridgetest.Adapter{
		AdapterName: name,
		Supports: func(src, dst string) bool {
			_, ok := prices[src+">"+dst]
			return ok
		},
		Quote: func(_ context.Context, p model.RouteParams) (model.BridgeQuote, error) {
			cost, ok := prices[p.SourceChain+">"+p.DestinationChain]
			if !ok {
				return model.BridgeQuote{}, bridge.ErrNoRoute
			}
			in, err := model.ParseAmount(p.Amount)
			if err != nil {
				return model.BridgeQuote{}, bridge.ErrNoRoute
			}
			q := bridgetest.NewQuote(name, cost, seconds)
			q.AmountOut = in.Mul(decimal.RequireFromString("0.999")).Truncate(0).String()
			return q, nil
		},
	}
}

func newRouter(as ...*bridgetest.Adapter) *Router {
	list := make([]bridge.Adapter, len(as))
	for i, a := range as {
		list[i] = a
	}
	return NewRouter(discovery.NewRouteDiscoveryEngine(list))
}

func TestFindBestRoute_TwoHopBeatsDirect(t *testing.T) {
	a := mesh("mesh", map[string]float64{
		"ethereum>base":     10,
		"ethereum>arbitrum": 3,
		"arbitrum>base":     4,
	}, 120)
	r := newRouter(a)

	result, err := r.FindBestRoute(context.Background(), "ethereum", "base", token, "1000000000", 2, true)
	require.NoError(t, err)

	assert.Equal(t, model.RouteMultiHop, result.Best.RouteType)
	require.NotNil(t, result.Best.Route)
	route := result.Best.Route
	assert.True(t, route.TotalCostUSD.Equal(decimal.NewFromInt(7)), route.TotalCostUSD.String())
	assert.Equal(t, "arbitrum", route.IntermediateChain)
	assert.True(t, route.IsBetterThanDirect)
	require.True(t, route.SavingsUSD.Valid)
	assert.True(t, route.SavingsUSD.Decimal.Equal(decimal.NewFromInt(3)))

	require.True(t, result.SavingsUSD.Valid)
	assert.True(t, result.SavingsUSD.Decimal.Equal(decimal.NewFromInt(3)))
	assert.False(t, result.DirectSavingsUSD.Valid)

	require.Len(t, result.Alternatives, 1)
	assert.Equal(t, model.RouteDirect, result.Alternatives[0].RouteType)
	assert.True(t, result.Alternatives[0].TotalCostUSD().Equal(decimal.NewFromInt(10)))
	assert.True(t, result.MultiHopChecked)

	// hop 2 starts from hop 1's output
	require.Len(t, route.Hops, 2)
	assert.Equal(t, "999000000", route.Hops[0].AmountOut)
	assert.Equal(t, "999000000", route.Hops[1].AmountIn)
	assert.Equal(t, "998001000", route.FinalAmount)
	assert.Equal(t, 4, route.TotalTimeMinutes)
	assert.True(t, route.SlippagePercent.Equal(decimal.RequireFromString("0.2")), route.SlippagePercent.String())
}

func TestFindBestRoute_DirectBeatsTwoHop(t *testing.T) {
	a := mesh("mesh", map[string]float64{
		"ethereum>base":     5,
		"ethereum>arbitrum": 3,
		"arbitrum>base":     5,
	}, 60)
	r := newRouter(a)

	result, err := r.FindBestRoute(context.Background(), "ethereum", "base", token, "1000000000", 2, true)
	require.NoError(t, err)

	assert.Equal(t, model.RouteDirect, result.Best.RouteType)
	require.NotNil(t, result.Best.Quote)
	assert.True(t, result.Best.Quote.TotalCost().Equal(decimal.NewFromInt(5)))

	require.Len(t, result.Alternatives, 1)
	alt := result.Alternatives[0]
	assert.Equal(t, model.RouteMultiHop, alt.RouteType)
	assert.True(t, alt.TotalCostUSD().Equal(decimal.NewFromInt(8)))
	assert.False(t, alt.Route.IsBetterThanDirect)

	require.True(t, result.DirectSavingsUSD.Valid)
	assert.True(t, result.DirectSavingsUSD.Decimal.Equal(decimal.NewFromInt(3)))
	assert.False(t, result.SavingsUSD.Valid)
}

func TestFindBestRoute_EqualCostPrefersDirect(t *testing.T) {
	a := mesh("mesh", map[string]float64{
		"ethereum>base":     6,
		"ethereum>arbitrum": 3,
		"arbitrum>base":     3,
	}, 60)

	result, err := newRouter(a).FindBestRoute(context.Background(), "ethereum", "base", token, "1000", 2, true)
	require.NoError(t, err)
	assert.Equal(t, model.RouteDirect, result.Best.RouteType)
}

func TestFindBestRoute_NoDirectUsesTwoHop(t *testing.T) {
	a := mesh("mesh", map[string]float64{
		"ethereum>optimism": 2,
		"optimism>gnosis":   2.5,
	}, 60)

	result, err := newRouter(a).FindBestRoute(context.Background(), "ethereum", "gnosis", token, "1000", 2, true)
	require.NoError(t, err)
	assert.Equal(t, model.RouteMultiHop, result.Best.RouteType)
	assert.Empty(t, result.Alternatives)
	assert.False(t, result.SavingsUSD.Valid)
	assert.True(t, result.Best.TotalCostUSD().Equal(decimal.RequireFromString("4.5")))
}

func TestFindBestRoute_PicksCheapestIntermediate(t *testing.T) {
	a := mesh("mesh", map[string]float64{
		"ethereum>bsc":      20,
		"ethereum>arbitrum": 4,
		"arbitrum>bsc":      4,
		"ethereum>polygon":  1,
		"polygon>bsc":       2,
		"ethereum>base":     1,
		"base>bsc":          2,
	}, 60)

	result, err := newRouter(a).FindBestRoute(context.Background(), "ethereum", "bsc", token, "1000", 3, true)
	require.NoError(t, err)
	require.NotNil(t, result.Best.Route)
	// polygon and base tie at 3; polygon comes first in the hub list
	assert.Equal(t, "polygon", result.Best.Route.IntermediateChain)
	assert.Len(t, result.Best.Route.Hops, 2, "three hops requested, two searched")
	assert.Equal(t, 4, result.RoutesEvaluated)
}

func TestFindBestRoute_MultiHopDisabled(t *testing.T) {
	a := mesh("mesh", map[string]float64{
		"ethereum>base":     10,
		"ethereum>arbitrum": 1,
		"arbitrum>base":     1,
	}, 60)
	r := newRouter(a)

	for _, tc := range []struct {
		name    string
		maxHops int
		include bool
	}{
		{"include false", 2, false},
		{"one hop", 1, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result, err := r.FindBestRoute(context.Background(), "ethereum", "base", token, "1000", tc.maxHops, tc.include)
			require.NoError(t, err)
			assert.Equal(t, model.RouteDirect, result.Best.RouteType)
			assert.False(t, result.MultiHopChecked)
			assert.Empty(t, result.Alternatives)
		})
	}
}

func TestFindBestRoute_NothingFound(t *testing.T) {
	a := mesh("mesh", map[string]float64{"polygon>base": 1}, 60)
	r := newRouter(a)

	_, err := r.FindBestRoute(context.Background(), "ethereum", "base", token, "1000", 2, true)
	assert.ErrorIs(t, err, discovery.ErrNoRoutesFound)

	_, err = r.FindBestRoute(context.Background(), "ethereum", "base", token, "1000", 1, true)
	assert.ErrorIs(t, err, discovery.ErrNoRoutesFound)
}

func TestFindBestRoute_FailingIntermediateIsSkipped(t *testing.T) {
	good := mesh("good", map[string]float64{
		"ethereum>base":    9,
		"ethereum>polygon": 2,
		"polygon>base":     2,
	}, 60)
	flaky := &bridgetest.Adapter{
		AdapterName: "flaky",
		Supports:    func(src, dst string) bool { return src == "arbitrum" || dst == "arbitrum" },
		Quote:       bridgetest.Failing(fmt.Errorf("rpc down: %w", bridge.ErrUpstreamFailure)),
	}

	result, err := newRouter(good, flaky).FindBestRoute(context.Background(), "ethereum", "base", token, "1000", 2, true)
	require.NoError(t, err)
	require.NotNil(t, result.Best.Route)
	assert.Equal(t, "polygon", result.Best.Route.IntermediateChain)
}

func TestFindBestRoute_CustomIntermediates(t *testing.T) {
	a := mesh("mesh", map[string]float64{
		"ethereum>base":     10,
		"ethereum>arbitrum": 1,
		"arbitrum>base":     1,
		"ethereum>linea":    2,
		"linea>base":        2,
	}, 60)
	list := []bridge.Adapter{a}
	r := NewRouter(discovery.NewRouteDiscoveryEngine(list), WithIntermediateChains([]string{" Linea "}))

	result, err := r.FindBestRoute(context.Background(), "ethereum", "base", token, "1000", 2, true)
	require.NoError(t, err)
	require.NotNil(t, result.Best.Route)
	assert.Equal(t, "linea", result.Best.Route.IntermediateChain)
}

func TestFindBestRoute_InvalidAmount(t *testing.T) {
	r := newRouter(mesh("mesh", map[string]float64{"ethereum>base": 1}, 60))
	_, err := r.FindBestRoute(context.Background(), "ethereum", "base", token, "-5", 2, true)
	assert.Error(t, err)
}

func TestToHop_ClampsGrowingAmount(t *testing.T) {
	q := bridgetest.NewQuote("odd", 1, 61)
	q.AmountOut = "2000"
	hop := toHop(q, "ethereum", "base", token, "1000")
	assert.Equal(t, "1000", hop.AmountOut)
	assert.Equal(t, 2, hop.TimeMinutes)
}
