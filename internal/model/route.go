package model

import (
	"github.com/shopspring/decimal"
)

// RouteHop is one leg of a multi-hop path.
type RouteHop struct {
	SourceChain      string          `json:"source_chain"`
	DestinationChain string          `json:"destination_chain"`
	BridgeName       string          `json:"bridge_name"`
	Token            string          `json:"token"`
	AmountIn         string          `json:"amount_in"`
	AmountOut        string          `json:"amount_out"`
	CostUSD          decimal.Decimal `json:"cost_usd"`
	TimeMinutes      int             `json:"time_minutes"`
}

// MultiHopRoute is an ordered path through one or more intermediate chains.
type MultiHopRoute struct {
	Hops              []RouteHop      `json:"hops"`
	IntermediateChain string          `json:"intermediate_chain"`
	TotalCostUSD      decimal.Decimal `json:"total_cost_usd"`
	TotalTimeMinutes  int             `json:"total_time_minutes"`
	FinalAmount       string          `json:"final_amount"`
	SlippagePercent   decimal.Decimal `json:"slippage_percent"`

	IsBetterThanDirect bool                `json:"is_better_than_direct"`
	SavingsUSD         decimal.NullDecimal `json:"savings_usd"`
}

// NewMultiHopRoute aggregates hops into a route. Totals are sums over the hops
// and slippage is the end-to-end loss relative to inputAmount, in percent.
func NewMultiHopRoute(hops []RouteHop, inputAmount decimal.Decimal) MultiHopRoute {
	owned := make([]RouteHop, len(hops))
	copy(owned, hops)

	route := MultiHopRoute{Hops: owned, TotalCostUSD: decimal.Zero}
	for _, h := range owned {
		route.TotalCostUSD = route.TotalCostUSD.Add(h.CostUSD)
		route.TotalTimeMinutes += h.TimeMinutes
	}
	if len(owned) == 0 {
		return route
	}

	route.FinalAmount = owned[len(owned)-1].AmountOut
	if len(owned) > 1 {
		route.IntermediateChain = owned[0].DestinationChain
	}

	final, err := ParseAmount(route.FinalAmount)
	if err == nil && inputAmount.IsPositive() {
		slip := inputAmount.Sub(final).Div(inputAmount).Mul(decimal.NewFromInt(100)).Round(2)
		if slip.IsNegative() {
			slip = decimal.Zero
		}
		route.SlippagePercent = slip
	}
	return route
}

// Clone returns a deep copy of the route.
func (r MultiHopRoute) Clone() MultiHopRoute {
	hops := make([]RouteHop, len(r.Hops))
	copy(hops, r.Hops)
	r.Hops = hops
	return r
}

// RouteOption is either a direct quote or a multi-hop route.
type RouteOption struct {
	RouteType RouteType      `json:"route_type"`
	Quote     *BridgeQuote   `json:"quote,omitempty"`
	Route     *MultiHopRoute `json:"route,omitempty"`
}

// DirectOption wraps a quote as a route option.
func DirectOption(q BridgeQuote) RouteOption {
	c := q.Clone()
	return RouteOption{RouteType: RouteDirect, Quote: &c}
}

// MultiHopOption wraps a multi-hop route as a route option.
func MultiHopOption(r MultiHopRoute) RouteOption {
	c := r.Clone()
	return RouteOption{RouteType: RouteMultiHop, Route: &c}
}

// TotalCostUSD returns the option's cost whichever shape it has.
func (o RouteOption) TotalCostUSD() decimal.Decimal {
	switch {
	case o.Quote != nil:
		return o.Quote.TotalCost()
	case o.Route != nil:
		return o.Route.TotalCostUSD
	default:
		return decimal.Zero
	}
}

// RouteResult is the outcome of a best-route search.
type RouteResult struct {
	Best         RouteOption   `json:"best"`
	Alternatives []RouteOption `json:"alternatives"`

	// SavingsUSD is set when the multi-hop route beats the direct quote
	SavingsUSD decimal.NullDecimal `json:"savings_usd"`

	// DirectSavingsUSD is set when the direct quote beats the best multi-hop route
	DirectSavingsUSD decimal.NullDecimal `json:"direct_savings_usd"`

	MultiHopChecked bool `json:"multi_hop_checked"`
	RoutesEvaluated int  `json:"routes_evaluated"`
}
