// Package model defines the core data structures for the bridge route aggregator.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RouteType distinguishes single-bridge transfers from composed paths.
type RouteType string

const (
	RouteDirect   RouteType = "direct"
	RouteMultiHop RouteType = "multi-hop"
)

// RouteParams describes a single transfer request.
type RouteParams struct {
	SourceChain      string `json:"source_chain"`
	DestinationChain string `json:"destination_chain"`
	SourceToken      string `json:"source_token"`
	DestinationToken string `json:"destination_token"`

	// Amount is the transfer size in the token's base units, as an integer string
	Amount string `json:"amount"`

	UserAddress string `json:"user_address,omitempty"`
}

// Normalized returns a copy with chain names and token addresses lower-cased
// and surrounding whitespace removed.
func (p RouteParams) Normalized() RouteParams {
	return RouteParams{
		SourceChain:      strings.ToLower(strings.TrimSpace(p.SourceChain)),
		DestinationChain: strings.ToLower(strings.TrimSpace(p.DestinationChain)),
		SourceToken:      strings.ToLower(strings.TrimSpace(p.SourceToken)),
		DestinationToken: strings.ToLower(strings.TrimSpace(p.DestinationToken)),
		Amount:           strings.TrimSpace(p.Amount),
		UserAddress:      strings.ToLower(strings.TrimSpace(p.UserAddress)),
	}
}

// ParseAmount parses a base-unit amount. Fractions and negative values are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid amount %q: negative", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("invalid amount %q: not an integer", s)
	}
	return d, nil
}

// FeeBreakdown itemizes the cost of a quote in USD.
type FeeBreakdown struct {
	BridgeFeeUSD          decimal.Decimal `json:"bridge_fee_usd"`
	GasCostSourceUSD      decimal.Decimal `json:"gas_cost_source_usd"`
	GasCostDestinationUSD decimal.Decimal `json:"gas_cost_destination_usd"`

	// TotalCostUSD is always the sum of the three fields above
	TotalCostUSD decimal.Decimal `json:"total_cost_usd"`

	SlippagePercentage decimal.NullDecimal `json:"slippage_percentage"`
}

// NewFeeBreakdown builds a breakdown whose total is derived from its parts.
func NewFeeBreakdown(bridgeFee, gasSource, gasDestination decimal.Decimal) FeeBreakdown {
	return FeeBreakdown{
		BridgeFeeUSD:          bridgeFee,
		GasCostSourceUSD:      gasSource,
		GasCostDestinationUSD: gasDestination,
		TotalCostUSD:          bridgeFee.Add(gasSource).Add(gasDestination),
	}
}

// WithSlippage returns a copy carrying the given slippage assumption in percent.
func (f FeeBreakdown) WithSlippage(pct decimal.Decimal) FeeBreakdown {
	f.SlippagePercentage = decimal.NewNullDecimal(pct)
	return f
}

// Consistent reports whether the total matches the sum of its components.
func (f FeeBreakdown) Consistent() bool {
	return f.TotalCostUSD.Equal(f.BridgeFeeUSD.Add(f.GasCostSourceUSD).Add(f.GasCostDestinationUSD))
}

// Step is one user-facing action needed to execute a quote.
type Step struct {
	Action      string `json:"action"`
	Description string `json:"description"`
}

// BridgeQuote is a priced, timed proposal for one bridge transfer.
// Quotes are treated as immutable values once returned by an adapter.
type BridgeQuote struct {
	QuoteID    string    `json:"quote_id"`
	BridgeName string    `json:"bridge_name"`
	Protocol   string    `json:"protocol"`
	RouteType  RouteType `json:"route_type"`

	EstimatedTimeSeconds int          `json:"estimated_time_seconds"`
	FeeBreakdown         FeeBreakdown `json:"fee_breakdown"`

	// SuccessRate is the protocol's historical success percentage (0-100)
	SuccessRate decimal.Decimal `json:"success_rate"`

	Steps            []Step `json:"steps"`
	RequiresApproval bool   `json:"requires_approval"`
	MinimumAmount    string `json:"minimum_amount,omitempty"`
	MaximumAmount    string `json:"maximum_amount,omitempty"`

	// AmountOut is the amount delivered on the destination chain in base units
	AmountOut string `json:"amount_out,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// TotalCost is shorthand for the quote's total USD cost.
func (q BridgeQuote) TotalCost() decimal.Decimal {
	return q.FeeBreakdown.TotalCostUSD
}

// EstimatedMinutes rounds the estimated time up to whole minutes.
func (q BridgeQuote) EstimatedMinutes() int {
	if q.EstimatedTimeSeconds <= 0 {
		return 0
	}
	return (q.EstimatedTimeSeconds + 59) / 60
}

// Clone returns a deep copy so callers never share slices or maps.
func (q BridgeQuote) Clone() BridgeQuote {
	if q.Steps != nil {
		steps := make([]Step, len(q.Steps))
		copy(steps, q.Steps)
		q.Steps = steps
	}
	if q.Metadata != nil {
		meta := make(map[string]string, len(q.Metadata))
		for k, v := range q.Metadata {
			meta[k] = v
		}
		q.Metadata = meta
	}
	return q
}

// CloneQuotes deep-copies a quote list.
func CloneQuotes(quotes []BridgeQuote) []BridgeQuote {
	if quotes == nil {
		return nil
	}
	out := make([]BridgeQuote, len(quotes))
	for i, q := range quotes {
		out[i] = q.Clone()
	}
	return out
}

// BridgeHealth is the result of a liveness check against one bridge.
type BridgeHealth struct {
	BridgeName     string    `json:"bridge_name"`
	IsHealthy      bool      `json:"is_healthy"`
	IsActive       bool      `json:"is_active"`
	ResponseTimeMs *int64    `json:"response_time_ms,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}
