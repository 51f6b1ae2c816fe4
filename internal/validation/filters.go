// Package validation drops bridge quotes that violate basic invariants before
// they reach ranking.
package validation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

// ValidationOptions holds configuration for the validation process
type ValidationOptions struct {
	// MaxEstimatedTimeSeconds rejects quotes promising absurd delays. Zero disables.
	MaxEstimatedTimeSeconds int

	// MaxTotalCostUSD rejects quotes costing more than this. Zero disables.
	MaxTotalCostUSD decimal.Decimal

	// EnableOutlierDetection drops quotes whose total cost is an IQR outlier
	EnableOutlierDetection bool

	// OutlierIQRMultiplier defines sensitivity for outlier detection (1.5 is standard)
	OutlierIQRMultiplier float64
}

// DefaultValidationOptions returns the options used by route discovery
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		MaxEstimatedTimeSeconds: 7 * 24 * 3600,
		OutlierIQRMultiplier:    1.5,
	}
}

// FilterInvalid removes quotes that fail the default checks, preserving order.
func FilterInvalid(quotes []model.BridgeQuote) []model.BridgeQuote {
	return FilterInvalidWithOptions(quotes, DefaultValidationOptions())
}

// FilterInvalidWithOptions removes quotes with custom validation options.
func FilterInvalidWithOptions(quotes []model.BridgeQuote, opts ValidationOptions) []model.BridgeQuote {
	valid := make([]model.BridgeQuote, 0, len(quotes))
	for _, q := range quotes {
		if reason := Check(q, opts); reason != "" {
			logrus.WithFields(logrus.Fields{
				"bridge": q.Protocol,
				"quote":  q.QuoteID,
				"reason": reason,
			}).Warn("Filtered invalid quote")
			continue
		}
		valid = append(valid, q)
	}

	if opts.EnableOutlierDetection && len(valid) > 3 {
		return filterOutliers(valid, opts.OutlierIQRMultiplier)
	}
	return valid
}

// Check returns the first violated rule, or "" for a valid quote
func Check(q model.BridgeQuote, opts ValidationOptions) string {
	fb := q.FeeBreakdown
	switch {
	case q.Protocol == "":
		return "missing protocol"
	case fb.BridgeFeeUSD.IsNegative() || fb.GasCostSourceUSD.IsNegative() || fb.GasCostDestinationUSD.IsNegative():
		return "negative fee component"
	case !fb.Consistent():
		return "fee total does not match components"
	case q.SuccessRate.IsNegative() || q.SuccessRate.GreaterThan(decimal.NewFromInt(100)):
		return "success rate out of range"
	case q.EstimatedTimeSeconds < 0:
		return "negative estimated time"
	case opts.MaxEstimatedTimeSeconds > 0 && q.EstimatedTimeSeconds > opts.MaxEstimatedTimeSeconds:
		return "estimated time too long"
	case opts.MaxTotalCostUSD.IsPositive() && q.TotalCost().GreaterThan(opts.MaxTotalCostUSD):
		return "total cost above limit"
	}
	return ""
}

// filterOutliers removes quotes whose total cost lies outside the IQR fence
func filterOutliers(quotes []model.BridgeQuote, iqrMultiplier float64) []model.BridgeQuote {
	costs := make([]float64, len(quotes))
	for i, q := range quotes {
		costs[i] = q.TotalCost().InexactFloat64()
	}
	sort.Float64s(costs)
	q1 := costs[len(costs)/4]
	q3 := costs[len(costs)*3/4]
	iqr := q3 - q1
	lower := q1 - iqrMultiplier*iqr
	upper := q3 + iqrMultiplier*iqr

	valid := make([]model.BridgeQuote, 0, len(quotes))
	for _, q := range quotes {
		c := q.TotalCost().InexactFloat64()
		if c >= lower && c <= upper {
			valid = append(valid, q)
			continue
		}
		logrus.WithFields(logrus.Fields{
			"bridge": q.Protocol,
			"cost":   c,
			"bounds": []float64{lower, upper},
		}).Info("Filtered outlier quote")
	}
	return valid
}
