package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

func quote(protocol string, bridgeFee, gasSrc, gasDst float64) model.BridgeQuote {
	return model.BridgeQuote{
		QuoteID:              protocol + "_1",
		BridgeName:           protocol,
		Protocol:             protocol,
		RouteType:            model.RouteDirect,
		EstimatedTimeSeconds: 180,
		FeeBreakdown: model.NewFeeBreakdown(
			decimal.NewFromFloat(bridgeFee),
			decimal.NewFromFloat(gasSrc),
			decimal.NewFromFloat(gasDst),
		),
		SuccessRate: decimal.NewFromInt(99),
	}
}

func TestFilterInvalid_BasicCriteria(t *testing.T) {
	tampered := quote("hop", 1, 1, 1)
	tampered.FeeBreakdown.TotalCostUSD = decimal.NewFromInt(2)

	negative := quote("celer", 1, 1, 1)
	negative.FeeBreakdown = model.NewFeeBreakdown(decimal.NewFromInt(-1), decimal.NewFromInt(1), decimal.NewFromInt(1))

	badRate := quote("synapse", 1, 1, 1)
	badRate.SuccessRate = decimal.NewFromInt(101)

	badTime := quote("wormhole", 1, 1, 1)
	badTime.EstimatedTimeSeconds = -1

	slow := quote("debridge", 1, 1, 1)
	slow.EstimatedTimeSeconds = 30 * 24 * 3600

	anonymous := quote("", 1, 1, 1)

	tests := []struct {
		name   string
		quotes []model.BridgeQuote
		want   []string
	}{
		{
			name:   "all valid quotes",
			quotes: []model.BridgeQuote{quote("across", 1, 0.5, 0.1), quote("stargate", 2, 0.5, 0.1)},
			want:   []string{"across", "stargate"},
		},
		{
			name:   "invalid quotes dropped in order",
			quotes: []model.BridgeQuote{tampered, quote("across", 1, 1, 1), negative, badRate, badTime, slow, anonymous, quote("orbiter", 1, 1, 1)},
			want:   []string{"across", "orbiter"},
		},
		{
			name:   "empty input",
			quotes: nil,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered := FilterInvalid(tt.quotes)
			got := make([]string, 0, len(filtered))
			for _, q := range filtered {
				got = append(got, q.Protocol)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheck_Reasons(t *testing.T) {
	opts := DefaultValidationOptions()
	opts.MaxTotalCostUSD = decimal.NewFromInt(50)

	assert.Empty(t, Check(quote("across", 1, 1, 1), opts))
	assert.Equal(t, "total cost above limit", Check(quote("across", 60, 1, 1), opts))

	q := quote("across", 1, 1, 1)
	q.FeeBreakdown.BridgeFeeUSD = decimal.NewFromInt(5)
	assert.Equal(t, "fee total does not match components", Check(q, opts))
}

func TestFilterInvalidWithOptions_Outliers(t *testing.T) {
	opts := DefaultValidationOptions()
	opts.EnableOutlierDetection = true

	quotes := []model.BridgeQuote{
		quote("across", 2, 0.5, 0.5),
		quote("stargate", 2.5, 0.5, 0.5),
		quote("hop", 3, 0.5, 0.5),
		quote("celer", 2.2, 0.5, 0.5),
		quote("synapse", 400, 0.5, 0.5),
	}

	filtered := FilterInvalidWithOptions(quotes, opts)
	require.Len(t, filtered, 4)
	for _, q := range filtered {
		assert.NotEqual(t, "synapse", q.Protocol)
	}
}

func TestFilterInvalidWithOptions_OutliersNeedFourQuotes(t *testing.T) {
	opts := DefaultValidationOptions()
	opts.EnableOutlierDetection = true

	quotes := []model.BridgeQuote{quote("across", 1, 0, 0), quote("hop", 2, 0, 0), quote("celer", 500, 0, 0)}
	assert.Len(t, FilterInvalidWithOptions(quotes, opts), 3)
}
