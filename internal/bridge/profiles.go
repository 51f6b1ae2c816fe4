package bridge

import (
	"github.com/shopspring/decimal"

	"github.com/JustRahman/cross-chain-bridghe/internal/types"
)

// Profile holds the protocol-specific fee, time and capability model of one bridge.
type Profile struct {
	// Display name and stable protocol identifier
	Name     string
	Protocol string

	// Bridge API. QuotePath and FeePctPath are optional; without them the
	// adapter only estimates.
	APIURL     string
	QuotePath  string
	FeePctPath string
	HealthPath string

	Chains []types.SupportedChain

	// Fee model: amountUSD * FeePct + FixedFeeUSD
	FeePct      decimal.Decimal
	FixedFeeUSD decimal.Decimal

	// Per-chain gas estimates in USD. Missing source chains fall back to the
	// shared table scaled by GasMultiplier.
	SourceGasUSD          map[types.SupportedChain]decimal.Decimal
	GasMultiplier         decimal.Decimal
	DestinationGasUSD     map[types.SupportedChain]decimal.Decimal
	DefaultDestinationGas decimal.Decimal

	EstimatedTimeSeconds int
	SuccessRate          decimal.Decimal
	SlippagePct          decimal.Decimal

	MinimumAmount    string
	MaximumAmount    string
	RequiresApproval bool

	// TokenDecimals converts base units to USD for stablecoin amounts
	TokenDecimals int32
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sharedSourceGasUSD is the typical USD cost of a bridge deposit per chain
var sharedSourceGasUSD = map[types.SupportedChain]decimal.Decimal{
	types.ChainEthereum:  d("5.00"),
	types.ChainOptimism:  d("0.10"),
	types.ChainArbitrum:  d("0.25"),
	types.ChainPolygon:   d("0.05"),
	types.ChainBase:      d("0.10"),
	types.ChainBSC:       d("0.20"),
	types.ChainAvalanche: d("0.40"),
	types.ChainFantom:    d("0.05"),
	types.ChainGnosis:    d("0.02"),
	types.ChainZkSync:    d("0.15"),
	types.ChainLinea:     d("0.15"),
}

var (
	defaultSourceGasUSD = d("1.00")
	l1L2Chains          = []types.SupportedChain{types.ChainEthereum, types.ChainOptimism, types.ChainArbitrum, types.ChainPolygon, types.ChainBase}
)

func chains(extra ...types.SupportedChain) []types.SupportedChain {
	out := make([]types.SupportedChain, 0, len(l1L2Chains)+len(extra))
	out = append(out, l1L2Chains...)
	return append(out, extra...)
}

// DefaultProfiles returns the built-in protocol profiles in registration order.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:       "Across Protocol",
			Protocol:   "across",
			APIURL:     "https://across.to/api",
			QuotePath:  "/suggested-fees",
			FeePctPath: "totalRelayFee.pct",
			HealthPath: "/limits",
			Chains:     chains(),
			FeePct:     d("0.001"),
			SourceGasUSD: map[types.SupportedChain]decimal.Decimal{
				types.ChainEthereum: d("5.00"),
				types.ChainOptimism: d("0.10"),
				types.ChainArbitrum: d("0.25"),
				types.ChainPolygon:  d("0.05"),
				types.ChainBase:     d("0.10"),
			},
			DestinationGasUSD: map[types.SupportedChain]decimal.Decimal{
				types.ChainEthereum: d("0.50"),
				types.ChainOptimism: d("0.02"),
				types.ChainArbitrum: d("0.05"),
				types.ChainPolygon:  d("0.01"),
				types.ChainBase:     d("0.02"),
			},
			DefaultDestinationGas: d("1.00"),
			EstimatedTimeSeconds:  180,
			SuccessRate:           d("99.5"),
			SlippagePct:           d("0.1"),
			MinimumAmount:         "1000000",
			MaximumAmount:         "1000000000000",
			RequiresApproval:      true,
		},
		{
			Name:       "Stargate Finance",
			Protocol:   "stargate",
			APIURL:     "https://api.stargate.finance",
			HealthPath: "/",
			Chains:     chains(types.ChainAvalanche, types.ChainFantom),
			FeePct:     d("0.0006"),
			SourceGasUSD: map[types.SupportedChain]decimal.Decimal{
				types.ChainEthereum:  d("8.00"),
				types.ChainOptimism:  d("0.15"),
				types.ChainArbitrum:  d("0.30"),
				types.ChainPolygon:   d("0.08"),
				types.ChainBase:      d("0.15"),
				types.ChainAvalanche: d("0.50"),
				types.ChainFantom:    d("0.05"),
			},
			DefaultDestinationGas: d("0.30"),
			EstimatedTimeSeconds:  240,
			SuccessRate:           d("98.8"),
			SlippagePct:           d("0.05"),
			MinimumAmount:         "1000000",
			MaximumAmount:         "500000000000",
			RequiresApproval:      true,
		},
		{
			Name:       "Hop Protocol",
			Protocol:   "hop",
			APIURL:     "https://api.hop.exchange/v1",
			HealthPath: "/available-routes",
			Chains:     chains(types.ChainGnosis),
			FeePct:     d("0.0008"),
			SourceGasUSD: map[types.SupportedChain]decimal.Decimal{
				types.ChainEthereum: d("6.00"),
				types.ChainOptimism: d("0.12"),
				types.ChainArbitrum: d("0.28"),
				types.ChainPolygon:  d("0.06"),
				types.ChainBase:     d("0.12"),
				types.ChainGnosis:   d("0.02"),
			},
			DefaultDestinationGas: d("0.50"),
			EstimatedTimeSeconds:  420,
			SuccessRate:           d("96.0"),
			SlippagePct:           d("0.2"),
			MinimumAmount:         "1000000",
			MaximumAmount:         "10000000000000",
			RequiresApproval:      true,
		},
		{
			Name:                  "Celer cBridge",
			Protocol:              "celer",
			APIURL:                "https://cbridge-prod2.celer.network",
			HealthPath:            "/v2/getTransferConfigs",
			Chains:                chains(types.ChainBSC, types.ChainAvalanche, types.ChainFantom),
			FeePct:                d("0.0004"),
			GasMultiplier:         d("1.2"),
			DefaultDestinationGas: d("0.15"),
			EstimatedTimeSeconds:  180,
			SuccessRate:           d("98.8"),
			SlippagePct:           d("0.2"),
			MinimumAmount:         "1000000",
			MaximumAmount:         "5000000000000",
			RequiresApproval:      true,
		},
		{
			Name:                  "Synapse Protocol",
			Protocol:              "synapse",
			APIURL:                "https://api.synapseprotocol.com",
			HealthPath:            "/health",
			Chains:                chains(types.ChainBSC, types.ChainAvalanche, types.ChainFantom),
			FeePct:                d("0.0008"),
			GasMultiplier:         d("1.5"),
			DefaultDestinationGas: d("0.25"),
			EstimatedTimeSeconds:  360,
			SuccessRate:           d("96.5"),
			SlippagePct:           d("0.3"),
			MinimumAmount:         "1000000",
			MaximumAmount:         "5000000000000",
			RequiresApproval:      true,
		},
		{
			Name:                  "Wormhole",
			Protocol:              "wormhole",
			APIURL:                "https://api.wormholescan.io",
			HealthPath:            "/",
			Chains:                chains(types.ChainBSC, types.ChainAvalanche, types.ChainFantom),
			FixedFeeUSD:           d("0.25"),
			GasMultiplier:         d("2.0"),
			DefaultDestinationGas: d("0.50"),
			EstimatedTimeSeconds:  600,
			SuccessRate:           d("95.0"),
			SlippagePct:           d("0.1"),
			MinimumAmount:         "1000000",
			MaximumAmount:         "10000000000000",
			RequiresApproval:      true,
		},
		{
			Name:                  "deBridge",
			Protocol:              "debridge",
			APIURL:                "https://api.dln.trade",
			HealthPath:            "/v1.0/supported-chains-info",
			Chains:                chains(types.ChainBSC, types.ChainAvalanche, types.ChainFantom, types.ChainGnosis),
			FeePct:                d("0.0007"),
			GasMultiplier:         d("1.5"),
			DefaultDestinationGas: d("0.20"),
			EstimatedTimeSeconds:  420,
			SuccessRate:           d("97.8"),
			SlippagePct:           d("0.3"),
			MinimumAmount:         "1000000",
			MaximumAmount:         "10000000000000",
			RequiresApproval:      true,
		},
		{
			Name:                  "LayerZero",
			Protocol:              "layerzero",
			APIURL:                "https://api-mainnet.layerzero-scan.com",
			HealthPath:            "/v1/messages",
			Chains:                chains(types.ChainBSC, types.ChainAvalanche, types.ChainFantom, types.ChainGnosis, types.ChainZkSync),
			FeePct:                d("0.0006"),
			GasMultiplier:         d("2.0"),
			DefaultDestinationGas: d("0.30"),
			EstimatedTimeSeconds:  300,
			SuccessRate:           d("98.0"),
			SlippagePct:           d("0.1"),
			MinimumAmount:         "1000000",
			MaximumAmount:         "50000000000000",
			RequiresApproval:      true,
		},
		{
			Name:       "Orbiter Finance",
			Protocol:   "orbiter",
			APIURL:     "https://api.orbiter.finance",
			HealthPath: "/",
			Chains: []types.SupportedChain{
				types.ChainEthereum, types.ChainOptimism, types.ChainArbitrum,
				types.ChainBase, types.ChainZkSync, types.ChainLinea,
			},
			FeePct:                d("0.0003"),
			GasMultiplier:         d("0.5"),
			DefaultDestinationGas: d("0.10"),
			EstimatedTimeSeconds:  180,
			SuccessRate:           d("99.2"),
			SlippagePct:           d("0.1"),
			MinimumAmount:         "5000000",
			MaximumAmount:         "10000000000",
			RequiresApproval:      false,
		},
	}
}
