package discovery

import (
	"sort"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

// Default ranking weights
const (
	DefaultCostWeight        = 0.40
	DefaultSpeedWeight       = 0.30
	DefaultReliabilityWeight = 0.20
	DefaultLiquidityWeight   = 0.10

	// DefaultLiquidityScore is used when no liquidity signal is wired
	DefaultLiquidityScore = 100.0
)

// RankingPreferences overrides the weighted-score weights. A nil or all-zero
// value selects the defaults.
type RankingPreferences struct {
	CostWeight        float64 `json:"cost_weight"`
	SpeedWeight       float64 `json:"speed_weight"`
	ReliabilityWeight float64 `json:"reliability_weight"`
	LiquidityWeight   float64 `json:"liquidity_weight"`
}

// DefaultPreferences returns the stock 0.40/0.30/0.20/0.10 split
func DefaultPreferences() RankingPreferences {
	return RankingPreferences{
		CostWeight:        DefaultCostWeight,
		SpeedWeight:       DefaultSpeedWeight,
		ReliabilityWeight: DefaultReliabilityWeight,
		LiquidityWeight:   DefaultLiquidityWeight,
	}
}

func (p *RankingPreferences) resolve() RankingPreferences {
	if p == nil || (p.CostWeight == 0 && p.SpeedWeight == 0 && p.ReliabilityWeight == 0 && p.LiquidityWeight == 0) {
		return DefaultPreferences()
	}
	return *p
}

// Scores are the per-component values (0-100) behind a quote's rank
type Scores struct {
	Cost        float64 `json:"cost"`
	Speed       float64 `json:"speed"`
	Reliability float64 `json:"reliability"`
	Liquidity   float64 `json:"liquidity"`
	Total       float64 `json:"total"`
}

// RankedQuote pairs a quote with the scores that placed it
type RankedQuote struct {
	Quote  model.BridgeQuote `json:"quote"`
	Scores Scores            `json:"scores"`
}

// ReliabilitySource supplies persisted reliability scores (0-100) per bridge.
// ok is false when the bridge has no score yet.
type ReliabilitySource interface {
	Reliability(bridge string) (score float64, ok bool)
}

// LiquiditySource supplies a liquidity signal (0-100) for a quote
type LiquiditySource interface {
	Liquidity(bridge string, params model.RouteParams) (score float64, ok bool)
}

type ranker struct {
	prefs       RankingPreferences
	reliability ReliabilitySource
	liquidity   LiquiditySource
}

// rank scores quotes against the batch maxima and sorts them best first.
// Equal totals keep input order.
func (r ranker) rank(quotes []model.BridgeQuote, params model.RouteParams) []RankedQuote {
	var maxCost float64
	var maxTime int
	for _, q := range quotes {
		if c := q.TotalCost().InexactFloat64(); c > maxCost {
			maxCost = c
		}
		if q.EstimatedTimeSeconds > maxTime {
			maxTime = q.EstimatedTimeSeconds
		}
	}

	ranked := make([]RankedQuote, len(quotes))
	for i, q := range quotes {
		s := Scores{
			Cost:        100 * (1 - ratio(q.TotalCost().InexactFloat64(), maxCost)),
			Speed:       100 * (1 - ratio(float64(q.EstimatedTimeSeconds), float64(maxTime))),
			Reliability: q.SuccessRate.InexactFloat64(),
			Liquidity:   DefaultLiquidityScore,
		}
		if r.reliability != nil {
			if v, ok := r.reliability.Reliability(q.Protocol); ok {
				s.Reliability = v
			}
		}
		if r.liquidity != nil {
			if v, ok := r.liquidity.Liquidity(q.Protocol, params); ok {
				s.Liquidity = v
			}
		}
		s.Total = r.prefs.CostWeight*s.Cost +
			r.prefs.SpeedWeight*s.Speed +
			r.prefs.ReliabilityWeight*s.Reliability +
			r.prefs.LiquidityWeight*s.Liquidity
		ranked[i] = RankedQuote{Quote: q, Scores: s}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Scores.Total > ranked[j].Scores.Total
	})
	return ranked
}

// ratio is v/hi, or 0 when the batch maximum is zero
func ratio(v, hi float64) float64 {
	if hi <= 0 {
		return 0
	}
	return v / hi
}
