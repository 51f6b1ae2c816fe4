// Package reliability scores bridges from their transaction history and keeps
// the latest score per bridge for route ranking.
package reliability

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JustRahman/cross-chain-bridghe/internal/aggregate"
	"github.com/JustRahman/cross-chain-bridghe/internal/history"
	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

// ErrInsufficientHistory is returned by ScoreStrict when the window is empty
var ErrInsufficientHistory = errors.New("reliability: insufficient history")

// DefaultWindow is the scoring window used when none is given
const DefaultWindow = 168 * time.Hour

// Component weights
const (
	WeightSuccessRate     = 0.40
	WeightTimeConsistency = 0.20
	WeightCostConsistency = 0.15
	WeightUptime          = 0.15
	WeightVolume          = 0.10
)

const (
	// success rates at or above this count as perfect
	perfectSuccessRate = 98.0

	// uptime boost so that 80%+ active hours score 100
	uptimeBoost = 1.2

	// volume boost so that a 10% share scores 100
	volumeBoost = 10.0

	// score delta between windows that counts as a trend
	trendThreshold = 5.0

	// RatingNoData is the rating of a bridge without transactions
	RatingNoData = "N/A"

	noDataRecommendation = "Insufficient data - No recent transactions found"
)

// Scorer computes reliability scores. It only reads from its stores.
type Scorer struct {
	store     history.Store
	snapshots history.SnapshotStore
	now       func() time.Time
}

// Option configures a Scorer
type Option func(*Scorer)

// WithSnapshots uses stored past scores for trend analysis
func WithSnapshots(s history.SnapshotStore) Option {
	return func(sc *Scorer) { sc.snapshots = s }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(sc *Scorer) { sc.now = now }
}

// NewScorer creates a scorer over a transaction history store
func NewScorer(store history.Store, opts ...Option) *Scorer {
	s := &Scorer{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score rates bridgeName over the window ending now. An empty window yields a
// zero score with NoData set rather than an error; errors come from the store.
func (s *Scorer) Score(ctx context.Context, bridgeName string, window time.Duration) (model.ReliabilityScore, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	bridgeName = normalizeName(bridgeName)
	now := s.now()
	from := now.Add(-window)

	score, err := s.compute(ctx, bridgeName, from, now)
	if err != nil {
		return model.ReliabilityScore{}, err
	}
	if score.NoData {
		return score, nil
	}

	score.Trend = s.trend(ctx, bridgeName, score.OverallScore, window, now)
	logrus.WithFields(logrus.Fields{
		"bridge": bridgeName,
		"score":  score.OverallScore,
		"rating": score.Rating,
		"trend":  score.Trend,
	}).Debug("Calculated reliability score")
	return score, nil
}

// ScoreStrict is Score but fails with ErrInsufficientHistory on an empty window
func (s *Scorer) ScoreStrict(ctx context.Context, bridgeName string, window time.Duration) (model.ReliabilityScore, error) {
	score, err := s.Score(ctx, bridgeName, window)
	if err != nil {
		return score, err
	}
	if score.NoData {
		return score, fmt.Errorf("%s: %w", bridgeName, ErrInsufficientHistory)
	}
	return score, nil
}

// compute scores [from, to) without trend analysis
func (s *Scorer) compute(ctx context.Context, bridgeName string, from, to time.Time) (model.ReliabilityScore, error) {
	window := to.Sub(from)
	txs, err := s.store.Transactions(ctx, history.Query{
		BridgeName: bridgeName,
		Statuses:   []model.TransactionStatus{model.StatusCompleted, model.StatusFailed},
		From:       from,
		To:         to,
	})
	if err != nil {
		return model.ReliabilityScore{}, fmt.Errorf("failed to load history for %s: %w", bridgeName, err)
	}
	if len(txs) == 0 {
		return noData(bridgeName, window, to), nil
	}

	share, err := s.volumeShare(ctx, bridgeName, from, to)
	if err != nil {
		return model.ReliabilityScore{}, err
	}

	windowHours := int(math.Ceil(window.Hours()))
	if windowHours < 1 {
		windowHours = 1
	}

	var (
		completed, failed int
		times, costs      []float64
		allTimes          []float64
	)
	buckets := make(map[int]struct{})
	for _, tx := range txs {
		switch tx.Status {
		case model.StatusCompleted:
			completed++
		case model.StatusFailed:
			failed++
		}
		if tx.ActualTimeMinutes != nil && *tx.ActualTimeMinutes > 0 {
			allTimes = append(allTimes, float64(*tx.ActualTimeMinutes))
			if tx.Status == model.StatusCompleted {
				times = append(times, float64(*tx.ActualTimeMinutes))
			}
		}
		if tx.ActualCostUSD.Valid && tx.ActualCostUSD.Decimal.IsPositive() {
			costs = append(costs, tx.ActualCostUSD.Decimal.InexactFloat64())
		}
		if idx := int(to.Sub(tx.CreatedAt).Hours()); idx >= 0 && idx < windowHours {
			buckets[idx] = struct{}{}
		}
	}

	rawSuccess := float64(completed) / float64(len(txs)) * 100
	successScore := rawSuccess
	if rawSuccess >= perfectSuccessRate {
		successScore = 100
	}
	timeScore := aggregate.Consistency(times)
	costScore := aggregate.Consistency(costs)
	uptimeScore := math.Min(100, float64(len(buckets))/float64(windowHours)*100*uptimeBoost)
	volumeScore := math.Min(100, share*100*volumeBoost)

	raw := successScore*WeightSuccessRate +
		timeScore*WeightTimeConsistency +
		costScore*WeightCostConsistency +
		uptimeScore*WeightUptime +
		volumeScore*WeightVolume
	overall, rating := finalize(raw)

	return model.ReliabilityScore{
		BridgeName:     bridgeName,
		OverallScore:   overall,
		Rating:         rating,
		Recommendation: Recommendation(raw, successScore, timeScore, costScore),
		Trend:          model.TrendInsufficientData,
		Components: model.ScoreComponents{
			SuccessRate:     component(successScore, WeightSuccessRate, "Transaction success rate"),
			TimeConsistency: component(timeScore, WeightTimeConsistency, "Completion time consistency"),
			CostConsistency: component(costScore, WeightCostConsistency, "Cost predictability"),
			Uptime:          component(uptimeScore, WeightUptime, "Service availability"),
			Volume:          component(volumeScore, WeightVolume, "Transaction volume and liquidity"),
		},
		Metrics: model.SampleMetrics{
			TotalTransactions: len(txs),
			Successful:        completed,
			Failed:            failed,
			SuccessRate:       aggregate.Round(rawSuccess, 2),
			AvgTimeMinutes:    aggregate.Round(aggregate.Mean(allTimes), 2),
			MedianTimeMinutes: aggregate.Round(aggregate.Median(allTimes), 2),
			AvgCostUSD:        aggregate.Round(aggregate.Mean(costs), 2),
			ActiveHours:       len(buckets),
			WindowHours:       windowHours,
		},
		Window:       window,
		CalculatedAt: to,
	}, nil
}

// volumeShare is the bridge's fraction of cost volume across all bridges
func (s *Scorer) volumeShare(ctx context.Context, bridgeName string, from, to time.Time) (float64, error) {
	all, err := s.store.Transactions(ctx, history.Query{From: from, To: to})
	if err != nil {
		return 0, fmt.Errorf("failed to load market volume: %w", err)
	}
	var mine, total float64
	for _, tx := range all {
		if !tx.ActualCostUSD.Valid || !tx.ActualCostUSD.Decimal.IsPositive() {
			continue
		}
		c := tx.ActualCostUSD.Decimal.InexactFloat64()
		total += c
		if normalizeName(tx.BridgeName) == bridgeName {
			mine += c
		}
	}
	if total <= 0 {
		return 0, nil
	}
	return mine / total, nil
}

// trend compares the current window's average score with the previous
// window's. Stored snapshots are used when available; otherwise the previous
// window is scored from its transactions.
func (s *Scorer) trend(ctx context.Context, bridgeName string, current float64, window time.Duration, now time.Time) model.Trend {
	currentFrom := now.Add(-window)
	previousFrom := now.Add(-2 * window)

	currentAvg := current
	var previous []float64

	if s.snapshots != nil {
		snaps, err := s.snapshots.Snapshots(ctx, bridgeName, currentFrom, now)
		if err != nil {
			logrus.WithError(err).WithField("bridge", bridgeName).Warn("Could not load score snapshots")
		}
		if len(snaps) > 0 {
			scores := []float64{current}
			for _, sn := range snaps {
				scores = append(scores, sn.Score)
			}
			currentAvg = aggregate.Mean(scores)
		}

		prev, err := s.snapshots.Snapshots(ctx, bridgeName, previousFrom, currentFrom)
		if err != nil {
			logrus.WithError(err).WithField("bridge", bridgeName).Warn("Could not load score snapshots")
		}
		for _, sn := range prev {
			previous = append(previous, sn.Score)
		}
	}

	if len(previous) == 0 {
		past, err := s.compute(ctx, bridgeName, previousFrom, currentFrom)
		if err != nil {
			logrus.WithError(err).WithField("bridge", bridgeName).Warn("Could not score previous window")
			return model.TrendInsufficientData
		}
		if past.NoData {
			return model.TrendInsufficientData
		}
		previous = []float64{past.OverallScore}
	}

	diff := currentAvg - aggregate.Mean(previous)
	switch {
	case diff > trendThreshold:
		return model.TrendImproving
	case diff < -trendThreshold:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

func component(score, weight float64, description string) model.ComponentScore {
	return model.ComponentScore{
		Score:       aggregate.Round(score, 2),
		Weight:      weight * 100,
		Description: description,
	}
}

func noData(bridgeName string, window time.Duration, at time.Time) model.ReliabilityScore {
	return model.ReliabilityScore{
		BridgeName:     bridgeName,
		OverallScore:   0,
		Rating:         RatingNoData,
		Recommendation: noDataRecommendation,
		Trend:          model.TrendInsufficientData,
		NoData:         true,
		Window:         window,
		CalculatedAt:   at,
	}
}

// Rating maps an overall score to a letter grade
func Rating(score float64) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 85:
		return "A"
	case score >= 80:
		return "A-"
	case score >= 75:
		return "B+"
	case score >= 70:
		return "B"
	case score >= 65:
		return "B-"
	case score >= 60:
		return "C+"
	case score >= 55:
		return "C"
	case score >= 50:
		return "C-"
	default:
		return "D"
	}
}

// Recommendation derives advice from the overall score and its weakest component
func Recommendation(overall, success, timeScore, cost float64) string {
	switch {
	case overall >= 90:
		return "Highly recommended - Excellent reliability and performance across all metrics"
	case overall >= 80:
		return "Recommended - Good overall performance with minor inconsistencies"
	case overall >= 70:
		switch {
		case success < 90:
			return "Acceptable with caution - Lower success rate than ideal"
		case timeScore < 70:
			return "Acceptable - Completion times can vary significantly"
		case cost < 70:
			return "Acceptable - Costs can vary significantly"
		default:
			return "Acceptable - Monitor for improvements"
		}
	case overall >= 60:
		return "Use with caution - Below average reliability, consider alternatives"
	default:
		return "Not recommended - Poor reliability, high risk of issues"
	}
}

// finalize rates the unrounded overall score and rounds it for display
func finalize(raw float64) (overall float64, rating string) {
	return aggregate.Round(raw, 2), Rating(raw)
}

// normalizeName keys the board case-insensitively
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
