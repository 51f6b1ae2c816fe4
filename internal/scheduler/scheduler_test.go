package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustRahman/cross-chain-bridghe/internal/history"
	"github.com/JustRahman/cross-chain-bridghe/internal/metrics"
	"github.com/JustRahman/cross-chain-bridghe/internal/model"
	"github.com/JustRahman/cross-chain-bridghe/internal/reliability"
)

var now = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func seed(t *testing.T, store history.Store) {
	t.Helper()
	five := 5
	for i, bridge := range []string{"across", "across", "hop"} {
		require.NoError(t, store.Record(context.Background(), model.TransactionRecord{
			BridgeName:        bridge,
			Status:            model.StatusCompleted,
			ActualCostUSD:     decimal.NewNullDecimal(decimal.NewFromInt(2)),
			ActualTimeMinutes: &five,
			CreatedAt:         now.Add(-time.Duration(i+1) * time.Hour),
		}))
	}
}

func TestRunOnce_PublishesScores(t *testing.T) {
	store := history.NewMemory()
	seed(t, store)
	board := reliability.NewBoard()

	job := NewScoreJob(Config{
		Scorer:    reliability.NewScorer(store, reliability.WithClock(clock)),
		Store:     store,
		Snapshots: store,
		Board:     board,
		Metrics:   metrics.New(prometheus.NewRegistry()),
		Window:    24 * time.Hour,
		Bridges:   []string{"across", "orbiter"},
		Now:       clock,
	})

	scores, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 3)

	names := []string{scores[0].BridgeName, scores[1].BridgeName, scores[2].BridgeName}
	assert.Equal(t, []string{"across", "hop", "orbiter"}, names)

	v, ok := board.Reliability("across")
	require.True(t, ok)
	assert.Greater(t, v, 0.0)

	orbiter, ok := board.Get("orbiter")
	require.True(t, ok)
	assert.True(t, orbiter.NoData)
	_, ok = board.Reliability("orbiter")
	assert.False(t, ok)

	snaps, err := store.Snapshots(context.Background(), "across", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, v, snaps[0].Score)

	none, err := store.Snapshots(context.Background(), "orbiter", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, none, "no-data scores are not snapshotted")
}

func TestRunOnce_MergesBridgeNamesCaseInsensitively(t *testing.T) {
	store := history.NewMemory()
	seed(t, store)

	job := NewScoreJob(Config{
		Scorer:    reliability.NewScorer(store, reliability.WithClock(clock)),
		Store:     store,
		Snapshots: store,
		Window:    24 * time.Hour,
		Bridges:   []string{"Across", " HOP "},
		Now:       clock,
	})

	scores, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "across", scores[0].BridgeName)
	assert.Equal(t, "hop", scores[1].BridgeName)

	snaps, err := store.Snapshots(context.Background(), "across", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "across", snaps[0].BridgeName)
}

type flakyScorer struct {
	fail string
}

func (f flakyScorer) Score(_ context.Context, bridge string, _ time.Duration) (model.ReliabilityScore, error) {
	if bridge == f.fail {
		return model.ReliabilityScore{}, errors.New("boom")
	}
	return model.ReliabilityScore{BridgeName: bridge, OverallScore: 70, Rating: "B"}, nil
}

func TestRunOnce_SkipsFailingBridge(t *testing.T) {
	store := history.NewMemory()
	seed(t, store)
	board := reliability.NewBoard()

	job := NewScoreJob(Config{Scorer: flakyScorer{fail: "across"}, Store: store, Board: board, Window: 24 * time.Hour, Now: clock})

	scores, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "hop", scores[0].BridgeName)

	_, ok := board.Get("across")
	assert.False(t, ok)
}

func TestRunOnce_CancelledContext(t *testing.T) {
	store := history.NewMemory()
	seed(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := NewScoreJob(Config{Scorer: flakyScorer{}, Store: store, Window: 24 * time.Hour, Now: clock})
	_, err := job.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStart_ValidatesSchedule(t *testing.T) {
	job := NewScoreJob(Config{Scorer: flakyScorer{}, Store: history.NewMemory()})

	assert.Error(t, job.Start("not a schedule"))

	require.NoError(t, job.Start("@every 1h"))
	assert.Error(t, job.Start("@hourly"), "already started")
	job.Stop()
	job.Stop()
}

func TestStart_RunsOnSchedule(t *testing.T) {
	store := history.NewMemory()
	seed(t, store)
	board := reliability.NewBoard()

	job := NewScoreJob(Config{Scorer: flakyScorer{}, Store: store, Board: board, Window: 24 * time.Hour})
	require.NoError(t, job.Start("@every 1s"))
	t.Cleanup(job.Stop)

	assert.Eventually(t, func() bool {
		_, ok := board.Get("hop")
		return ok
	}, 5*time.Second, 50*time.Millisecond)
}
