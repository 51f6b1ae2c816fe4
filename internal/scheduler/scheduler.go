// Package scheduler periodically rescores every active bridge and publishes
// the results to the reliability board.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/JustRahman/cross-chain-bridghe/internal/history"
	"github.com/JustRahman/cross-chain-bridghe/internal/metrics"
	"github.com/JustRahman/cross-chain-bridghe/internal/model"
	"github.com/JustRahman/cross-chain-bridghe/internal/reliability"
)

// DefaultSchedule rescores once an hour
const DefaultSchedule = "@hourly"

// Scorer is the part of reliability.Scorer the job needs
type Scorer interface {
	Score(ctx context.Context, bridgeName string, window time.Duration) (model.ReliabilityScore, error)
}

// ScoreJob scores bridges on a cron schedule
type ScoreJob struct {
	scorer    Scorer
	store     history.Store
	snapshots history.SnapshotStore
	board     *reliability.Board
	metrics   *metrics.Metrics
	window    time.Duration
	bridges   []string
	now       func() time.Time
	timeout   time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

// Config holds the job's collaborators
type Config struct {
	Scorer Scorer
	Store  history.Store
	Board  *reliability.Board

	// Snapshots receives every computed score when set
	Snapshots history.SnapshotStore
	Metrics   *metrics.Metrics

	// Window is the scoring window; zero selects reliability.DefaultWindow
	Window time.Duration

	// Bridges are always scored, in addition to those found in the history
	Bridges []string

	// Timeout bounds one full run; zero means one minute
	Timeout time.Duration

	Now func() time.Time
}

// NewScoreJob creates a job from cfg
func NewScoreJob(cfg Config) *ScoreJob {
	j := &ScoreJob{
		scorer:    cfg.Scorer,
		store:     cfg.Store,
		snapshots: cfg.Snapshots,
		board:     cfg.Board,
		metrics:   cfg.Metrics,
		window:    cfg.Window,
		bridges:   cfg.Bridges,
		now:       cfg.Now,
		timeout:   cfg.Timeout,
	}
	if j.window <= 0 {
		j.window = reliability.DefaultWindow
	}
	if j.now == nil {
		j.now = time.Now
	}
	if j.timeout <= 0 {
		j.timeout = time.Minute
	}
	return j
}

// Start schedules RunOnce according to schedule (standard cron syntax or
// descriptors such as @hourly)
func (j *ScoreJob) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		return fmt.Errorf("score job already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			logrus.WithError(err).Warn("Scheduled reliability scoring failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid score schedule %q: %w", schedule, err)
	}
	c.Start()
	j.cron = c
	logrus.WithField("schedule", schedule).Info("Reliability scoring scheduled")
	return nil
}

// Stop halts the schedule and waits for a running job to finish
func (j *ScoreJob) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// RunOnce scores every bridge with history in the window plus the configured
// ones. A failing bridge is logged and skipped. It returns the published scores.
func (j *ScoreJob) RunOnce(ctx context.Context) ([]model.ReliabilityScore, error) {
	now := j.now()
	names, err := j.store.BridgeNames(ctx, now.Add(-j.window), now)
	if err != nil {
		return nil, fmt.Errorf("failed to list bridges: %w", err)
	}

	seen := make(map[string]struct{}, len(names)+len(j.bridges))
	var all []string
	for _, n := range append(names, j.bridges...) {
		key := strings.ToLower(strings.TrimSpace(n))
		if _, dup := seen[key]; dup || key == "" {
			continue
		}
		seen[key] = struct{}{}
		all = append(all, key)
	}

	scores := make([]model.ReliabilityScore, 0, len(all))
	for _, name := range all {
		if err := ctx.Err(); err != nil {
			return scores, err
		}
		score, err := j.scorer.Score(ctx, name, j.window)
		if err != nil {
			logrus.WithError(err).WithField("bridge", name).Warn("Failed to score bridge")
			continue
		}

		if j.board != nil {
			j.board.Publish(score)
		}
		if !score.NoData {
			j.metrics.ReliabilityScore(score.BridgeName, score.OverallScore)
			if j.snapshots != nil {
				if err := j.snapshots.RecordSnapshot(ctx, history.Snapshot{
					BridgeName:   score.BridgeName,
					Score:        score.OverallScore,
					CalculatedAt: score.CalculatedAt,
				}); err != nil {
					logrus.WithError(err).WithField("bridge", name).Warn("Failed to store score snapshot")
				}
			}
		}
		scores = append(scores, score)
	}

	logrus.WithField("bridges", len(scores)).Info("Reliability scores refreshed")
	return scores, nil
}
