package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a recorded bridge transfer.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// TransactionRecord is one historical bridge transfer as persisted by the
// surrounding application.
type TransactionRecord struct {
	ID               string            `json:"id"`
	BridgeName       string            `json:"bridge_name"`
	SourceChain      string            `json:"source_chain"`
	DestinationChain string            `json:"destination_chain"`
	Status           TransactionStatus `json:"status"`

	ActualCostUSD     decimal.NullDecimal `json:"actual_cost_usd"`
	ActualTimeMinutes *int                `json:"actual_time_minutes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Trend describes how a bridge's score moved against the previous window.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendStable           Trend = "stable"
	TrendDeclining        Trend = "declining"
	TrendInsufficientData Trend = "insufficient_data"
)

// ComponentScore is one weighted input to the overall reliability score.
type ComponentScore struct {
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// ScoreComponents groups the five reliability components.
type ScoreComponents struct {
	SuccessRate     ComponentScore `json:"success_rate"`
	TimeConsistency ComponentScore `json:"time_consistency"`
	CostConsistency ComponentScore `json:"cost_consistency"`
	Uptime          ComponentScore `json:"uptime"`
	Volume          ComponentScore `json:"volume"`
}

// SampleMetrics summarizes the raw data behind a score.
type SampleMetrics struct {
	TotalTransactions int     `json:"total_transactions"`
	Successful        int     `json:"successful_transactions"`
	Failed            int     `json:"failed_transactions"`
	SuccessRate       float64 `json:"success_rate"`
	AvgTimeMinutes    float64 `json:"avg_time_minutes"`
	MedianTimeMinutes float64 `json:"median_time_minutes"`
	AvgCostUSD        float64 `json:"avg_cost_usd"`
	ActiveHours       int     `json:"active_hours"`
	WindowHours       int     `json:"window_hours"`
}

// ReliabilityScore is a point-in-time snapshot of a bridge's reliability.
type ReliabilityScore struct {
	BridgeName     string          `json:"bridge_name"`
	OverallScore   float64         `json:"overall_score"`
	Rating         string          `json:"rating"`
	Recommendation string          `json:"recommendation"`
	Trend          Trend           `json:"trend"`
	Components     ScoreComponents `json:"components"`
	Metrics        SampleMetrics   `json:"metrics"`

	// NoData is set when the window held no completed or failed transactions
	NoData bool `json:"no_data"`

	Window       time.Duration `json:"-"`
	CalculatedAt time.Time     `json:"calculated_at"`
}
