// Package history persists bridge transaction records and reliability score
// snapshots. The reliability scorer only reads from it.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

// ErrInvalidRecord is returned by Record for records missing required fields
var ErrInvalidRecord = errors.New("history: invalid transaction record")

// Query filters transactions. Empty fields match everything; the time range
// is [From, To) and a zero bound is open.
type Query struct {
	BridgeName       string
	SourceChain      string
	DestinationChain string
	Statuses         []model.TransactionStatus
	From             time.Time
	To               time.Time
}

// Store is the transaction history collaborator. Results are ordered by CreatedAt.
type Store interface {
	Transactions(ctx context.Context, q Query) ([]model.TransactionRecord, error)
	BridgeNames(ctx context.Context, from, to time.Time) ([]string, error)
	Record(ctx context.Context, tx model.TransactionRecord) error
}

// Snapshot is a reliability score computed at a point in time
type Snapshot struct {
	BridgeName   string    `json:"bridge_name"`
	Score        float64   `json:"score"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// SnapshotStore keeps past reliability scores for trend analysis
type SnapshotStore interface {
	RecordSnapshot(ctx context.Context, s Snapshot) error
	Snapshots(ctx context.Context, bridge string, from, to time.Time) ([]Snapshot, error)
}

// Validate checks the fields every record needs
func Validate(tx model.TransactionRecord) error {
	switch {
	case tx.BridgeName == "":
		return fmt.Errorf("%w: bridge name is required", ErrInvalidRecord)
	case tx.CreatedAt.IsZero():
		return fmt.Errorf("%w: created_at is required", ErrInvalidRecord)
	}
	switch tx.Status {
	case model.StatusPending, model.StatusCompleted, model.StatusFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, tx.Status)
	}
	if tx.ActualCostUSD.Valid && tx.ActualCostUSD.Decimal.IsNegative() {
		return fmt.Errorf("%w: negative cost", ErrInvalidRecord)
	}
	if tx.ActualTimeMinutes != nil && *tx.ActualTimeMinutes < 0 {
		return fmt.Errorf("%w: negative time", ErrInvalidRecord)
	}
	return nil
}

func (q Query) matches(tx model.TransactionRecord) bool {
	// bridge names compare case-insensitively
	if q.BridgeName != "" && !strings.EqualFold(q.BridgeName, tx.BridgeName) {
		return false
	}
	if q.SourceChain != "" && q.SourceChain != tx.SourceChain {
		return false
	}
	if q.DestinationChain != "" && q.DestinationChain != tx.DestinationChain {
		return false
	}
	if !q.From.IsZero() && tx.CreatedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !tx.CreatedAt.Before(q.To) {
		return false
	}
	if len(q.Statuses) == 0 {
		return true
	}
	for _, s := range q.Statuses {
		if s == tx.Status {
			return true
		}
	}
	return false
}
