package history

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

// Memory is an in-process Store and SnapshotStore
type Memory struct {
	mu        sync.RWMutex
	txs       []model.TransactionRecord
	snapshots []Snapshot
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{}
}

// Record appends a transaction, assigning an ID when missing
func (m *Memory) Record(_ context.Context, tx model.TransactionRecord) error {
	if err := Validate(tx); err != nil {
		return err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.ActualTimeMinutes != nil {
		v := *tx.ActualTimeMinutes
		tx.ActualTimeMinutes = &v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, tx)
	return nil
}

// Transactions returns matching records ordered by CreatedAt
func (m *Memory) Transactions(_ context.Context, q Query) ([]model.TransactionRecord, error) {
	m.mu.RLock()
	out := make([]model.TransactionRecord, 0)
	for _, tx := range m.txs {
		if q.matches(tx) {
			out = append(out, tx)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// BridgeNames lists bridges with at least one record in [from, to), sorted
func (m *Memory) BridgeNames(_ context.Context, from, to time.Time) ([]string, error) {
	q := Query{From: from, To: to}
	seen := make(map[string]struct{})

	m.mu.RLock()
	for _, tx := range m.txs {
		if q.matches(tx) {
			seen[tx.BridgeName] = struct{}{}
		}
	}
	m.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// RecordSnapshot stores a computed score
func (m *Memory) RecordSnapshot(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, s)
	return nil
}

// Snapshots returns a bridge's scores in [from, to), oldest first
func (m *Memory) Snapshots(_ context.Context, bridge string, from, to time.Time) ([]Snapshot, error) {
	m.mu.RLock()
	out := make([]Snapshot, 0)
	for _, s := range m.snapshots {
		if !strings.EqualFold(s.BridgeName, bridge) {
			continue
		}
		if (!from.IsZero() && s.CalculatedAt.Before(from)) || (!to.IsZero() && !s.CalculatedAt.Before(to)) {
			continue
		}
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CalculatedAt.Before(out[j].CalculatedAt) })
	return out, nil
}
