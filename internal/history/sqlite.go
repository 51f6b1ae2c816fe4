package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bridge_transactions(
	id TEXT PRIMARY KEY,
	bridge_name TEXT NOT NULL,
	source_chain TEXT NOT NULL DEFAULT '',
	destination_chain TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	actual_cost_usd TEXT,
	actual_time_minutes INTEGER,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bridge_transactions_bridge_time ON bridge_transactions(bridge_name, created_at);
CREATE INDEX IF NOT EXISTS idx_bridge_transactions_time ON bridge_transactions(created_at);
CREATE TABLE IF NOT EXISTS reliability_snapshots(
	bridge_name TEXT NOT NULL,
	score REAL NOT NULL,
	calculated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reliability_snapshots_bridge_time ON reliability_snapshots(bridge_name, calculated_at);
`

// SQLite is a Store and SnapshotStore backed by a pure-Go SQLite database.
// Timestamps are stored as Unix nanoseconds and read back in UTC.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dsn and applies the schema
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open failed: %w", err)
	}
	// one writer; also keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)

	initCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(initCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}
	if _, err := db.ExecContext(initCtx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite init schema failed: %w", err)
	}
	logrus.WithField("dsn", dsn).Info("Transaction history store ready")
	return &SQLite{db: db}, nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Record inserts a transaction, assigning an ID when missing
func (s *SQLite) Record(ctx context.Context, tx model.TransactionRecord) error {
	if err := Validate(tx); err != nil {
		return err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	var minutes sql.NullInt64
	if tx.ActualTimeMinutes != nil {
		minutes = sql.NullInt64{Int64: int64(*tx.ActualTimeMinutes), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bridge_transactions(id, bridge_name, source_chain, destination_chain, status, actual_cost_usd, actual_time_minutes, created_at) VALUES(?,?,?,?,?,?,?,?)`,
		tx.ID, tx.BridgeName, tx.SourceChain, tx.DestinationChain, string(tx.Status),
		tx.ActualCostUSD, minutes, tx.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

// Transactions returns matching records ordered by CreatedAt
func (s *SQLite) Transactions(ctx context.Context, q Query) ([]model.TransactionRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if q.BridgeName != "" {
		where = append(where, "bridge_name = ? COLLATE NOCASE")
		args = append(args, q.BridgeName)
	}
	if q.SourceChain != "" {
		where = append(where, "source_chain = ?")
		args = append(args, q.SourceChain)
	}
	if q.DestinationChain != "" {
		where = append(where, "destination_chain = ?")
		args = append(args, q.DestinationChain)
	}
	if len(q.Statuses) > 0 {
		marks := make([]string, len(q.Statuses))
		for i, st := range q.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "status IN ("+strings.Join(marks, ",")+")")
	}
	where, args = timeRange(where, args, "created_at", q.From, q.To)

	query := `SELECT id, bridge_name, source_chain, destination_chain, status, actual_cost_usd, actual_time_minutes, created_at FROM bridge_transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]model.TransactionRecord, 0)
	for rows.Next() {
		var (
			rec     model.TransactionRecord
			status  string
			minutes sql.NullInt64
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.BridgeName, &rec.SourceChain, &rec.DestinationChain,
			&status, &rec.ActualCostUSD, &minutes, &created); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		rec.Status = model.TransactionStatus(status)
		if minutes.Valid {
			m := int(minutes.Int64)
			rec.ActualTimeMinutes = &m
		}
		rec.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BridgeNames lists bridges with at least one record in [from, to), sorted
func (s *SQLite) BridgeNames(ctx context.Context, from, to time.Time) ([]string, error) {
	where, args := timeRange(nil, nil, "created_at", from, to)
	query := `SELECT DISTINCT bridge_name FROM bridge_transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY bridge_name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bridges: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan bridge name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// RecordSnapshot stores a computed score
func (s *SQLite) RecordSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reliability_snapshots(bridge_name, score, calculated_at) VALUES(?,?,?)`,
		snap.BridgeName, snap.Score, snap.CalculatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// Snapshots returns a bridge's scores in [from, to), oldest first
func (s *SQLite) Snapshots(ctx context.Context, bridge string, from, to time.Time) ([]Snapshot, error) {
	where, args := timeRange([]string{"bridge_name = ? COLLATE NOCASE"}, []interface{}{bridge}, "calculated_at", from, to)
	rows, err := s.db.QueryContext(ctx,
		`SELECT bridge_name, score, calculated_at FROM reliability_snapshots WHERE `+strings.Join(where, " AND ")+` ORDER BY calculated_at, rowid`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]Snapshot, 0)
	for rows.Next() {
		var (
			snap Snapshot
			at   int64
		)
		if err := rows.Scan(&snap.BridgeName, &snap.Score, &at); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.CalculatedAt = time.Unix(0, at).UTC()
		out = append(out, snap)
	}
	return out, rows.Err()
}

func timeRange(where []string, args []interface{}, column string, from, to time.Time) ([]string, []interface{}) {
	if !from.IsZero() {
		where = append(where, column+" >= ?")
		args = append(args, from.UnixNano())
	}
	if !to.IsZero() {
		where = append(where, column+" < ?")
		args = append(args, to.UnixNano())
	}
	return where, args
}
