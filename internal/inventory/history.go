package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// maxRecentLimit caps Recent page sizes.
const maxRecentLimit = 500

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// CycleRecord is a stored discovery cycle.
type CycleRecord struct {
	ID        string
	Host      string
	StartedAt time.Time
	Duration  time.Duration
	Counts    Counts

	// Failures maps endpoint name to error text.
	Failures map[string]string
}

// Record converts a cycle to its stored form.
func (c Cycle) Record() CycleRecord {
	rec := CycleRecord{
		ID:        c.ID,
		Host:      c.Host,
		StartedAt: c.StartedAt,
		Duration:  c.Duration,
		Counts:    c.Counts,
	}
	if len(c.Failures) > 0 {
		rec.Failures = make(map[string]string, len(c.Failures))
		for ep, err := range c.Failures {
			rec.Failures[ep.String()] = err.Error()
		}
	}
	return rec
}

// History defines the interface for cycle history storage.
type History interface {
	RecordCycle(ctx context.Context, cycle Cycle) error
	Recent(ctx context.Context, limit int) ([]CycleRecord, error)
	Get(ctx context.Context, id string) (*CycleRecord, error)
}

// SQLiteHistory stores cycles in the inventory_cycles table.
type SQLiteHistory struct {
	db        *sql.DB
	retention time.Duration
	now       func() time.Time
}

// NewSQLiteHistory creates a history store.
//
// Parameters:
//   - db: Migrated database connection
//   - retention: Records older than this are pruned after each insert; 0 keeps everything
func NewSQLiteHistory(db *sql.DB, retention time.Duration) *SQLiteHistory {
	return &SQLiteHistory{db: db, retention: retention, now: time.Now}
}

// RecordCycle inserts a cycle and prunes expired records.
func (h *SQLiteHistory) RecordCycle(ctx context.Context, cycle Cycle) error {
	rec := cycle.Record()

	var failuresJSON *string
	if len(rec.Failures) > 0 {
		b, err := json.Marshal(rec.Failures)
		if err != nil {
			return fmt.Errorf("marshalling failures: %w", err)
		}
		s := string(b)
		failuresJSON = &s
	}

	c := cycle.Counts
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO inventory_cycles (
			id, host, started_at, duration_ms,
			total_nodes, scenes, insteon_nodes, zwave_nodes, nodeserver_nodes,
			integer_variables, state_variables, programs, failures
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cycle.ID, cycle.Host, cycle.StartedAt.UTC().Format(timeLayout), cycle.Duration.Milliseconds(),
		c.TotalNodes, c.Scenes, c.InsteonNodes, c.ZWaveNodes, c.NodeServerNodes,
		c.IntegerVariables, c.StateVariables, c.Programs, failuresJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting cycle: %w", err)
	}

	if h.retention > 0 {
		if _, err := h.Prune(ctx, h.now().Add(-h.retention)); err != nil {
			return err
		}
	}

	return nil
}

// Prune deletes cycles that started before cutoff.
//
// Returns:
//   - int64: Number of records removed
//   - error: If the delete fails
func (h *SQLiteHistory) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx,
		`DELETE FROM inventory_cycles WHERE started_at < ?`,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning cycles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning cycles: %w", err)
	}
	return n, nil
}

// Recent returns the most recent cycles, newest first.
func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]CycleRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT `+cycleColumns+` FROM inventory_cycles ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	var records []CycleRecord
	for rows.Next() {
		r, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycles: %w", err)
	}

	return records, nil
}

// Get returns one cycle by ID.
//
// Returns:
//   - *CycleRecord: The stored cycle
//   - error: ErrNotFound if no such cycle exists
func (h *SQLiteHistory) Get(ctx context.Context, id string) (*CycleRecord, error) {
	row := h.db.QueryRowContext(ctx,
		`SELECT `+cycleColumns+` FROM inventory_cycles WHERE id = ?`,
		id,
	)
	r, err := scanCycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

const cycleColumns = `id, host, started_at, duration_ms,
	total_nodes, scenes, insteon_nodes, zwave_nodes, nodeserver_nodes,
	integer_variables, state_variables, programs, failures`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCycle(s scanner) (*CycleRecord, error) {
	var (
		r          CycleRecord
		startedAt  string
		durationMS int64
		failures   sql.NullString
	)
	err := s.Scan(
		&r.ID, &r.Host, &startedAt, &durationMS,
		&r.Counts.TotalNodes, &r.Counts.Scenes, &r.Counts.InsteonNodes, &r.Counts.ZWaveNodes, &r.Counts.NodeServerNodes,
		&r.Counts.IntegerVariables, &r.Counts.StateVariables, &r.Counts.Programs, &failures,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning cycle: %w", err)
	}

	r.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond

	if failures.Valid {
		if err := json.Unmarshal([]byte(failures.String), &r.Failures); err != nil {
			return nil, fmt.Errorf("parsing failures: %w", err)
		}
	}

	return &r, nil
}
