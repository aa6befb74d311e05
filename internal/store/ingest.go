package store

import (
	"database/sql"

	"github.com/theirongolddev/cxburn/internal/model"
)

// FileBatch is everything one incremental read of one file produced. The
// whole batch commits atomically, cursor included, so a crash never records
// progress for events that were not stored.
type FileBatch struct {
	HomeID   int64
	Events   []model.UsageEvent
	Messages []model.MessageEvent
	Limits   []model.LimitSnapshot
	Cursor   model.Cursor
}

// InsertFileBatch stores a batch and returns how many usage events were
// actually new. Events and messages insert idempotently by id; limit
// snapshots are skipped when they repeat the latest stored state for their
// window.
func (s *Store) InsertFileBatch(b FileBatch) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted, err := insertUsageEvents(tx, b.HomeID, b.Events)
	if err != nil {
		return 0, err
	}
	if err := insertMessageEvents(tx, b.HomeID, b.Messages); err != nil {
		return 0, err
	}
	if err := insertLimitSnapshots(tx, b.HomeID, b.Limits); err != nil {
		return 0, err
	}
	if err := upsertCursor(tx, b.Cursor); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func insertUsageEvents(tx *sql.Tx, homeID int64, events []model.UsageEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO usage_event (
		home_id, id, ts, model, input_tokens, cached_input_tokens, output_tokens,
		reasoning_output_tokens, total_tokens, context_used, context_window,
		cost_usd, reasoning_effort, source, session_id, request_id, raw_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, ev := range events {
		res, err := stmt.Exec(homeID, ev.ID, ev.TS, ev.Model,
			ev.Tokens.Input, ev.Tokens.CachedInput, ev.Tokens.Output,
			ev.Tokens.ReasoningOutput, ev.Tokens.Total,
			ev.Context.Used, ev.Context.Window,
			nullF64(ev.CostUSD), nullStr(ev.ReasoningEffort),
			ev.Source, ev.SessionID, nullStr(ev.RequestID), ev.RawJSON)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func insertMessageEvents(tx *sql.Tx, homeID int64, events []model.MessageEvent) error {
	if len(events) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO message_event (
		home_id, id, ts, role, source, session_id, raw_json
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, ev := range events {
		if _, err := stmt.Exec(homeID, ev.ID, ev.TS, ev.Role, ev.Source, ev.SessionID, ev.RawJSON); err != nil {
			return err
		}
	}
	return nil
}

type limitState struct {
	percentLeft float64
	resetAt     string
}

func insertLimitSnapshots(tx *sql.Tx, homeID int64, snaps []model.LimitSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	last := make(map[string]limitState)
	rows, err := tx.Query(`SELECT limit_type, percent_left, reset_at
		FROM usage_limit_snapshot WHERE home_id = ? ORDER BY ts DESC`, homeID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var limitType string
		var state limitState
		if err := rows.Scan(&limitType, &state.percentLeft, &state.resetAt); err != nil {
			_ = rows.Close()
			return err
		}
		if _, seen := last[limitType]; !seen {
			last[limitType] = state
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	stmt, err := tx.Prepare(`INSERT INTO usage_limit_snapshot (
		home_id, ts, limit_type, percent_left, reset_at, source, raw_json
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, snap := range snaps {
		if prev, ok := last[snap.LimitType]; ok &&
			prev.percentLeft == snap.PercentLeft && prev.resetAt == snap.ResetAt {
			continue
		}
		if _, err := stmt.Exec(homeID, snap.ObservedAt, snap.LimitType,
			snap.PercentLeft, snap.ResetAt, snap.Source, snap.RawLine); err != nil {
			return err
		}
		last[snap.LimitType] = limitState{percentLeft: snap.PercentLeft, resetAt: snap.ResetAt}
	}
	return nil
}
