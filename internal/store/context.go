package store

import (
	"database/sql"
	"errors"

	"github.com/theirongolddev/cxburn/internal/model"
)

// LatestContext returns the context status of the most recent usage event,
// if any exists.
func (s *Store) LatestContext(homeID int64) (model.ContextStatus, bool, error) {
	var cs model.ContextStatus
	err := s.db.QueryRow(`SELECT context_used, context_window
		FROM usage_event WHERE home_id = ? ORDER BY ts DESC LIMIT 1`, homeID).
		Scan(&cs.Used, &cs.Window)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ContextStatus{}, false, nil
	}
	if err != nil {
		return model.ContextStatus{}, false, err
	}
	return cs, true, nil
}

// ActiveSessions lists the sessions seen since the given timestamp, newest
// first, each with the context status of its latest event.
func (s *Store) ActiveSessions(homeID int64, since string) ([]model.ActiveSession, error) {
	rows, err := s.db.Query(`
		SELECT ue.session_id, ue.model, ue.ts, latest.start_ts, ue.context_used, ue.context_window
		FROM usage_event ue
		INNER JOIN (
			SELECT session_id, MAX(ts) AS last_ts, MIN(ts) AS start_ts
			FROM usage_event
			WHERE home_id = ? AND ts >= ?
			GROUP BY session_id
		) latest
		ON ue.session_id = latest.session_id AND ue.ts = latest.last_ts
		WHERE ue.home_id = ?
		ORDER BY ue.ts DESC`, homeID, since, homeID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.ActiveSession
	for rows.Next() {
		var as model.ActiveSession
		if err := rows.Scan(&as.SessionID, &as.Model, &as.LastSeen, &as.SessionStart,
			&as.ContextUsed, &as.ContextWindow); err != nil {
			return nil, err
		}
		sessions = append(sessions, as)
	}
	return sessions, rows.Err()
}

// ContextPressureStats averages context occupancy over a range, counting
// only events that reported a window size.
func (s *Store) ContextPressureStats(homeID int64, r model.TimeRange) (model.ContextPressureStats, error) {
	var stats model.ContextPressureStats
	var avgUsed, avgWindow, avgPressure sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       AVG(context_used),
		       AVG(context_window),
		       AVG((context_used * 1.0) / context_window)
		FROM usage_event
		WHERE home_id = ? AND ts >= ? AND ts < ? AND context_window > 0`,
		homeID, r.Start, r.End).
		Scan(&stats.SampleCount, &avgUsed, &avgWindow, &avgPressure)
	if err != nil {
		return model.ContextPressureStats{}, err
	}
	stats.AvgContextUsed = f64FromNull(avgUsed)
	stats.AvgContextWindow = f64FromNull(avgWindow)
	if avgPressure.Valid {
		pct := avgPressure.Float64 * 100
		stats.AvgPressurePct = &pct
	}
	return stats, nil
}
