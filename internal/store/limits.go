package store

import (
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/theirongolddev/cxburn/internal/model"
)

func (s *Store) scanLimitSnapshot(row *sql.Row) (model.LimitSnapshot, bool, error) {
	var snap model.LimitSnapshot
	var raw sql.NullString
	err := row.Scan(&snap.LimitType, &snap.PercentLeft, &snap.ResetAt, &snap.ObservedAt,
		&snap.Source, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LimitSnapshot{}, false, nil
	}
	if err != nil {
		return model.LimitSnapshot{}, false, err
	}
	if raw.Valid {
		snap.RawLine = raw.String
	}
	return snap, true, nil
}

// LatestLimitSnapshot returns the most recent snapshot for a limit type.
func (s *Store) LatestLimitSnapshot(homeID int64, limitType string) (model.LimitSnapshot, bool, error) {
	row := s.db.QueryRow(`SELECT limit_type, percent_left, reset_at, ts, source, raw_json
		FROM usage_limit_snapshot
		WHERE home_id = ? AND limit_type = ?
		ORDER BY ts DESC LIMIT 1`, homeID, limitType)
	return s.scanLimitSnapshot(row)
}

// LatestCurrentLimitSnapshot returns the most recent snapshot whose window
// has not reset yet.
func (s *Store) LatestCurrentLimitSnapshot(homeID int64, limitType string) (model.LimitSnapshot, bool, error) {
	now := model.FormatTS(time.Now())
	row := s.db.QueryRow(`SELECT limit_type, percent_left, reset_at, ts, source, raw_json
		FROM usage_limit_snapshot
		WHERE home_id = ? AND limit_type = ? AND reset_at >= ?
		ORDER BY ts DESC LIMIT 1`, homeID, limitType, now)
	return s.scanLimitSnapshot(row)
}

// LimitCurrentWindow summarizes the activity inside the limit window that is
// open right now: [reset_at - window length, reset_at).
func (s *Store) LimitCurrentWindow(homeID int64, limitType string) (*model.CurrentLimitWindow, error) {
	snap, ok, err := s.LatestCurrentLimitSnapshot(homeID, limitType)
	if err != nil || !ok {
		return nil, err
	}
	resetAt, err := model.ParseTS(snap.ResetAt)
	if err != nil {
		return nil, err
	}
	var length time.Duration
	switch limitType {
	case model.LimitShort:
		length = 5 * time.Hour
	case model.LimitLong:
		length = 7 * 24 * time.Hour
	default:
		return nil, nil
	}
	r := model.TimeRange{
		Start: model.FormatTS(resetAt.Add(-length).Truncate(time.Minute)),
		End:   model.FormatTS(resetAt.Truncate(time.Minute)),
	}
	summary, err := s.Summary(homeID, r)
	if err != nil {
		return nil, err
	}
	messages, err := s.MessageCountInRange(homeID, r)
	if err != nil {
		return nil, err
	}
	return &model.CurrentLimitWindow{
		WindowStart:  r.Start,
		WindowEnd:    r.End,
		TotalTokens:  summary.TotalTokens,
		TotalCostUSD: summary.TotalCostUSD,
		MessageCount: messages,
	}, nil
}

// LimitWindows reconstructs past weekly limit windows from the distinct 7d
// reset boundaries seen so far, oldest first. The earliest window has no
// observed start boundary and is marked incomplete. A positive limit keeps
// only the most recent windows.
func (s *Store) LimitWindows(homeID int64, limit int) ([]model.LimitWindow, error) {
	rows, err := s.db.Query(`SELECT DISTINCT reset_at FROM usage_limit_snapshot
		WHERE home_id = ? AND limit_type = ? ORDER BY reset_at ASC`,
		homeID, model.LimitLong)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[time.Time]bool)
	var resets []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		t, err := model.ParseTS(raw)
		if err != nil {
			continue
		}
		t = t.Truncate(time.Minute)
		if !seen[t] {
			seen[t] = true
			resets = append(resets, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(resets, func(i, j int) bool { return resets[i].Before(resets[j]) })

	var windows []model.LimitWindow
	var prev *time.Time
	for i := range resets {
		resetAt := resets[i]
		complete := prev != nil
		start := resetAt.Add(-7 * 24 * time.Hour)
		if prev != nil {
			start = *prev
		}
		r := model.TimeRange{
			Start: model.FormatTS(start),
			End:   model.FormatTS(resetAt),
		}
		summary, err := s.Summary(homeID, r)
		if err != nil {
			return nil, err
		}
		messages, err := s.MessageCountInRange(homeID, r)
		if err != nil {
			return nil, err
		}
		windows = append(windows, model.LimitWindow{
			WindowStart:  r.Start,
			WindowEnd:    r.End,
			TotalTokens:  summary.TotalTokens,
			TotalCostUSD: summary.TotalCostUSD,
			MessageCount: messages,
			Complete:     complete,
		})
		prev = &resets[i]
	}
	if limit > 0 && len(windows) > limit {
		windows = windows[len(windows)-limit:]
	}
	return windows, nil
}
