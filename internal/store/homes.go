package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/cxburn/internal/model"
)

const activeHomeKey = "active_home_id"

// ErrHomeNotFound is returned when a home id does not exist.
var ErrHomeNotFound = errors.New("home not found")

func scanHome(row interface{ Scan(...any) error }) (model.Home, error) {
	var h model.Home
	var lastSeen sql.NullString
	err := row.Scan(&h.ID, &h.Label, &h.Path, &h.CreatedAt, &lastSeen)
	if err != nil {
		return model.Home{}, err
	}
	h.LastSeenAt = strFromNull(lastSeen)
	return h, nil
}

// ListHomes returns all registered homes, oldest first.
func (s *Store) ListHomes() ([]model.Home, error) {
	rows, err := s.db.Query(`SELECT id, label, path, created_at, last_seen_at
		FROM home ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var homes []model.Home
	for rows.Next() {
		h, err := scanHome(rows)
		if err != nil {
			return nil, err
		}
		homes = append(homes, h)
	}
	return homes, rows.Err()
}

// GetHome looks up a home by id.
func (s *Store) GetHome(id int64) (model.Home, error) {
	row := s.db.QueryRow(`SELECT id, label, path, created_at, last_seen_at
		FROM home WHERE id = ?`, id)
	h, err := scanHome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Home{}, fmt.Errorf("home %d: %w", id, ErrHomeNotFound)
	}
	return h, err
}

// GetHomeByPath looks up a home by its registered path.
func (s *Store) GetHomeByPath(path string) (model.Home, bool, error) {
	row := s.db.QueryRow(`SELECT id, label, path, created_at, last_seen_at
		FROM home WHERE path = ?`, path)
	h, err := scanHome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Home{}, false, nil
	}
	if err != nil {
		return model.Home{}, false, err
	}
	return h, true, nil
}

// AddHome registers a new home. The path must not already be registered.
func (s *Store) AddHome(path, label string) (model.Home, error) {
	if label == "" {
		label = "Home"
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`INSERT INTO home (label, path, created_at, last_seen_at)
		VALUES (?, ?, ?, ?)`, label, path, now, now)
	if err != nil {
		return model.Home{}, fmt.Errorf("adding home %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Home{}, err
	}
	return s.GetHome(id)
}

// GetOrCreateHome returns the home registered at path, adding it if needed.
func (s *Store) GetOrCreateHome(path, label string) (model.Home, error) {
	if h, ok, err := s.GetHomeByPath(path); err != nil || ok {
		return h, err
	}
	h, err := s.AddHome(path, label)
	if err == nil {
		return h, nil
	}
	// Lost a race with a concurrent insert.
	if h, ok, lookupErr := s.GetHomeByPath(path); lookupErr == nil && ok {
		return h, nil
	}
	return model.Home{}, err
}

// SetActiveHome marks the home every subsequent operation defaults to.
func (s *Store) SetActiveHome(id int64) error {
	if _, err := s.GetHome(id); err != nil {
		return err
	}
	return s.SetSetting(activeHomeKey, fmt.Sprintf("%d", id))
}

// ActiveHome returns the currently selected home, if one is set.
func (s *Store) ActiveHome() (model.Home, bool, error) {
	value, err := s.Setting(activeHomeKey)
	if err != nil || value == nil {
		return model.Home{}, false, err
	}
	var id int64
	if _, err := fmt.Sscanf(*value, "%d", &id); err != nil {
		return model.Home{}, false, nil
	}
	h, err := s.GetHome(id)
	if errors.Is(err, ErrHomeNotFound) {
		return model.Home{}, false, nil
	}
	if err != nil {
		return model.Home{}, false, err
	}
	return h, true, nil
}

// EnsureActiveHome returns the active home, registering defaultPath as the
// default when none is selected yet.
func (s *Store) EnsureActiveHome(defaultPath string) (model.Home, error) {
	if h, ok, err := s.ActiveHome(); err != nil || ok {
		return h, err
	}
	h, err := s.GetOrCreateHome(defaultPath, "Default")
	if err != nil {
		return model.Home{}, err
	}
	if err := s.SetActiveHome(h.ID); err != nil {
		return model.Home{}, err
	}
	return h, nil
}

// TouchHome refreshes the home's last_seen_at marker.
func (s *Store) TouchHome(id int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec("UPDATE home SET last_seen_at = ? WHERE id = ?", now, id)
	return err
}

// DeleteHome removes a home and every event, snapshot and cursor ingested
// for it.
func (s *Store) DeleteHome(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteHomeData(tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM home WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearHomeData removes a home's ingested data but keeps the registration,
// so the next ingest rebuilds it from scratch.
func (s *Store) ClearHomeData(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteHomeData(tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteHomeData(tx *sql.Tx, id int64) error {
	for _, table := range []string{"usage_event", "message_event", "usage_limit_snapshot", "ingest_cursor"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE home_id = ?", id); err != nil {
			return err
		}
	}
	return nil
}

// CountUsageEvents returns the number of usage events stored for a home.
func (s *Store) CountUsageEvents(homeID int64) (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM usage_event WHERE home_id = ?", homeID).Scan(&n)
	return n, err
}

// CountHomes returns the number of registered homes.
func (s *Store) CountHomes() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM home").Scan(&n)
	return n, err
}
