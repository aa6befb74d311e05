package store

import (
	"database/sql"
	"errors"
	"strconv"
)

const defaultActiveMinutes = 60

// Setting returns the stored value for key, or nil when unset.
func (s *Store) Setting(key string) (*string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM app_setting WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// SetSetting stores or replaces a setting.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO app_setting (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// ContextActiveMinutes returns how far back a session may have last been
// seen and still count as active.
func (s *Store) ContextActiveMinutes() (int, error) {
	value, err := s.Setting("context_active_minutes")
	if err != nil {
		return 0, err
	}
	if value == nil {
		return defaultActiveMinutes, nil
	}
	minutes, err := strconv.Atoi(*value)
	if err != nil || minutes <= 0 {
		return defaultActiveMinutes, nil
	}
	return minutes, nil
}

// SetContextActiveMinutes stores the active session window.
func (s *Store) SetContextActiveMinutes(minutes int) error {
	return s.SetSetting("context_active_minutes", strconv.Itoa(minutes))
}
