package store

import (
	"database/sql"
	"errors"

	"github.com/theirongolddev/cxburn/internal/model"
)

const cursorColumns = `home_id, file_path, inode, mtime, byte_offset, last_event_key,
	updated_at, last_model, last_effort,
	seed_input_tokens, seed_cached_input_tokens, seed_output_tokens,
	seed_reasoning_output_tokens, seed_total_tokens`

// GetCursor loads the ingest cursor for one file, if a previous run left
// one.
func (s *Store) GetCursor(homeID int64, filePath string) (model.Cursor, bool, error) {
	row := s.db.QueryRow(`SELECT `+cursorColumns+`
		FROM ingest_cursor WHERE home_id = ? AND file_path = ?`, homeID, filePath)

	var c model.Cursor
	var inode sql.NullInt64
	var mtime, lastKey, lastModel, lastEffort sql.NullString
	err := row.Scan(&c.HomeID, &c.FilePath, &inode, &mtime, &c.ByteOffset, &lastKey,
		&c.UpdatedAt, &lastModel, &lastEffort,
		&c.SeedTotals.Input, &c.SeedTotals.CachedInput, &c.SeedTotals.Output,
		&c.SeedTotals.ReasoningOutput, &c.SeedTotals.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Cursor{}, false, nil
	}
	if err != nil {
		return model.Cursor{}, false, err
	}
	if inode.Valid {
		ino := uint64(inode.Int64)
		c.Inode = &ino
	}
	c.Mtime = strFromNull(mtime)
	c.LastEventKey = strFromNull(lastKey)
	c.SeedModel = strFromNull(lastModel)
	c.SeedEffort = strFromNull(lastEffort)
	return c, true, nil
}

func upsertCursor(tx *sql.Tx, c model.Cursor) error {
	var inode any
	if c.Inode != nil {
		inode = int64(*c.Inode)
	}
	_, err := tx.Exec(`INSERT INTO ingest_cursor (`+cursorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(home_id, file_path) DO UPDATE SET
		  inode = excluded.inode,
		  mtime = excluded.mtime,
		  byte_offset = excluded.byte_offset,
		  last_event_key = excluded.last_event_key,
		  updated_at = excluded.updated_at,
		  last_model = excluded.last_model,
		  last_effort = excluded.last_effort,
		  seed_input_tokens = excluded.seed_input_tokens,
		  seed_cached_input_tokens = excluded.seed_cached_input_tokens,
		  seed_output_tokens = excluded.seed_output_tokens,
		  seed_reasoning_output_tokens = excluded.seed_reasoning_output_tokens,
		  seed_total_tokens = excluded.seed_total_tokens`,
		c.HomeID, c.FilePath, inode, nullStr(c.Mtime), c.ByteOffset, nullStr(c.LastEventKey),
		c.UpdatedAt, nullStr(c.SeedModel), nullStr(c.SeedEffort),
		c.SeedTotals.Input, c.SeedTotals.CachedInput, c.SeedTotals.Output,
		c.SeedTotals.ReasoningOutput, c.SeedTotals.Total)
	return err
}

// UpsertCursor stores a cursor outside an ingest batch.
func (s *Store) UpsertCursor(c model.Cursor) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := upsertCursor(tx, c); err != nil {
		return err
	}
	return tx.Commit()
}

// CountCursors returns the number of tracked files for a home.
func (s *Store) CountCursors(homeID int64) (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM ingest_cursor WHERE home_id = ?", homeID).Scan(&n)
	return n, err
}
