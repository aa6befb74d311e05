package store

type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{name: "0001_init", sql: migration0001},
	{name: "0002_cursor_parse_state", sql: migration0002},
}

const migration0001 = `
CREATE TABLE IF NOT EXISTS home (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  label TEXT NOT NULL,
  path TEXT NOT NULL UNIQUE,
  created_at TEXT NOT NULL,
  last_seen_at TEXT
);

CREATE TABLE IF NOT EXISTS app_setting (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_event (
  home_id INTEGER NOT NULL,
  id TEXT NOT NULL,
  ts TEXT NOT NULL,
  model TEXT NOT NULL,
  input_tokens INTEGER NOT NULL,
  cached_input_tokens INTEGER NOT NULL,
  output_tokens INTEGER NOT NULL,
  reasoning_output_tokens INTEGER NOT NULL,
  total_tokens INTEGER NOT NULL,
  context_used INTEGER NOT NULL,
  context_window INTEGER NOT NULL,
  cost_usd REAL,
  reasoning_effort TEXT,
  source TEXT NOT NULL,
  session_id TEXT NOT NULL,
  request_id TEXT,
  raw_json TEXT NOT NULL,
  PRIMARY KEY (home_id, id)
);
CREATE INDEX IF NOT EXISTS idx_usage_event_home_ts ON usage_event (home_id, ts);
CREATE INDEX IF NOT EXISTS idx_usage_event_home_session_ts ON usage_event (home_id, session_id, ts);
CREATE INDEX IF NOT EXISTS idx_usage_event_home_model_effort ON usage_event (home_id, model, reasoning_effort, ts);
CREATE INDEX IF NOT EXISTS idx_usage_event_home_source_ts ON usage_event (home_id, source, ts);

CREATE TABLE IF NOT EXISTS message_event (
  home_id INTEGER NOT NULL,
  id TEXT NOT NULL,
  ts TEXT NOT NULL,
  role TEXT NOT NULL,
  source TEXT NOT NULL,
  session_id TEXT NOT NULL,
  raw_json TEXT NOT NULL,
  PRIMARY KEY (home_id, id)
);
CREATE INDEX IF NOT EXISTS idx_message_event_home_ts ON message_event (home_id, ts);
CREATE INDEX IF NOT EXISTS idx_message_event_home_role_ts ON message_event (home_id, role, ts);

CREATE TABLE IF NOT EXISTS usage_limit_snapshot (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  home_id INTEGER NOT NULL,
  ts TEXT NOT NULL,
  limit_type TEXT NOT NULL,
  percent_left REAL NOT NULL,
  reset_at TEXT NOT NULL,
  source TEXT NOT NULL,
  raw_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_limit_snapshot_home_type_ts ON usage_limit_snapshot (home_id, limit_type, ts);
CREATE INDEX IF NOT EXISTS idx_limit_snapshot_home_type_reset ON usage_limit_snapshot (home_id, limit_type, reset_at);

CREATE TABLE IF NOT EXISTS ingest_cursor (
  home_id INTEGER NOT NULL,
  file_path TEXT NOT NULL,
  inode INTEGER,
  mtime TEXT,
  byte_offset INTEGER NOT NULL DEFAULT 0,
  last_event_key TEXT,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (home_id, file_path)
);

CREATE TABLE IF NOT EXISTS pricing_rule (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  model_pattern TEXT NOT NULL,
  input_per_1m REAL NOT NULL,
  cached_input_per_1m REAL NOT NULL,
  output_per_1m REAL NOT NULL,
  effective_from TEXT NOT NULL,
  effective_to TEXT
);
CREATE INDEX IF NOT EXISTS idx_pricing_rule_pattern ON pricing_rule (model_pattern, effective_from);
`

// Resumed reads need the parse state the previous run ended on: the sticky
// model/effort and the cumulative totals used to turn the next cumulative
// reading into a delta.
const migration0002 = `
ALTER TABLE ingest_cursor ADD COLUMN last_model TEXT;
ALTER TABLE ingest_cursor ADD COLUMN last_effort TEXT;
ALTER TABLE ingest_cursor ADD COLUMN seed_input_tokens INTEGER NOT NULL DEFAULT 0;
ALTER TABLE ingest_cursor ADD COLUMN seed_cached_input_tokens INTEGER NOT NULL DEFAULT 0;
ALTER TABLE ingest_cursor ADD COLUMN seed_output_tokens INTEGER NOT NULL DEFAULT 0;
ALTER TABLE ingest_cursor ADD COLUMN seed_reasoning_output_tokens INTEGER NOT NULL DEFAULT 0;
ALTER TABLE ingest_cursor ADD COLUMN seed_total_tokens INTEGER NOT NULL DEFAULT 0;
`
