package protocol

// SchemaDDL defines the SQLite schema for the pulse hub's event log.
// Tables: events, sessions.
// Execute against a SQLite database with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- Append-only status event log: every event accepted by the hub
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY,
    kind TEXT NOT NULL,
    entity_id TEXT,
    session_id TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS events_entity_idx ON events(entity_id, id);
CREATE INDEX IF NOT EXISTS events_kind_idx ON events(kind, id);

-- Hub lifetime tracking: one row per hub process
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL DEFAULT (datetime('now')),
    stopped_at TEXT
);
`
