package store

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stations (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    type TEXT NOT NULL,
    admin_user_id TEXT NOT NULL,
    is_ready INTEGER NOT NULL DEFAULT 0,
    last_status_update INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS readiness_submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    station_id TEXT NOT NULL REFERENCES stations(id),
    submitted_by TEXT NOT NULL,
    status TEXT NOT NULL,
    percentage INTEGER NOT NULL,
    checklist TEXT,
    submitted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_station
    ON readiness_submissions(station_id, submitted_at DESC, id DESC);
CREATE TABLE IF NOT EXISTS incidents (
    alarm_id TEXT PRIMARY KEY,
    reporter_id TEXT NOT NULL,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    initial_alarm_level TEXT NOT NULL,
    current_alarm_level TEXT NOT NULL,
    status TEXT NOT NULL,
    call_time INTEGER NOT NULL,
    dispatch_time INTEGER NOT NULL DEFAULT 0,
    resolve_time INTEGER NOT NULL DEFAULT 0,
    dispatched_station_id TEXT NOT NULL,
    dispatched_truck_id TEXT NOT NULL DEFAULT '',
    details TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS response_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    alarm_id TEXT NOT NULL REFERENCES incidents(alarm_id),
    action_type TEXT NOT NULL,
    details TEXT NOT NULL,
    performed_by TEXT NOT NULL DEFAULT '',
    at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_response_log_alarm ON response_log(alarm_id);
`

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// the driver opens one connection per statement otherwise, which breaks
	// in-memory databases
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db, rebind: passthrough}, nil
}
