package store

import (
	"database/sql"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS stations (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    type TEXT NOT NULL,
    admin_user_id TEXT NOT NULL,
    is_ready BOOLEAN NOT NULL DEFAULT FALSE,
    last_status_update BIGINT NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS readiness_submissions (
    id BIGSERIAL PRIMARY KEY,
    station_id TEXT NOT NULL REFERENCES stations(id),
    submitted_by TEXT NOT NULL,
    status TEXT NOT NULL,
    percentage INTEGER NOT NULL,
    checklist TEXT,
    submitted_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_station
    ON readiness_submissions(station_id, submitted_at DESC, id DESC);
CREATE TABLE IF NOT EXISTS incidents (
    alarm_id TEXT PRIMARY KEY,
    reporter_id TEXT NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    initial_alarm_level TEXT NOT NULL,
    current_alarm_level TEXT NOT NULL,
    status TEXT NOT NULL,
    call_time BIGINT NOT NULL,
    dispatch_time BIGINT NOT NULL DEFAULT 0,
    resolve_time BIGINT NOT NULL DEFAULT 0,
    dispatched_station_id TEXT NOT NULL,
    dispatched_truck_id TEXT NOT NULL DEFAULT '',
    details TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS response_log (
    id BIGSERIAL PRIMARY KEY,
    alarm_id TEXT NOT NULL REFERENCES incidents(alarm_id),
    action_type TEXT NOT NULL,
    details TEXT NOT NULL,
    performed_by TEXT NOT NULL DEFAULT '',
    at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_response_log_alarm ON response_log(alarm_id);
`

// NewPostgresStore connects using a lib/pq DSN and ensures schema.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db, rebind: rebindDollar}, nil
}
