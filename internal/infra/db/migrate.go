package db

import (
	"database/sql"
)

// schema is applied in order by MigrateUp. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS destinations (
    id              BIGSERIAL PRIMARY KEY,
    grouping_label  VARCHAR(30) NOT NULL,
    display_label   VARCHAR(20) NOT NULL,
    endpoint_url    TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS channels (
    id               BIGSERIAL PRIMARY KEY,
    destination_id   BIGINT NOT NULL REFERENCES destinations(id),
    external_id      TEXT NOT NULL UNIQUE,
    external_handle  VARCHAR(30) NOT NULL UNIQUE,
    display_name     TEXT NOT NULL,
    last_checked_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	// 外部キー参照と宛先別一覧用
	`CREATE INDEX IF NOT EXISTS idx_channels_destination_id ON channels(destination_id)`,
	`CREATE OR REPLACE FUNCTION set_updated_at() RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS trg_destinations_updated_at ON destinations`,
	`CREATE TRIGGER trg_destinations_updated_at BEFORE UPDATE ON destinations
    FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,
	`DROP TRIGGER IF EXISTS trg_channels_updated_at ON channels`,
	`CREATE TRIGGER trg_channels_updated_at BEFORE UPDATE ON channels
    FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,
}

// MigrateUp creates the destinations and channels tables, their indexes
// and the updated_at triggers.
func MigrateUp(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// MigrateDown drops everything MigrateUp created, dependents first.
// All registered destinations and channels are lost.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS channels CASCADE`,
		`DROP TABLE IF EXISTS destinations CASCADE`,
		`DROP FUNCTION IF EXISTS set_updated_at()`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
