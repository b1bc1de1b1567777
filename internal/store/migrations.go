package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates the record, usage and transcript tables. The DDL is
// shared by sqlite and postgres, so dates and timestamps are stored as
// ISO-8601 text.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS daily_records (
			id                 TEXT PRIMARY KEY,
			user_id            TEXT NOT NULL,
			record_date        TEXT NOT NULL,
			record_time        TEXT NOT NULL,
			meal_type          TEXT,
			food_items         TEXT,
			food_notes         TEXT,
			exercise_type      TEXT,
			exercise_duration  INTEGER,
			exercise_intensity TEXT,
			sleep_duration     REAL,
			sleep_quality      INTEGER,
			sleep_notes        TEXT,
			itch_level         INTEGER NOT NULL,
			affected_areas     TEXT,
			mood               TEXT NOT NULL,
			symptom_notes      TEXT,
			voice_input        TEXT,
			created_at         TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS api_usage (
			user_id      TEXT NOT NULL,
			usage_date   TEXT NOT NULL,
			usage_count  INTEGER NOT NULL DEFAULT 0,
			last_used_at TEXT NOT NULL,
			PRIMARY KEY (user_id, usage_date)
		)`,

		`CREATE TABLE IF NOT EXISTS ai_insights (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			analysis_date TEXT NOT NULL,
			insights      TEXT NOT NULL,
			created_at    TEXT NOT NULL
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_daily_records_user_date ON daily_records(user_id, record_date)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_insights_user ON ai_insights(user_id, analysis_date)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec(db.rebind("INSERT INTO schema_version (version) VALUES (?)"), currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
