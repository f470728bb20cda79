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
		// No rows means a fresh database.
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates the runs table.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			started_at      TEXT NOT NULL,
			repo_path       TEXT NOT NULL,
			commit_count    INTEGER NOT NULL,
			used_fallback   BOOLEAN NOT NULL,
			file_count      INTEGER NOT NULL,
			readme_status   TEXT NOT NULL,
			metadata_status TEXT NOT NULL,
			latency_ms      INTEGER NOT NULL,
			strategy        TEXT NOT NULL,
			pr_url          TEXT,
			duration_ms     INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_repo ON runs(repo_path)`,
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
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
