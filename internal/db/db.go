// Package db is the sqlite lead store. It holds the combined lead table
// of each processing run and the outcome of every upload attempt, so the
// table can be inspected between the normalize and upload phases.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/hpungsan/leadsync/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// FileName is the database file inside the base directory.
const FileName = "leads.db"

// Init initializes the SQLite database at baseDir/leads.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.leadsync.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, eris.Wrap(err, "failed to create base directory")
	}
	// best-effort, may not work on all platforms
	_ = os.Chmod(baseDir, 0700)

	// Pragmas in the connection string apply to every pooled connection.
	dbPath := filepath.Join(baseDir, FileName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open database")
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: runs, leads, uploads
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS runs (
		  id           TEXT PRIMARY KEY,
		  created_at   INTEGER NOT NULL,
		  files        INTEGER NOT NULL,
		  files_failed INTEGER NOT NULL,
		  processed    INTEGER NOT NULL,
		  duplicates   INTEGER NOT NULL,
		  invalid      INTEGER NOT NULL,
		  kept         INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created
		ON runs(created_at DESC);

		CREATE TABLE IF NOT EXISTS leads (
		  run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		  position        INTEGER NOT NULL,
		  name            TEXT NOT NULL,
		  first_name      TEXT,
		  last_name       TEXT,
		  title           TEXT,
		  company         TEXT,
		  email           TEXT,
		  phone           TEXT,
		  source          TEXT,
		  industry        TEXT,
		  estimated_value INTEGER NOT NULL,
		  extra_json      TEXT,
		  PRIMARY KEY (run_id, position)
		);

		CREATE TABLE IF NOT EXISTS uploads (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		  position   INTEGER NOT NULL,
		  list_id    TEXT NOT NULL,
		  task_id    TEXT,
		  status     TEXT NOT NULL,
		  error      TEXT,
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_uploads_run
		ON uploads(run_id, position);
		`
		if _, err := db.Exec(schema); err != nil {
			return eris.Wrap(err, "migration 1 failed")
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return eris.Wrap(err, "failed to verify journal mode")
	}
	if journalMode != "wal" {
		return eris.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, eris.Wrap(err, "failed to get user_version")
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return eris.Wrap(err, "failed to set user_version")
	}
	return nil
}
