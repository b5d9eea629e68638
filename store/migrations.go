package store

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// migrate runs all pending migrations
func (s *Store) migrate() error {
	createMigrationsTableSQL := `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			version INTEGER NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := s.db.Exec(createMigrationsTableSQL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{
			version: 1,
			sql: `
				CREATE TABLE timeline_entries (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					sequence INTEGER NOT NULL,
					timestamp_ms INTEGER NOT NULL,
					event_type TEXT NOT NULL,
					from_state TEXT NOT NULL,
					to_state TEXT NOT NULL,
					actions TEXT NOT NULL DEFAULT '[]',
					data TEXT NOT NULL DEFAULT '',
					recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
		{
			version: 2,
			sql: `
				CREATE INDEX idx_timeline_entries_sequence ON timeline_entries(sequence);
				CREATE INDEX idx_timeline_entries_event_type ON timeline_entries(event_type);
			`,
		},
	}

	for _, mig := range migrations {
		if mig.version > currentVersion {
			logrus.WithFields(logrus.Fields{
				"function": "migrate",
				"version":  mig.version,
			}).Debug("Running migration")

			if err := s.runMigration(mig.version, mig.sql); err != nil {
				return fmt.Errorf("failed to run migration %d: %w", mig.version, err)
			}
		}
	}

	return nil
}

// runMigration executes a migration and records it
func (s *Store) runMigration(version int, sql string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(sql); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}
	return nil
}
