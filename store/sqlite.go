// Package store persists timeline entries in SQLite for postmortem analysis.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/opd-ai/filenode/timeline"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence of timeline entries. It
// implements interfaces.EntryRecorder.
type Store struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "store.New",
		"path":     dbPath,
	}).Info("Timeline store initialized")
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// RecordEntry inserts one timeline entry.
func (s *Store) RecordEntry(ctx context.Context, entry timeline.Entry) error {
	const query = `
		INSERT INTO timeline_entries (
			sequence, timestamp_ms, event_type, from_state, to_state, actions, data
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	actions, err := json.Marshal(entry.ActionsProduced)
	if err != nil {
		return fmt.Errorf("failed to encode actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, query,
		int64(entry.Sequence), entry.Timestamp, entry.EventType,
		entry.FromState, entry.ToState, string(actions), entry.Data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert timeline entry %d: %w", entry.Sequence, err)
	}
	return nil
}

// ListEntries returns up to limit entries with a sequence greater than
// afterSequence, in sequence order. A non-positive limit returns all of them.
func (s *Store) ListEntries(ctx context.Context, afterSequence uint64, limit int) ([]timeline.Entry, error) {
	query := `
		SELECT sequence, timestamp_ms, event_type, from_state, to_state, actions, data
		FROM timeline_entries
		WHERE sequence > ?
		ORDER BY sequence ASC, id ASC
	`
	args := []any{int64(afterSequence)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline entries: %w", err)
	}
	defer rows.Close()

	var entries []timeline.Entry
	for rows.Next() {
		var (
			e       timeline.Entry
			seq     int64
			actions string
		)
		if err := rows.Scan(&seq, &e.Timestamp, &e.EventType, &e.FromState, &e.ToState, &actions, &e.Data); err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		e.Sequence = uint64(seq)
		if err := json.Unmarshal([]byte(actions), &e.ActionsProduced); err != nil {
			return nil, fmt.Errorf("failed to decode actions of entry %d: %w", seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timeline entries: %w", err)
	}
	return entries, nil
}

// MaxSequence returns the highest stored sequence number, or zero for an
// empty store. A new timeline started after it keeps the stored trace ordered.
func (s *Store) MaxSequence(ctx context.Context) (uint64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(sequence), 0) FROM timeline_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to get max timeline sequence: %w", err)
	}
	return uint64(n), nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM timeline_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count timeline entries: %w", err)
	}
	return n, nil
}

// Prune deletes entries with a sequence at or below upToSequence and returns
// the number removed.
func (s *Store) Prune(ctx context.Context, upToSequence uint64) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM timeline_entries WHERE sequence <= ?", int64(upToSequence))
	if err != nil {
		return 0, fmt.Errorf("failed to prune timeline entries: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
