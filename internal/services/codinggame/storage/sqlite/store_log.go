package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
	"github.com/louisbranch/codinggame/internal/services/codinggame/storage"
)

var _ storage.Store = (*Store)(nil)

// Load returns every entry in sequence order.
func (s *Store) Load(ctx context.Context) ([]eventlog.Entry, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT type, name, data, timestamp FROM log_entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	var entries []eventlog.Entry
	for rows.Next() {
		var (
			eventType string
			name      string
			data      sql.NullString
			ts        int64
		)
		if err := rows.Scan(&eventType, &name, &data, &ts); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entry := eventlog.Entry{Type: timeline.EventType(eventType), Name: name, Timestamp: fromMillis(ts)}
		if data.Valid && data.String != "" {
			if !json.Valid([]byte(data.String)) {
				return nil, fmt.Errorf("%w: entry %q has invalid data", storage.ErrCorrupt, name)
			}
			entry.Data = json.RawMessage(data.String)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read log entries: %w", err)
	}
	return entries, nil
}

// Save appends the entries not yet stored. When the stored sequence is longer
// than entries the table is rewritten.
func (s *Store) Save(ctx context.Context, entries []eventlog.Entry) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM log_entries`).Scan(&stored); err != nil {
		return fmt.Errorf("count log entries: %w", err)
	}
	if stored > len(entries) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM log_entries`); err != nil {
			return fmt.Errorf("clear log entries: %w", err)
		}
		stored = 0
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO log_entries (seq, type, name, data, timestamp) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := stored; i < len(entries); i++ {
		e := entries[i]
		var data sql.NullString
		if len(e.Data) > 0 {
			data = sql.NullString{String: string(e.Data), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i+1, string(e.Type), e.Name, data, toMillis(e.Timestamp)); err != nil {
			return fmt.Errorf("insert log entry %q: %w", e.Name, err)
		}
	}
	return tx.Commit()
}

// Reset deletes every entry.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM log_entries`); err != nil {
		return fmt.Errorf("reset log entries: %w", err)
	}
	return nil
}
