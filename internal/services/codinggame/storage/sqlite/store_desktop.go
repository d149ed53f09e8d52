package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Setting returns the stored value of schema/key, or JSON null when the
// setting holds its default.
func (s *Store) Setting(ctx context.Context, schema, key string) (json.RawMessage, error) {
	var value string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE schema_id = ? AND key = ?`, schema, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return json.RawMessage("null"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %s %s: %w", schema, key, err)
	}
	return json.RawMessage(value), nil
}

// SetSetting stores value for schema/key.
func (s *Store) SetSetting(ctx context.Context, schema, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("set setting %s %s: value is not valid JSON", schema, key)
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO settings (schema_id, key, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (schema_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		schema, key, string(value), toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("set setting %s %s: %w", schema, key, err)
	}
	return nil
}

// ResetSetting restores schema/key to its default.
func (s *Store) ResetSetting(ctx context.Context, schema, key string) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM settings WHERE schema_id = ? AND key = ?`, schema, key,
	); err != nil {
		return fmt.Errorf("reset setting %s %s: %w", schema, key, err)
	}
	return nil
}

// AddApplication places app on the grid.
func (s *Store) AddApplication(ctx context.Context, app string) error {
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO app_grid (app, added_at) VALUES (?, ?) ON CONFLICT (app) DO NOTHING`,
		app, toMillis(s.now()),
	); err != nil {
		return fmt.Errorf("add application %s: %w", app, err)
	}
	return nil
}

// RemoveApplication takes app off the grid.
func (s *Store) RemoveApplication(ctx context.Context, app string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM app_grid WHERE app = ?`, app); err != nil {
		return fmt.Errorf("remove application %s: %w", app, err)
	}
	return nil
}

// Applications lists the apps on the grid in the order they were added.
func (s *Store) Applications(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT app FROM app_grid ORDER BY added_at, app`)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()
	var apps []string
	for rows.Next() {
		var app string
		if err := rows.Scan(&app); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
