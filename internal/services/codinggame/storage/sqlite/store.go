// Package sqlite provides SQLite-backed persistence: an append-only event log
// and the local desktop state (settings, app grid) the engine manipulates.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/codinggame/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/codinggame/internal/services/codinggame/storage/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// toMillis rounds up to the next whole millisecond so a resumed wait never
// starts earlier than its recorded start.
func toMillis(value time.Time) int64 {
	ms := value.UnixMilli()
	if value.Nanosecond()%int(time.Millisecond) != 0 {
		ms++
	}
	return ms
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store wraps one SQLite database.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// OpenLog opens a SQLite event log at path.
func OpenLog(ctx context.Context, path string) (*Store, error) {
	return openStore(ctx, path, migrations.LogFS, "log")
}

// OpenDesktop opens the SQLite settings and app grid store at path.
func OpenDesktop(ctx context.Context, path string) (*Store, error) {
	return openStore(ctx, path, migrations.DesktopFS, "desktop")
}

// Close closes the underlying database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func openStore(ctx context.Context, path string, migrationFS fs.FS, migrationRoot string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrationFS, migrationRoot); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}
