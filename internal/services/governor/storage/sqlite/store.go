// Package sqlite provides a SQLite-backed governor storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/arywk40-hue/budget-governor/internal/platform/storage/sqlitemigrate"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/storage"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists governor records in SQLite.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

// Open opens a SQLite governor store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, clock: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get returns the stored value for key or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key storage.Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT record_value FROM governor_records WHERE record_key = ?`,
		string(key),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get %s record: %w", key, err)
	}
	return value, nil
}

// Set upserts every entry inside one transaction.
func (s *Store) Set(ctx context.Context, entries ...storage.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateEntries(entries); err != nil {
		return err
	}

	now := time.Now().UTC()
	if s.clock != nil {
		now = s.clock().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, entry := range entries {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO governor_records (record_key, record_value, updated_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT(record_key) DO UPDATE SET
			   record_value = excluded.record_value,
			   updated_at = excluded.updated_at`,
			string(entry.Key),
			entry.Value,
			now.UnixMilli(),
		); err != nil {
			return fmt.Errorf("put %s record: %w", entry.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record transaction: %w", err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
