// Package sqlite implementa el key-value store persistente del cache sobre SQLite (sin cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"

	"herd-marketplace/internal/cache"

	_ "modernc.org/sqlite"
)

var (
	ErrOpenFailed   = zerr.New("failed to open kv store")
	ErrSchemaFailed = zerr.New("failed to setup kv schema")
	ErrReadFailed   = zerr.New("failed to read kv entry")
	ErrWriteFailed  = zerr.New("failed to write kv entry")
	ErrDeleteFailed = zerr.New("failed to delete kv entries")
)

// KVStore implementa cache.Store con una tabla (key, value).
type KVStore struct {
	db   *sql.DB
	path string
}

var _ cache.Store = (*KVStore)(nil)

// Open abre (o crea) la base en path. ":memory:" sirve para tests.
func Open(path string) (*KVStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrOpenFailed)
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}
	// ":memory:" es por conexión; una sola conexión mantiene los datos.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_entries (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrSchemaFailed, err)
	}

	return &KVStore{db: db, path: path}, nil
}

func (s *KVStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: key %q: %w", ErrReadFailed, key, err)
	}
	return v, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: key %q: %w", ErrWriteFailed, key, err)
	}
	return nil
}

func (s *KVStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: key %q: %w", ErrDeleteFailed, key, err)
	}
	return nil
}

func (s *KVStore) RemoveMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op después de Commit

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM kv_entries WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	defer stmt.Close()

	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k); err != nil {
			return fmt.Errorf("%w: key %q: %w", ErrDeleteFailed, k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	return nil
}

func (s *KVStore) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv_entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
