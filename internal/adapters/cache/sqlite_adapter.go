package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/plantmd/backend/internal/domain/providers"
)

// SQLiteAdapter is a CacheProvider backed by a local SQLite file. The
// diagnose CLI uses it so sessions survive between invocations on one
// device, mirroring what browser-local storage does for the web client.
type SQLiteAdapter struct {
	db *sql.DB
}

var _ providers.CacheProvider = (*SQLiteAdapter)(nil)

// NewSQLiteAdapter opens (or creates) the cache database at path.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	a := &SQLiteAdapter{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache database: %w", err)
	}
	return a, nil
}

// Close closes the underlying database.
func (a *SQLiteAdapter) Close() error {
	return a.db.Close()
}

func (a *SQLiteAdapter) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Get retrieves a value from cache
func (a *SQLiteAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt int64
	err := a.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM cache_entries WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	if expiresAt > 0 && time.Now().UnixMilli() > expiresAt {
		_, _ = a.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
		return nil, fmt.Errorf("key not found: %s", key)
	}

	return value, nil
}

// Set stores a value in cache with expiration
func (a *SQLiteAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixMilli()
	}

	_, err := a.db.ExecContext(ctx,
		"INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at",
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes a value from cache
func (a *SQLiteAdapter) Delete(ctx context.Context, key string) error {
	if _, err := a.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Keys lists stored keys matching a prefix
func (a *SQLiteAdapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := strings.ReplaceAll(strings.ReplaceAll(prefix, "%", `\%`), "_", `\_`) + "%"
	rows, err := a.db.QueryContext(ctx,
		`SELECT key FROM cache_entries WHERE key LIKE ? ESCAPE '\'`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan cache key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
