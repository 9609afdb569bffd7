// Package sqlite implements the detection store using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	// Import SQLite driver
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/safemigrate/safemigrate/internal/storage"
	"github.com/safemigrate/safemigrate/internal/storage/sqlite/migrations"
	"github.com/safemigrate/safemigrate/internal/types"
)

// Store implements storage.DetectionStore using SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
	closed atomic.Bool
}

var _ storage.DetectionStore = (*Store)(nil)

// New opens (creating if needed) a SQLite detection store at path.
// ":memory:" opens a private in-memory database, used by tests.
func New(ctx context.Context, path string) (*Store, error) {
	var connStr string
	if path == ":memory:" {
		// In-memory databases are per-connection; force a single
		// connection below so every query sees the same data.
		connStr = "file::memory:?_pragma=busy_timeout(10000)&_time_format=sqlite"
	} else if strings.HasPrefix(path, "file:") {
		connStr = path
		if !strings.Contains(path, "_pragma=busy_timeout") {
			sep := "?"
			if strings.Contains(path, "?") {
				sep = "&"
			}
			connStr += sep + "_pragma=busy_timeout(10000)&_time_format=sqlite"
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		connStr = "file:" + path + "?_pragma=busy_timeout(10000)&_time_format=sqlite"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" || strings.Contains(connStr, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db, dbPath: path}, nil
}

// Lookup returns detection timestamps for the identities that have
// records. Identities are matched on the concatenated "app.name" key,
// so a single IN clause covers the whole batch.
func (s *Store) Lookup(ctx context.Context, ids []types.Identity) (map[types.Identity]time.Time, error) {
	if len(ids) == 0 {
		return map[types.Identity]time.Time{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id.String()
	}

	// #nosec G201 -- placeholders are "?" literals, not user input
	query := fmt.Sprintf(`
		SELECT app, name, detected
		FROM safe_migrations
		WHERE app || '.' || name IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up detections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	detected := make(map[types.Identity]time.Time)
	for rows.Next() {
		var app, name string
		var seen time.Time
		if err := rows.Scan(&app, &name, &seen); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detected[types.Identity{App: app, Name: name}] = seen
	}

	return detected, rows.Err()
}

// CreateIfAbsent records now as the first-seen time for id, keeping an
// existing record untouched. Transient lock contention is retried with
// backoff; conflicting writers for the same identity both succeed and
// the earlier record wins.
func (s *Store) CreateIfAbsent(ctx context.Context, id types.Identity, now time.Time) error {
	insert := func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO safe_migrations (app, name, detected)
			VALUES (?, ?, ?)
			ON CONFLICT(app, name) DO NOTHING
		`, id.App, id.Name, now.UTC())
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(insert, policy); err != nil {
		return fmt.Errorf("failed to record detection for %s: %w", id, err)
	}
	return nil
}

// List returns every detection record, oldest first.
func (s *Store) List(ctx context.Context) ([]types.DetectionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT app, name, detected
		FROM safe_migrations
		ORDER BY detected ASC, app ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []types.DetectionRecord
	for rows.Next() {
		var rec types.DetectionRecord
		if err := rows.Scan(&rec.Identity.App, &rec.Identity.Name, &rec.Detected); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Get returns the detection record for a single identity, or
// storage.ErrNotFound if none exists.
func (s *Store) Get(ctx context.Context, id types.Identity) (*types.DetectionRecord, error) {
	rec := &types.DetectionRecord{Identity: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT detected FROM safe_migrations WHERE app = ? AND name = ?
	`, id.App, id.Name).Scan(&rec.Detected)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("detection for %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detection for %s: %w", id, err)
	}
	return rec, nil
}

// Close closes the underlying database. Safe to call more than once.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
