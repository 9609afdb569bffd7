// Package mysql implements the detection store on MySQL, for teams
// that share one detection database across deploy runners.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/safemigrate/safemigrate/internal/storage"
	"github.com/safemigrate/safemigrate/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS safe_migrations (
    app VARCHAR(255) NOT NULL,
    name VARCHAR(255) NOT NULL,
    created DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
    detected DATETIME(6) NOT NULL,
    PRIMARY KEY (app, name),
    KEY idx_safe_migrations_detected (detected)
)`

// Store implements storage.DetectionStore using MySQL.
type Store struct {
	db *sql.DB
}

var _ storage.DetectionStore = (*Store)(nil)

// New opens a MySQL detection store. The DSN is the usual
// go-sql-driver form; parseTime is forced on so detected timestamps
// scan as time.Time.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Lookup returns detection timestamps for the identities that have records.
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
		WHERE CONCAT(app, '.', name) IN (%s)
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

// CreateIfAbsent records now as the first-seen time for id. INSERT
// IGNORE makes racing runners safe: the earliest insert wins and later
// ones are no-ops.
func (s *Store) CreateIfAbsent(ctx context.Context, id types.Identity, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT IGNORE INTO safe_migrations (app, name, detected)
		VALUES (?, ?, ?)
	`, id.App, id.Name, now.UTC())
	if err != nil {
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

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
