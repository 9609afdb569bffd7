// Package factory opens the configured detection store backend.
package factory

import (
	"context"
	"fmt"

	"github.com/safemigrate/safemigrate/internal/storage"
	"github.com/safemigrate/safemigrate/internal/storage/mysql"
	"github.com/safemigrate/safemigrate/internal/storage/sqlite"
)

// Open returns the detection store for the given driver. sqlite takes
// a filesystem path (or ":memory:"), mysql a go-sql-driver DSN.
func Open(ctx context.Context, driver, target string) (storage.DetectionStore, error) {
	switch driver {
	case "", "sqlite", "sqlite3":
		return sqlite.New(ctx, target)
	case "mysql":
		return mysql.New(ctx, target)
	default:
		return nil, fmt.Errorf("unknown detection store driver %q: must be \"sqlite\" or \"mysql\"", driver)
	}
}
