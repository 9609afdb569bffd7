package migrations

import (
	"database/sql"
	"fmt"
)

// MigrateDetectedIndex adds the detected index used by List ordering.
func MigrateDetectedIndex(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_safe_migrations_detected ON safe_migrations(detected)`)
	if err != nil {
		return fmt.Errorf("failed to create detected index: %w", err)
	}
	return nil
}
