package migrations

import (
	"database/sql"
	"fmt"
)

// MigrateCreatedColumn adds the created column to the safe_migrations
// table. Early databases only carried the detected timestamp; created
// records when the row itself was inserted, which can differ when a
// store is rebuilt from another runner's records.
func MigrateCreatedColumn(db *sql.DB) error {
	var columnExists bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM pragma_table_info('safe_migrations')
		WHERE name = 'created'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check created column: %w", err)
	}

	if columnExists {
		return nil
	}

	// SQLite cannot ALTER TABLE with a non-constant default, so add the
	// column bare and backfill from detected.
	_, err = db.Exec(`ALTER TABLE safe_migrations ADD COLUMN created DATETIME`)
	if err != nil {
		return fmt.Errorf("failed to add created column: %w", err)
	}

	_, err = db.Exec(`UPDATE safe_migrations SET created = detected WHERE created IS NULL`)
	if err != nil {
		return fmt.Errorf("failed to backfill created column: %w", err)
	}

	return nil
}
