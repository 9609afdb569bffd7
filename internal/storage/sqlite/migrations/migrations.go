// Package migrations contains idempotent schema migrations for the
// SQLite detection store. Each migration checks whether its change has
// already been applied, so databases created from any earlier schema
// revision converge on the current one.
package migrations

import (
	"database/sql"
	"fmt"
)

// Run applies all schema migrations in order.
func Run(db *sql.DB) error {
	steps := []struct {
		name string
		fn   func(*sql.DB) error
	}{
		{"created column", MigrateCreatedColumn},
		{"detected index", MigrateDetectedIndex},
	}

	for _, step := range steps {
		if err := step.fn(db); err != nil {
			return fmt.Errorf("migration %q: %w", step.name, err)
		}
	}
	return nil
}
