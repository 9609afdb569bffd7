package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openOldSchema(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// The pre-created-column schema revision.
	_, err = db.Exec(`
		CREATE TABLE safe_migrations (
			app TEXT NOT NULL,
			name TEXT NOT NULL,
			detected DATETIME NOT NULL,
			PRIMARY KEY (app, name)
		)
	`)
	require.NoError(t, err)
	return db
}

func TestMigrateCreatedColumnBackfills(t *testing.T) {
	db := openOldSchema(t)

	_, err := db.Exec(`INSERT INTO safe_migrations (app, name, detected) VALUES ('accounts', '0001_initial', '2025-01-02 03:04:05')`)
	require.NoError(t, err)

	require.NoError(t, MigrateCreatedColumn(db))

	var created string
	require.NoError(t, db.QueryRow(`SELECT created FROM safe_migrations WHERE app = 'accounts'`).Scan(&created))
	assert.Equal(t, "2025-01-02 03:04:05", created)
}

func TestMigrateCreatedColumnIdempotent(t *testing.T) {
	db := openOldSchema(t)

	require.NoError(t, MigrateCreatedColumn(db))
	require.NoError(t, MigrateCreatedColumn(db))

	var count int
	require.NoError(t, db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('safe_migrations') WHERE name = 'created'
	`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRunAppliesAllMigrations(t *testing.T) {
	db := openOldSchema(t)

	require.NoError(t, Run(db))

	var indexCount int
	require.NoError(t, db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_safe_migrations_detected'
	`).Scan(&indexCount))
	assert.Equal(t, 1, indexCount)
}
