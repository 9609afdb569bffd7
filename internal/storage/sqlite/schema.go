package sqlite

const schema = `
-- Detection records: the first time each migration was seen in a plan.
-- Created at most once per (app, name); never updated. The detected
-- timestamp gates delay promotion for after_deploy migrations.
CREATE TABLE IF NOT EXISTS safe_migrations (
    app TEXT NOT NULL CHECK(length(app) <= 255),
    name TEXT NOT NULL CHECK(length(name) <= 255),
    created DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    detected DATETIME NOT NULL,
    PRIMARY KEY (app, name)
);

CREATE INDEX IF NOT EXISTS idx_safe_migrations_detected ON safe_migrations(detected);
`
