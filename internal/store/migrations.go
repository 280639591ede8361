package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS snapshots (
	collection TEXT PRIMARY KEY,
	raw        TEXT NOT NULL,
	saved_at   DATETIME NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS exports (
	id           TEXT PRIMARY KEY,
	order_id     TEXT NOT NULL DEFAULT '',
	token_number INTEGER NOT NULL DEFAULT 0,
	customer     TEXT NOT NULL DEFAULT '',
	file_name    TEXT NOT NULL,
	locations    TEXT NOT NULL DEFAULT '[]',
	size         INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at);
CREATE INDEX IF NOT EXISTS idx_exports_token ON exports(token_number);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
