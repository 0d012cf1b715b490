package docstore

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
)`

// migrations is the ordered list of schema migrations. The SQL is shared by
// SQLite and PostgreSQL.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	fields     TEXT NOT NULL DEFAULT '{}',
	seq        BIGINT NOT NULL,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection_seq
	ON documents(collection, seq);

CREATE TABLE IF NOT EXISTS collection_revisions (
	collection TEXT PRIMARY KEY,
	revision   BIGINT NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS query_indexes (
	collection  TEXT NOT NULL,
	field       TEXT NOT NULL,
	order_field TEXT NOT NULL,
	PRIMARY KEY (collection, field, order_field)
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
