package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore implements Store on SQLite or PostgreSQL.
type SQLStore struct {
	db    *sqlx.DB
	clock func() time.Time
}

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithClock overrides the server clock used for document timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *SQLStore) { s.clock = clock }
}

// Open connects to the database and runs pending migrations. driver is
// "sqlite" (dsn is a file path or ":memory:") or "postgres".
func Open(driver, dsn string, opts ...Option) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", driver, err)
	}

	if driver == "sqlite" {
		// One connection: a ":memory:" database exists per connection and
		// SQLite serializes writers anyway.
		db.SetMaxOpenConns(1)

		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	s := &SQLStore{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// runMigrations reads the current schema version and applies any
// outstanding migrations in order.
func (s *SQLStore) runMigrations() error {
	if _, err := s.db.Exec(schemaVersionTable); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	currentVersion := 0
	if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// EnsureIndex declares a composite index allowing queries that filter on
// field to be ordered by orderBy.
func (s *SQLStore) EnsureIndex(ctx context.Context, collection, field, orderBy string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO query_indexes (collection, field, order_field)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`),
		collection, field, orderBy,
	)
	if err != nil {
		return fmt.Errorf("ensuring index %s(%s, %s): %w", collection, field, orderBy, err)
	}
	return nil
}

func (s *SQLStore) hasIndex(ctx context.Context, q Query) (bool, error) {
	for _, f := range q.Where {
		if f.Field == q.OrderBy.Field {
			continue
		}
		var n int
		err := s.db.GetContext(ctx, &n, s.db.Rebind(`
			SELECT COUNT(*) FROM query_indexes
			WHERE collection = ? AND field = ? AND order_field = ?`),
			q.Collection, f.Field, q.OrderBy.Field,
		)
		if err != nil {
			return false, fmt.Errorf("looking up index for %s: %w", q, err)
		}
		if n == 0 {
			return false, nil
		}
	}
	return true, nil
}

type documentRow struct {
	ID        string `db:"id"`
	Fields    string `db:"fields"`
	Seq       int64  `db:"seq"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r documentRow) document(collection string) (Document, error) {
	fields := map[string]any{}
	if r.Fields != "" {
		if err := json.Unmarshal([]byte(r.Fields), &fields); err != nil {
			return Document{}, fmt.Errorf("unmarshaling fields of %s/%s: %w", collection, r.ID, err)
		}
	}
	return Document{
		ID:         r.ID,
		Collection: collection,
		Fields:     fields,
		Seq:        r.Seq,
		CreatedAt:  time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt:  time.Unix(0, r.UpdatedAt).UTC(),
	}, nil
}

// Query returns every document of q.Collection matching q.
func (s *SQLStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if q.NeedsIndex() {
		ok, err := s.hasIndex(ctx, q)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &IndexError{Query: q}
		}
	}

	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT id, fields, seq, created_at, updated_at
		FROM documents
		WHERE collection = ?
		ORDER BY seq`),
		q.Collection,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, r := range rows {
		d, err := r.document(q.Collection)
		if err != nil {
			return nil, err
		}
		if q.Matches(d) {
			docs = append(docs, d)
		}
	}

	if q.OrderBy != nil {
		SortDocuments(docs, *q.OrderBy)
	}
	return docs, nil
}

// Get returns a single document.
func (s *SQLStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var r documentRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`
		SELECT id, fields, seq, created_at, updated_at
		FROM documents
		WHERE collection = ? AND id = ?`),
		collection, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	d, err := r.document(collection)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Revision returns the collection's change counter, zero if never written.
func (s *SQLStore) Revision(ctx context.Context, collection string) (int64, error) {
	var rev int64
	err := s.db.GetContext(ctx, &rev, s.db.Rebind(
		"SELECT revision FROM collection_revisions WHERE collection = ?"),
		collection,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading revision of %s: %w", collection, err)
	}
	return rev, nil
}

// bumpRevision increments the collection counter inside tx and returns the
// new value.
func (s *SQLStore) bumpRevision(ctx context.Context, tx *sqlx.Tx, collection string) (int64, error) {
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO collection_revisions (collection, revision)
		VALUES (?, 1)
		ON CONFLICT (collection) DO UPDATE
		SET revision = collection_revisions.revision + 1`),
		collection,
	)
	if err != nil {
		return 0, fmt.Errorf("bumping revision of %s: %w", collection, err)
	}
	var rev int64
	if err := tx.GetContext(ctx, &rev, tx.Rebind(
		"SELECT revision FROM collection_revisions WHERE collection = ?"),
		collection,
	); err != nil {
		return 0, fmt.Errorf("reading revision of %s: %w", collection, err)
	}
	return rev, nil
}

// Create inserts a new document and returns its id.
func (s *SQLStore) Create(ctx context.Context, collection, id string, fields map[string]any) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}

	body, err := marshalFields(fields)
	if err != nil {
		return "", fmt.Errorf("creating %s/%s: %w", collection, id, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.GetContext(ctx, &n, tx.Rebind(
		"SELECT COUNT(*) FROM documents WHERE collection = ? AND id = ?"),
		collection, id,
	); err != nil {
		return "", fmt.Errorf("creating %s/%s: %w", collection, id, err)
	}
	if n > 0 {
		return "", fmt.Errorf("creating %s/%s: %w", collection, id, ErrAlreadyExists)
	}

	rev, err := s.bumpRevision(ctx, tx, collection)
	if err != nil {
		return "", err
	}

	now := s.clock().UnixNano()
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO documents (collection, id, fields, seq, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		collection, id, body, rev, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("creating %s/%s: %w", collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing %s/%s: %w", collection, id, err)
	}
	return id, nil
}

// Update merges fields into the stored document. A nil value stores null.
func (s *SQLStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.GetContext(ctx, &current, tx.Rebind(
		"SELECT fields FROM documents WHERE collection = ? AND id = ?"),
		collection, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("updating %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}

	merged := map[string]any{}
	if err := json.Unmarshal([]byte(current), &merged); err != nil {
		return fmt.Errorf("unmarshaling fields of %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	body, err := marshalFields(merged)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}

	if _, err := s.bumpRevision(ctx, tx, collection); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE documents SET fields = ?, updated_at = ?
		WHERE collection = ? AND id = ?`),
		body, s.clock().UnixNano(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}

	return tx.Commit()
}

// Delete removes a document.
func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(
		"DELETE FROM documents WHERE collection = ? AND id = ?"),
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, ErrNotFound)
	}

	if _, err := s.bumpRevision(ctx, tx, collection); err != nil {
		return err
	}

	return tx.Commit()
}

// marshalFields drops server-managed keys and encodes the rest as JSON.
func marshalFields(fields map[string]any) (string, error) {
	clean := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case FieldID, FieldCreatedAt, FieldUpdatedAt:
			continue
		}
		clean[k] = v
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("marshaling fields: %w", err)
	}
	return string(b), nil
}
