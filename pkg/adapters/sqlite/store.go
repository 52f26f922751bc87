// Package sqlite implements core.Store on a local SQLite database.
// Documents live in a single table keyed by (collection, id) with
// their fields as a JSON blob. Subscriptions poll a per-collection
// revision counter, so one cheap integer read decides whether a new
// snapshot is due.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/aretw0/glean/pkg/core"
)

// DefaultPollInterval is how often subscriptions check the revision
// counter when no interval is configured.
const DefaultPollInterval = 100 * time.Millisecond

// Store implements core.Store using a local SQLite database.
type Store struct {
	db           *sqlx.DB
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPollInterval sets how often subscriptions check for changes.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) { s.pollInterval = d }
}

// WithLogger sets the logger for subscription events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore opens (or creates) a SQLite database at dbPath, enables
// WAL mode, and runs any pending schema migrations.
func NewStore(dbPath string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &Store{
		db:           db,
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
	}
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
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
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

// Query returns matching documents in insertion order.
func (s *Store) Query(ctx context.Context, collection string, filter core.Filter) ([]core.Document, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, fields FROM documents WHERE collection = ? ORDER BY seq",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []core.Document{}
	for rows.Next() {
		var (
			id         string
			fieldsJSON string
		)
		if err := rows.Scan(&id, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		var fields core.Fields
		if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
			return nil, fmt.Errorf("unmarshaling fields of %s/%s: %w", collection, id, err)
		}
		doc := core.Document{ID: id, Fields: fields}
		if filter.Matches(doc) {
			docs = append(docs, doc)
		}
	}
	return docs, rows.Err()
}

// Get retrieves a single document.
func (s *Store) Get(ctx context.Context, collection, id string) (core.Document, error) {
	var fieldsJSON string
	err := s.db.GetContext(ctx, &fieldsJSON,
		"SELECT fields FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Document{}, core.ErrNotFound
	}
	if err != nil {
		return core.Document{}, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	var fields core.Fields
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return core.Document{}, fmt.Errorf("unmarshaling fields of %s/%s: %w", collection, id, err)
	}
	return core.Document{ID: id, Fields: fields}, nil
}

// Put inserts or replaces a document. A replaced document keeps its
// original position in insertion order.
func (s *Store) Put(ctx context.Context, collection string, doc core.Document) error {
	if doc.ID == "" {
		return core.ErrNoID
	}
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields of %s: %w", doc.ID, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM documents))
		ON CONFLICT (collection, id) DO UPDATE SET fields = excluded.fields`,
		collection, doc.ID, string(fieldsJSON),
	)
	if err != nil {
		return fmt.Errorf("upserting %s/%s: %w", collection, doc.ID, err)
	}
	if err := bumpRev(ctx, tx, collection); err != nil {
		return err
	}
	return tx.Commit()
}

// Mutate applies a partial patch to one document.
func (s *Store) Mutate(ctx context.Context, collection string, id string, patch core.Fields) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var fieldsJSON string
	err = tx.GetContext(ctx, &fieldsJSON,
		"SELECT fields FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading %s/%s: %w", collection, id, err)
	}

	var fields core.Fields
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return fmt.Errorf("unmarshaling fields of %s/%s: %w", collection, id, err)
	}
	if fields == nil {
		// A fieldless document is stored as JSON null.
		fields = core.Fields{}
	}
	for k, v := range patch {
		fields[k] = v
	}
	updated, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshaling fields of %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE documents SET fields = ? WHERE collection = ? AND id = ?",
		string(updated), collection, id,
	)
	if err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	if err := bumpRev(ctx, tx, collection); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete of %s/%s: %w", collection, id, err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	if err := bumpRev(ctx, tx, collection); err != nil {
		return err
	}
	return tx.Commit()
}

// bumpRev increments the collection's revision counter inside the
// caller's transaction, so pollers see the write and the bump
// atomically.
func bumpRev(ctx context.Context, tx *sqlx.Tx, collection string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO collection_rev (collection, rev) VALUES (?, 1)
		ON CONFLICT (collection) DO UPDATE SET rev = rev + 1`,
		collection,
	)
	if err != nil {
		return fmt.Errorf("bumping revision of %s: %w", collection, err)
	}
	return nil
}

func (s *Store) rev(ctx context.Context, collection string) (int64, error) {
	var rev int64
	err := s.db.GetContext(ctx, &rev,
		"SELECT COALESCE(MAX(rev), 0) FROM collection_rev WHERE collection = ?",
		collection,
	)
	if err != nil {
		return 0, fmt.Errorf("reading revision of %s: %w", collection, err)
	}
	return rev, nil
}
