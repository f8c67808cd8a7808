// Package docstore is a local stand-in for the portal's document database.
//
// Documents are JSON objects grouped into collections and addressed by id.
// The flow layer never writes here; Import exists to load development
// fixtures.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"
)

// Query limits.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

var (
	// ErrNotFound indicates no document exists with the id.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidFilter indicates a filter field that is not a plain path.
	ErrInvalidFilter = errors.New("invalid filter field")
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Document is a stored record.
type Document struct {
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Data       map[string]any `json:"data"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Filter selects documents whose Field equals Value. Field is a dotted path
// into the document; values are compared as text. The zero Filter matches
// every document.
type Filter struct {
	Field string
	Value string
}

// Store reads documents from a SQLite database.
type Store struct {
	db *sql.DB
}

// Open connects to the database at path, creating and migrating it if
// needed.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := Connect(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns one document.
func (s *Store) Get(ctx context.Context, collection, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT body, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id)

	doc := &Document{Collection: collection, ID: id}
	if err := scanDocument(row, doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return nil, err
	}
	return doc, nil
}

// Query returns up to limit documents of a collection matching f, most
// recently updated first. A limit of zero or less means DefaultLimit.
func (s *Store) Query(ctx context.Context, collection string, f Filter, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	query := `SELECT id, body, updated_at FROM documents WHERE collection = ?`
	args := []any{collection}
	if f.Field != "" {
		if !fieldPattern.MatchString(f.Field) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, f.Field)
		}
		query += ` AND CAST(json_extract(body, ?) AS TEXT) = ?`
		args = append(args, "$."+f.Field, f.Value)
	}
	query += ` ORDER BY updated_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc := Document{Collection: collection}
		var body string
		var updated int64
		if err := rows.Scan(&doc.ID, &body, &updated); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(body), &doc.Data); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, doc.ID, err)
		}
		doc.UpdatedAt = time.UnixMilli(updated)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Collections returns the names of all non-empty collections.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Import loads fixture documents into a collection, replacing documents
// with the same id. The input is a JSON array of objects, each with a
// string "id", or an object mapping ids to documents.
func (s *Store) Import(ctx context.Context, collection string, r io.Reader) (int, error) {
	docs, err := decodeFixtures(r)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, id, body, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for id, data := range docs {
		body, err := json.Marshal(data)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, id, string(body), now); err != nil {
			return 0, fmt.Errorf("import %s/%s: %w", collection, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func decodeFixtures(r io.Reader) (map[string]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var list []map[string]any
	if err := json.Unmarshal(data, &list); err == nil {
		docs := make(map[string]map[string]any, len(list))
		for i, d := range list {
			id, ok := d["id"].(string)
			if !ok || id == "" {
				return nil, fmt.Errorf("fixture %d: missing string id", i)
			}
			docs[id] = d
		}
		return docs, nil
	}

	var byID map[string]map[string]any
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, fmt.Errorf("fixtures must be a JSON array or an object keyed by id: %w", err)
	}
	return byID, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner, doc *Document) error {
	var body string
	var updated int64
	if err := row.Scan(&body, &updated); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), &doc.Data); err != nil {
		return fmt.Errorf("decode %s/%s: %w", doc.Collection, doc.ID, err)
	}
	doc.UpdatedAt = time.UnixMilli(updated)
	return nil
}
