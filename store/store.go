// Package store persists named prompt templates in SQLite. Templates are
// stored as their YAML definitions and parsed on retrieval.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/threadline/threadline/prompt"
)

// ErrNotFound is returned when the named template does not exist.
var ErrNotFound = errors.New("template not found")

// Record is a stored template row.
type Record struct {
	Name        string
	Description string
	Definition  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store handles persistence of named prompt templates.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path and applies migrations. Use
// ":memory:" for an ephemeral database.
func Open(path string, logger zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewStore creates a new template store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save inserts or updates a named template. The definition must parse as a
// template file; malformed definitions are rejected.
func (s *Store) Save(ctx context.Context, name, description, definition string) error {
	if name == "" {
		return fmt.Errorf("template name is required")
	}
	if _, err := prompt.ParseFile([]byte(definition)); err != nil {
		return fmt.Errorf("invalid template definition: %w", err)
	}

	now := time.Now().Unix()
	query := sq.Insert("templates").
		Columns("name", "description", "definition", "created_at", "updated_at").
		Values(name, description, definition, now, now).
		Suffix("ON CONFLICT(name) DO UPDATE SET description = excluded.description, definition = excluded.definition, updated_at = excluded.updated_at")

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryStr, args...)
	return err
}

// Get returns the stored record for a named template.
func (s *Store) Get(ctx context.Context, name string) (*Record, error) {
	query := sq.Select("name", "description", "definition", "created_at", "updated_at").
		From("templates").
		Where(sq.Eq{"name": name})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec Record
	var createdAt, updatedAt int64
	row := s.db.QueryRowContext(ctx, queryStr, args...)
	if err := row.Scan(&rec.Name, &rec.Description, &rec.Definition, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}
	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return &rec, nil
}

// GetTemplate returns the named template parsed and ready to format.
func (s *Store) GetTemplate(ctx context.Context, name string) (*prompt.ChatTemplate, error) {
	rec, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return prompt.ParseFile([]byte(rec.Definition))
}

// List returns all stored templates ordered by name.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	query := sq.Select("name", "description", "definition", "created_at", "updated_at").
		From("templates").
		OrderBy("name")

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt, updatedAt int64
		if err := rows.Scan(&rec.Name, &rec.Description, &rec.Definition, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		rec.UpdatedAt = time.Unix(updatedAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a named template. Deleting a missing template returns
// ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	query := sq.Delete("templates").Where(sq.Eq{"name": name})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
