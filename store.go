package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("circuit not found")

// storeTimeLayout is fixed width so stored timestamps sort as text.
const storeTimeLayout = "2006-01-02T15:04:05.000000000Z"

const storeSchema = `
CREATE TABLE IF NOT EXISTS circuits (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	data        TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);`

// SavedCircuit is a row of the circuit library.
type SavedCircuit struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is a sqlite-backed library of saved circuits.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// OpenStore opens (creating if needed) the circuit library at path.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// A single connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the circuit's JSON document. An empty id creates a new entry;
// otherwise the existing entry is replaced and ErrNotFound is returned if it
// does not exist. The entry's id is returned.
func (s *Store) Save(ctx context.Context, id string, c *Circuit) (string, error) {
	data, err := c.Export()
	if err != nil {
		return "", err
	}
	now := s.now().UTC().Format(storeTimeLayout)

	if id == "" {
		id = uuid.NewString()
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO circuits (id, title, description, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, c.Title, c.Description, string(data), now, now)
		if err != nil {
			return "", fmt.Errorf("insert circuit: %w", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE circuits SET title = ?, description = ?, data = ?, updated_at = ? WHERE id = ?`,
		c.Title, c.Description, string(data), now, id)
	if err != nil {
		return "", fmt.Errorf("update circuit: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return "", err
	} else if n == 0 {
		return "", fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return id, nil
}

// Get returns the saved entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (*SavedCircuit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, data, created_at, updated_at FROM circuits WHERE id = ?`, id)
	sc, err := scanSaved(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return sc, err
}

// Load returns the circuit saved under id.
func (s *Store) Load(ctx context.Context, id string) (*Circuit, error) {
	sc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ImportCircuit(sc.Data)
}

// List returns every saved entry, most recently updated first.
func (s *Store) List(ctx context.Context) ([]SavedCircuit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, data, created_at, updated_at FROM circuits ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list circuits: %w", err)
	}
	defer rows.Close()

	var out []SavedCircuit
	for rows.Next() {
		sc, err := scanSaved(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

// Delete removes the entry with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM circuits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete circuit: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSaved(r scanner) (*SavedCircuit, error) {
	var (
		sc               SavedCircuit
		data             string
		created, updated string
	)
	if err := r.Scan(&sc.ID, &sc.Title, &sc.Description, &data, &created, &updated); err != nil {
		return nil, err
	}
	sc.Data = []byte(data)
	var err error
	if sc.CreatedAt, err = time.Parse(storeTimeLayout, created); err != nil {
		return nil, fmt.Errorf("circuit %s: created_at: %w", sc.ID, err)
	}
	if sc.UpdatedAt, err = time.Parse(storeTimeLayout, updated); err != nil {
		return nil, fmt.Errorf("circuit %s: updated_at: %w", sc.ID, err)
	}
	return &sc, nil
}
