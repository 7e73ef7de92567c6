// Package sqlite provides a SQLite statblock document backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/document"
)

// Backend stores statblock documents as JSON text in a SQLite file.
type Backend struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at path and ensures the schema.
//
// Postcondition: Returns a ready Backend or a non-nil error; on error no
// connection is left open.
func Open(path string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", stmt, err)
		}
	}

	b := &Backend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return b, nil
}

// OpenStore opens the database at path and returns a document store over it.
func OpenStore(path string) (*document.Store, *Backend, error) {
	b, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	return document.NewStore(b), b, nil
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS folders (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			parent_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_folders_name_parent ON folders (name, parent_id)`,
		`CREATE TABLE IF NOT EXISTS actors (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			folder_id TEXT NOT NULL DEFAULT '',
			doc TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_actors_name_folder ON actors (name, folder_id)`,
	}
	for _, m := range migrations {
		if _, err := b.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) GetDoc(ctx context.Context, id string) ([]byte, error) {
	var doc string
	err := b.db.QueryRowContext(ctx, `SELECT doc FROM actors WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %q", statblock.ErrActorNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying actor: %w", err)
	}
	return []byte(doc), nil
}

func (b *Backend) PutDoc(ctx context.Context, id, name, folderID string, doc []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO actors (id, name, folder_id, doc) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, folder_id = excluded.folder_id, doc = excluded.doc`,
		id, name, folderID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("saving actor: %w", err)
	}
	return nil
}

func (b *Backend) FindDoc(ctx context.Context, name, folderID string) ([]byte, error) {
	var doc string
	err := b.db.QueryRowContext(ctx, `
		SELECT doc FROM actors WHERE name = ? AND folder_id = ? ORDER BY seq LIMIT 1`,
		name, folderID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q in folder %q", statblock.ErrActorNotFound, name, folderID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying actor: %w", err)
	}
	return []byte(doc), nil
}

func (b *Backend) ListDocs(ctx context.Context, folderID string) ([][]byte, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT doc FROM actors WHERE ? = '' OR folder_id = ? ORDER BY seq`,
		folderID, folderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing actors: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning actor row: %w", err)
		}
		out = append(out, []byte(doc))
	}
	return out, rows.Err()
}

func (b *Backend) GetFolder(ctx context.Context, id string) (*statblock.Folder, error) {
	f := statblock.Folder{ID: id}
	err := b.db.QueryRowContext(ctx, `SELECT name, parent_id FROM folders WHERE id = ?`, id).
		Scan(&f.Name, &f.Parent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %q", statblock.ErrFolderNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying folder: %w", err)
	}
	return &f, nil
}

func (b *Backend) FindFolder(ctx context.Context, name, parentID string) (*statblock.Folder, error) {
	f := statblock.Folder{Name: name, Parent: parentID}
	err := b.db.QueryRowContext(ctx, `
		SELECT id FROM folders WHERE name = ? AND parent_id = ? ORDER BY seq LIMIT 1`,
		name, parentID,
	).Scan(&f.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q under %q", statblock.ErrFolderNotFound, name, parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying folder: %w", err)
	}
	return &f, nil
}

func (b *Backend) PutFolder(ctx context.Context, f statblock.Folder) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO folders (id, name, parent_id) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, parent_id = excluded.parent_id`,
		f.ID, f.Name, f.Parent,
	)
	if err != nil {
		return fmt.Errorf("saving folder: %w", err)
	}
	return nil
}

func (b *Backend) ListFolders(ctx context.Context) ([]statblock.Folder, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, name, parent_id FROM folders ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	defer rows.Close()

	out := make([]statblock.Folder, 0)
	for rows.Next() {
		var f statblock.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.Parent); err != nil {
			return nil, fmt.Errorf("scanning folder row: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
