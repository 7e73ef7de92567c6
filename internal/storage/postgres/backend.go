package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/document"
)

// Backend stores statblock documents as JSONB rows.
type Backend struct {
	db *pgxpool.Pool
}

// NewBackend creates a Backend on the given pool.
//
// Precondition: db must be a valid, open connection pool with the schema
// migrated.
func NewBackend(db *pgxpool.Pool) *Backend {
	return &Backend{db: db}
}

// NewStore returns a document store over a Backend on db.
func NewStore(db *pgxpool.Pool) *document.Store {
	return document.NewStore(NewBackend(db))
}

// GetDoc returns the document with id.
//
// Postcondition: Returns the document or an error wrapping statblock.ErrActorNotFound.
func (b *Backend) GetDoc(ctx context.Context, id string) ([]byte, error) {
	var doc []byte
	err := b.db.QueryRow(ctx, `SELECT doc FROM actors WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %q", statblock.ErrActorNotFound, id)
		}
		return nil, fmt.Errorf("querying actor: %w", err)
	}
	return doc, nil
}

// PutDoc inserts or replaces the document with id.
func (b *Backend) PutDoc(ctx context.Context, id, name, folderID string, doc []byte) error {
	_, err := b.db.Exec(ctx, `
		INSERT INTO actors (id, name, folder_id, doc) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, folder_id = EXCLUDED.folder_id,
			doc = EXCLUDED.doc, updated_at = NOW()`,
		id, name, folderID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("saving actor: %w", err)
	}
	return nil
}

// FindDoc returns the oldest document named name in folderID.
func (b *Backend) FindDoc(ctx context.Context, name, folderID string) ([]byte, error) {
	var doc []byte
	err := b.db.QueryRow(ctx, `
		SELECT doc FROM actors WHERE name = $1 AND folder_id = $2 ORDER BY seq LIMIT 1`,
		name, folderID,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q in folder %q", statblock.ErrActorNotFound, name, folderID)
		}
		return nil, fmt.Errorf("querying actor: %w", err)
	}
	return doc, nil
}

// ListDocs returns documents in insertion order; an empty folderID lists all.
func (b *Backend) ListDocs(ctx context.Context, folderID string) ([][]byte, error) {
	rows, err := b.db.Query(ctx, `
		SELECT doc FROM actors WHERE $1 = '' OR folder_id = $1 ORDER BY seq`,
		folderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing actors: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning actor row: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (b *Backend) GetFolder(ctx context.Context, id string) (*statblock.Folder, error) {
	f := statblock.Folder{ID: id}
	err := b.db.QueryRow(ctx, `SELECT name, parent_id FROM folders WHERE id = $1`, id).
		Scan(&f.Name, &f.Parent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %q", statblock.ErrFolderNotFound, id)
		}
		return nil, fmt.Errorf("querying folder: %w", err)
	}
	return &f, nil
}

func (b *Backend) FindFolder(ctx context.Context, name, parentID string) (*statblock.Folder, error) {
	f := statblock.Folder{Name: name, Parent: parentID}
	err := b.db.QueryRow(ctx, `
		SELECT id FROM folders WHERE name = $1 AND parent_id = $2 ORDER BY seq LIMIT 1`,
		name, parentID,
	).Scan(&f.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q under %q", statblock.ErrFolderNotFound, name, parentID)
		}
		return nil, fmt.Errorf("querying folder: %w", err)
	}
	return &f, nil
}

func (b *Backend) PutFolder(ctx context.Context, f statblock.Folder) error {
	_, err := b.db.Exec(ctx, `
		INSERT INTO folders (id, name, parent_id) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, parent_id = EXCLUDED.parent_id`,
		f.ID, f.Name, f.Parent,
	)
	if err != nil {
		return fmt.Errorf("saving folder: %w", err)
	}
	return nil
}

func (b *Backend) ListFolders(ctx context.Context) ([]statblock.Folder, error) {
	rows, err := b.db.Query(ctx, `SELECT id, name, parent_id FROM folders ORDER BY seq`)
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
