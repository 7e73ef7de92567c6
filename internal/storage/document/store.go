package document

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// Backend persists raw statblock documents and folders. Implementations
// report missing documents with statblock.ErrActorNotFound and missing
// folders with statblock.ErrFolderNotFound.
type Backend interface {
	GetDoc(ctx context.Context, id string) ([]byte, error)
	// PutDoc inserts or replaces the document with id.
	PutDoc(ctx context.Context, id, name, folderID string, doc []byte) error
	// FindDoc returns the first document named name in folderID, in insertion order.
	FindDoc(ctx context.Context, name, folderID string) ([]byte, error)
	// ListDocs returns documents in insertion order; an empty folderID lists all.
	ListDocs(ctx context.Context, folderID string) ([][]byte, error)
	GetFolder(ctx context.Context, id string) (*statblock.Folder, error)
	FindFolder(ctx context.Context, name, parentID string) (*statblock.Folder, error)
	PutFolder(ctx context.Context, f statblock.Folder) error
	ListFolders(ctx context.Context) ([]statblock.Folder, error)
}

// Store implements the statblock store contract over a Backend. Partial
// updates are merged into the stored document with Apply.
//
// Read-modify-write cycles are serialized within one Store; separate
// processes sharing a backend are not coordinated.
type Store struct {
	mu      sync.Mutex
	backend Backend
	newID   func() string
}

// NewStore creates a Store over backend that assigns random UUIDs.
//
// Precondition: backend must be non-nil.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, newID: func() string { return uuid.NewString() }}
}

// GetActor returns the statblock with id.
func (s *Store) GetActor(ctx context.Context, id string) (*statblock.StatBlock, error) {
	doc, err := s.backend.GetDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	return Decode(doc)
}

// FindActor returns the statblock named name in folderID.
func (s *Store) FindActor(ctx context.Context, name, folderID string) (*statblock.StatBlock, error) {
	doc, err := s.backend.FindDoc(ctx, name, folderID)
	if err != nil {
		return nil, err
	}
	return Decode(doc)
}

// ListActors returns the statblocks in folderID, or all when folderID is empty.
func (s *Store) ListActors(ctx context.Context, folderID string) ([]*statblock.StatBlock, error) {
	docs, err := s.backend.ListDocs(ctx, folderID)
	if err != nil {
		return nil, err
	}
	out := make([]*statblock.StatBlock, 0, len(docs))
	for _, doc := range docs {
		sb, err := Decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, sb)
	}
	return out, nil
}

// PutActor stores sb, assigning ids to it and to any item without one.
//
// Precondition: sb must pass Validate.
// Postcondition: sb's ids are set in place and the stored copy is returned.
func (s *Store) PutActor(ctx context.Context, sb *statblock.StatBlock) (*statblock.StatBlock, error) {
	if err := sb.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if sb.ID == "" {
		sb.ID = s.newID()
	}
	for i := range sb.Items {
		if sb.Items[i].ID == "" {
			sb.Items[i].ID = s.newID()
		}
	}
	if sb.Folder != "" {
		if _, err := s.backend.GetFolder(ctx, sb.Folder); err != nil {
			return nil, fmt.Errorf("storing %q: %w", sb.Name, err)
		}
	}
	doc, err := Encode(sb)
	if err != nil {
		return nil, err
	}
	if err := s.backend.PutDoc(ctx, sb.ID, sb.Name, sb.Folder, doc); err != nil {
		return nil, fmt.Errorf("storing %q: %w", sb.Name, err)
	}
	return Decode(doc)
}

// CloneActor stores a copy of src under a new id with fields applied. Item
// ids are kept.
func (s *Store) CloneActor(ctx context.Context, src *statblock.StatBlock, fields statblock.Fields) (*statblock.StatBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := Encode(src)
	if err != nil {
		return nil, err
	}
	id := s.newID()
	if doc, err = Apply(doc, fields); err != nil {
		return nil, fmt.Errorf("cloning %q: %w", src.Name, err)
	}
	if doc, err = Apply(doc, statblock.Fields{"id": id}); err != nil {
		return nil, fmt.Errorf("cloning %q: %w", src.Name, err)
	}
	if err := s.put(ctx, id, doc); err != nil {
		return nil, fmt.Errorf("cloning %q: %w", src.Name, err)
	}
	return Decode(doc)
}

// UpdateActor merges fields into the statblock with id.
func (s *Store) UpdateActor(ctx context.Context, id string, fields statblock.Fields) error {
	return s.modify(ctx, id, func(doc []byte) ([]byte, error) {
		return Apply(doc, fields)
	})
}

// UpdateItems merges each update into the matching embedded item of actorID.
// The batch is applied all or nothing.
func (s *Store) UpdateItems(ctx context.Context, actorID string, updates []statblock.ItemUpdate) error {
	return s.modify(ctx, actorID, func(doc []byte) ([]byte, error) {
		return ApplyItems(doc, updates)
	})
}

// FindOrCreateFolder returns the folder named name under parentID, creating it
// when absent.
func (s *Store) FindOrCreateFolder(ctx context.Context, name, parentID string) (*statblock.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.backend.FindFolder(ctx, name, parentID)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, statblock.ErrFolderNotFound) {
		return nil, err
	}
	if parentID != "" {
		if _, err := s.backend.GetFolder(ctx, parentID); err != nil {
			return nil, fmt.Errorf("creating folder %q: parent: %w", name, err)
		}
	}
	nf := statblock.Folder{ID: s.newID(), Name: name, Parent: parentID}
	if err := s.backend.PutFolder(ctx, nf); err != nil {
		return nil, fmt.Errorf("creating folder %q: %w", name, err)
	}
	return &nf, nil
}

// ListFolders returns every folder in creation order.
func (s *Store) ListFolders(ctx context.Context) ([]statblock.Folder, error) {
	return s.backend.ListFolders(ctx)
}

func (s *Store) modify(ctx context.Context, id string, fn func([]byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.backend.GetDoc(ctx, id)
	if err != nil {
		return err
	}
	doc, err = fn(doc)
	if err != nil {
		return fmt.Errorf("updating %q: %w", id, err)
	}
	return s.put(ctx, id, doc)
}

// put validates the merged document before handing it to the backend.
func (s *Store) put(ctx context.Context, id string, doc []byte) error {
	sb, err := Decode(doc)
	if err != nil {
		return err
	}
	if err := sb.Validate(); err != nil {
		return err
	}
	return s.backend.PutDoc(ctx, id, sb.Name, sb.Folder, doc)
}
