// Package memory provides an in-process statblock document backend.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
	"github.com/cory-johannsen/pf2e-toolbox/internal/storage/document"
)

type entry struct {
	name   string
	folder string
	doc    []byte
}

// Backend keeps documents and folders in insertion-ordered maps. It is safe
// for concurrent use.
type Backend struct {
	mu          sync.RWMutex
	docs        map[string]entry
	order       []string
	folders     map[string]statblock.Folder
	folderOrder []string
}

// NewBackend creates an empty Backend.
func NewBackend() *Backend {
	return &Backend{
		docs:    make(map[string]entry),
		folders: make(map[string]statblock.Folder),
	}
}

// NewStore returns a document store over a fresh Backend.
func NewStore() *document.Store {
	return document.NewStore(NewBackend())
}

func (b *Backend) GetDoc(_ context.Context, id string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %q", statblock.ErrActorNotFound, id)
	}
	return slices.Clone(e.doc), nil
}

func (b *Backend) PutDoc(_ context.Context, id, name, folderID string, doc []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.docs[id]; !ok {
		b.order = append(b.order, id)
	}
	b.docs[id] = entry{name: name, folder: folderID, doc: slices.Clone(doc)}
	return nil
}

func (b *Backend) FindDoc(_ context.Context, name, folderID string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, id := range b.order {
		e := b.docs[id]
		if e.name == name && e.folder == folderID {
			return slices.Clone(e.doc), nil
		}
	}
	return nil, fmt.Errorf("%w: %q in folder %q", statblock.ErrActorNotFound, name, folderID)
}

func (b *Backend) ListDocs(_ context.Context, folderID string) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out [][]byte
	for _, id := range b.order {
		e := b.docs[id]
		if folderID == "" || e.folder == folderID {
			out = append(out, slices.Clone(e.doc))
		}
	}
	return out, nil
}

func (b *Backend) GetFolder(_ context.Context, id string) (*statblock.Folder, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	f, ok := b.folders[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %q", statblock.ErrFolderNotFound, id)
	}
	return &f, nil
}

func (b *Backend) FindFolder(_ context.Context, name, parentID string) (*statblock.Folder, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, id := range b.folderOrder {
		f := b.folders[id]
		if f.Name == name && f.Parent == parentID {
			return &f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q under %q", statblock.ErrFolderNotFound, name, parentID)
}

func (b *Backend) PutFolder(_ context.Context, f statblock.Folder) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.folders[f.ID]; !ok {
		b.folderOrder = append(b.folderOrder, f.ID)
	}
	b.folders[f.ID] = f
	return nil
}

func (b *Backend) ListFolders(_ context.Context) ([]statblock.Folder, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]statblock.Folder, 0, len(b.folderOrder))
	for _, id := range b.folderOrder {
		out = append(out, b.folders[id])
	}
	return out, nil
}
