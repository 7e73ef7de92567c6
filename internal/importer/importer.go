// Package importer loads statblock files and writes them into a store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// Store is the subset of the statblock store the importer writes through.
type Store interface {
	FindOrCreateFolder(ctx context.Context, name, parentID string) (*statblock.Folder, error)
	FindActor(ctx context.Context, name, folderID string) (*statblock.StatBlock, error)
	PutActor(ctx context.Context, sb *statblock.StatBlock) (*statblock.StatBlock, error)
}

// Summary counts what a Run wrote.
type Summary struct {
	Created  int
	Replaced int
}

// Importer orchestrates content import from a Source into a Store.
type Importer struct {
	source Source
	store  Store
	logger *zap.Logger
}

// New constructs an Importer backed by the given Source and Store.
//
// Precondition: source, store and logger must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(source Source, store Store, logger *zap.Logger) *Importer {
	return &Importer{source: source, store: store, logger: logger}
}

// Run loads statblocks from sourceDir and stores each in folderName, a
// top-level folder created on demand; an empty folderName stores at the top
// level. A statblock whose name already exists in the folder replaces it and
// keeps its id.
//
// Postcondition: Returns the counts written, stopping at the first error.
// Nothing is written when loading fails.
func (imp *Importer) Run(ctx context.Context, sourceDir, folderName string) (Summary, error) {
	var sum Summary
	overall := time.Now()

	blocks, err := imp.source.Load(sourceDir)
	if err != nil {
		return sum, fmt.Errorf("loading source: %w", err)
	}
	imp.logger.Info("statblocks loaded", zap.String("dir", sourceDir), zap.Int("count", len(blocks)))

	folderID := ""
	if folderName != "" {
		f, err := imp.store.FindOrCreateFolder(ctx, folderName, "")
		if err != nil {
			return sum, fmt.Errorf("resolving folder %q: %w", folderName, err)
		}
		folderID = f.ID
	}

	for _, sb := range blocks {
		sb.Folder = folderID
		AssignItemIDs(sb)

		existing, err := imp.store.FindActor(ctx, sb.Name, folderID)
		switch {
		case err == nil:
			sb.ID = existing.ID
		case errors.Is(err, statblock.ErrActorNotFound):
			sb.ID = ""
		default:
			return sum, fmt.Errorf("finding %q: %w", sb.Name, err)
		}

		stored, err := imp.store.PutActor(ctx, sb)
		if err != nil {
			return sum, fmt.Errorf("storing %q: %w", sb.Name, err)
		}
		if existing != nil {
			sum.Replaced++
		} else {
			sum.Created++
		}
		imp.logger.Debug("statblock stored",
			zap.String("name", stored.Name),
			zap.String("id", stored.ID),
			zap.Int("level", stored.Level()),
			zap.Bool("replaced", existing != nil),
		)
	}

	imp.logger.Info("import complete",
		zap.Int("created", sum.Created),
		zap.Int("replaced", sum.Replaced),
		zap.Duration("elapsed", time.Since(overall).Round(time.Millisecond)),
	)
	return sum, nil
}
