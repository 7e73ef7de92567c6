// Package scaler rescales creature statblocks from one level to another while
// preserving each statistic's standing relative to the reference tables.
package scaler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/config"
	"github.com/cory-johannsen/pf2e-toolbox/internal/event"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/reference"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// Store is the document store a Scaler writes through. Partial updates are
// merged by the store.
type Store interface {
	// FindActor returns the statblock named name in folderID, or an error
	// wrapping statblock.ErrActorNotFound.
	FindActor(ctx context.Context, name, folderID string) (*statblock.StatBlock, error)
	FindOrCreateFolder(ctx context.Context, name, parentID string) (*statblock.Folder, error)
	// CloneActor stores a copy of src with fields applied, keeping item ids.
	CloneActor(ctx context.Context, src *statblock.StatBlock, fields statblock.Fields) (*statblock.StatBlock, error)
	UpdateActor(ctx context.Context, id string, fields statblock.Fields) error
	UpdateItems(ctx context.Context, actorID string, updates []statblock.ItemUpdate) error
	GetActor(ctx context.Context, id string) (*statblock.StatBlock, error)
}

// TokenDefaults are written to every rescaled statblock when enabled.
var TokenDefaults = statblock.Fields{
	statblock.FieldTokenDisplayBars: 40,
	statblock.FieldTokenDisplayName: 50,
	statblock.FieldTokenDisposition: -1,
	statblock.FieldTokenRandomImg:   true,
	statblock.FieldTokenVision:      false,
	statblock.FieldTokenDimSight:    120,
	statblock.FieldTokenBrightSight: 60,
}

// Scaler rescales statblocks and writes the result to a Store.
type Scaler struct {
	tables *reference.Tables
	store  Store
	cfg    config.ScalerConfig
	events event.Publisher
	logger *zap.Logger
}

// New creates a Scaler.
//
// Precondition: tables, store and logger must be non-nil. events may be nil.
func New(tables *reference.Tables, store Store, cfg config.ScalerConfig, events event.Publisher, logger *zap.Logger) *Scaler {
	return &Scaler{tables: tables, store: store, cfg: cfg, events: events, logger: logger}
}

// LevelFolderName returns the output folder name for level.
func LevelFolderName(level int) string {
	return fmt.Sprintf("Level %d", level)
}

// Rescale writes a copy of actor scaled to newLevel into the "Level N" folder
// under the configured output folder, updating an existing copy of the same
// name in place.
//
// Precondition: actor must have been read from the Scaler's store.
// Postcondition: Returns the target as re-read after the last batch, or the
// first error. Batches already applied are not rolled back.
func (s *Scaler) Rescale(ctx context.Context, actor *statblock.StatBlock, newLevel int) (*statblock.StatBlock, error) {
	conv, err := NewConversion(s.tables, actor.Level(), newLevel)
	if err != nil {
		return nil, fmt.Errorf("rescaling %q: %w", actor.Name, err)
	}
	log := s.logger.With(
		zap.String("actor", actor.Name),
		zap.Int("from", conv.From),
		zap.Int("to", conv.To),
	)

	folder, err := s.outputFolder(ctx, newLevel)
	if err != nil {
		return nil, err
	}

	fields, err := ActorFields(conv, actor)
	if err != nil {
		return nil, fmt.Errorf("rescaling %q: %w", actor.Name, err)
	}
	fields[statblock.FieldFolder] = folder.ID

	itemUpdates, err := ItemUpdates(conv, actor)
	if err != nil {
		return nil, fmt.Errorf("rescaling %q: %w", actor.Name, err)
	}

	target, created, err := s.writeActor(ctx, actor, folder, fields)
	if err != nil {
		return nil, err
	}
	// An existing target carries descriptions from an earlier rescale; reset
	// all of them from the source so the damage pass does not compound.
	dcUpdates, err := DescriptionUpdates(actor.Items, conv.DCText, !created)
	if err != nil {
		return nil, fmt.Errorf("rescaling %q: %w", actor.Name, err)
	}
	log = log.With(zap.String("target", target.ID))
	log.Debug("actor fields written", zap.Int("fields", len(fields)), zap.Bool("created", created))

	if err := s.updateItems(ctx, target.ID, itemUpdates); err != nil {
		return nil, err
	}
	log.Debug("item fields written", zap.Int("items", len(itemUpdates)))

	if err := s.updateItems(ctx, target.ID, dcUpdates); err != nil {
		return nil, err
	}
	log.Debug("dc descriptions written", zap.Int("items", len(dcUpdates)))

	target, err = s.store.GetActor(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("re-reading rescaled %q: %w", actor.Name, err)
	}
	dmgUpdates, err := DescriptionUpdates(target.Items, conv.DamageText, false)
	if err != nil {
		return nil, fmt.Errorf("rescaling %q: %w", actor.Name, err)
	}
	if err := s.updateItems(ctx, target.ID, dmgUpdates); err != nil {
		return nil, err
	}
	log.Debug("damage descriptions written", zap.Int("items", len(dmgUpdates)))

	if s.cfg.TokenDefaults {
		if err := s.store.UpdateActor(ctx, target.ID, TokenDefaults); err != nil {
			return nil, fmt.Errorf("writing token defaults for %q: %w", actor.Name, err)
		}
	}

	target, err = s.store.GetActor(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("re-reading rescaled %q: %w", actor.Name, err)
	}

	if s.events != nil {
		s.events.Publish(ctx, event.ActorRescaled{
			SourceID:  actor.ID,
			TargetID:  target.ID,
			Name:      target.Name,
			FolderID:  folder.ID,
			FromLevel: conv.From,
			ToLevel:   conv.To,
			Created:   created,
		})
	}
	log.Info("actor rescaled", zap.Bool("created", created))
	return target, nil
}

// RescaleRange rescales actor to every level from from to to inclusive, one
// level at a time, stepping downward when from > to.
//
// Postcondition: Returns the targets in the order written, stopping at the
// first error.
func (s *Scaler) RescaleRange(ctx context.Context, actor *statblock.StatBlock, from, to int) ([]*statblock.StatBlock, error) {
	step := 1
	if from > to {
		step = -1
	}
	var out []*statblock.StatBlock
	for l := from; ; l += step {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		target, err := s.Rescale(ctx, actor, l)
		if err != nil {
			return out, err
		}
		out = append(out, target)
		if l == to {
			return out, nil
		}
	}
}

func (s *Scaler) outputFolder(ctx context.Context, level int) (*statblock.Folder, error) {
	parentID := ""
	if root := strings.TrimSpace(s.cfg.OutputFolder); root != "" {
		f, err := s.store.FindOrCreateFolder(ctx, root, "")
		if err != nil {
			return nil, fmt.Errorf("resolving output folder %q: %w", root, err)
		}
		parentID = f.ID
	}
	name := LevelFolderName(level)
	f, err := s.store.FindOrCreateFolder(ctx, name, parentID)
	if err != nil {
		return nil, fmt.Errorf("resolving folder %q: %w", name, err)
	}
	return f, nil
}

func (s *Scaler) writeActor(ctx context.Context, actor *statblock.StatBlock, folder *statblock.Folder, fields statblock.Fields) (*statblock.StatBlock, bool, error) {
	existing, err := s.store.FindActor(ctx, actor.Name, folder.ID)
	switch {
	case err == nil:
		if err := s.store.UpdateActor(ctx, existing.ID, fields); err != nil {
			return nil, false, fmt.Errorf("updating %q in %q: %w", actor.Name, folder.Name, err)
		}
		return existing, false, nil
	case errors.Is(err, statblock.ErrActorNotFound):
		clone, err := s.store.CloneActor(ctx, actor, fields)
		if err != nil {
			return nil, false, fmt.Errorf("cloning %q into %q: %w", actor.Name, folder.Name, err)
		}
		return clone, true, nil
	default:
		return nil, false, fmt.Errorf("finding %q in %q: %w", actor.Name, folder.Name, err)
	}
}

func (s *Scaler) updateItems(ctx context.Context, actorID string, updates []statblock.ItemUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if err := s.store.UpdateItems(ctx, actorID, updates); err != nil {
		return fmt.Errorf("updating items of %q: %w", actorID, err)
	}
	return nil
}
