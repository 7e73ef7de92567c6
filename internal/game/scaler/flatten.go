package scaler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/event"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// FlattenModifier names the custom modifier that removes level from every
// check and DC.
const FlattenModifier = "Proficiency Without Level"

var (
	// ErrNotNPC is returned when flattening a statblock that is not an npc.
	ErrNotNPC = errors.New("not an npc")
	// ErrAlreadyFlattened is returned by Flatten when the modifier is present.
	ErrAlreadyFlattened = errors.New("already flattened")
	// ErrNotFlattened is returned by Unflatten when the modifier is absent.
	ErrNotFlattened = errors.New("not flattened")
)

// IsFlattened reports whether actor carries FlattenModifier.
func IsFlattened(actor *statblock.StatBlock) bool {
	return actor.Data.CustomModifiers.Find(FlattenModifier) >= 0
}

// Flatten adds an untyped FlattenModifier of minus actor's level to every
// check and DC.
//
// Postcondition: Returns the actor as re-read after the write, or
// ErrNotNPC or ErrAlreadyFlattened with nothing written.
func (s *Scaler) Flatten(ctx context.Context, actor *statblock.StatBlock) (*statblock.StatBlock, error) {
	if actor.Type != "npc" {
		return nil, fmt.Errorf("flattening %q: %w", actor.Name, ErrNotNPC)
	}
	if IsFlattened(actor) {
		return nil, fmt.Errorf("flattening %q: %w", actor.Name, ErrAlreadyFlattened)
	}
	mod := statblock.Modifier{Name: FlattenModifier, Modifier: -actor.Level(), Type: "untyped"}
	all := append(slices.Clone(actor.Data.CustomModifiers.All), mod)
	return s.writeModifiers(ctx, actor, all, mod.Modifier, true)
}

// Unflatten removes FlattenModifier from actor.
//
// Postcondition: Returns the actor as re-read after the write, or
// ErrNotNPC or ErrNotFlattened with nothing written. Other custom modifiers
// are kept in order.
func (s *Scaler) Unflatten(ctx context.Context, actor *statblock.StatBlock) (*statblock.StatBlock, error) {
	if actor.Type != "npc" {
		return nil, fmt.Errorf("unflattening %q: %w", actor.Name, ErrNotNPC)
	}
	i := actor.Data.CustomModifiers.Find(FlattenModifier)
	if i < 0 {
		return nil, fmt.Errorf("unflattening %q: %w", actor.Name, ErrNotFlattened)
	}
	removed := actor.Data.CustomModifiers.All[i].Modifier
	all := slices.Delete(slices.Clone(actor.Data.CustomModifiers.All), i, i+1)
	return s.writeModifiers(ctx, actor, all, removed, false)
}

func (s *Scaler) writeModifiers(ctx context.Context, actor *statblock.StatBlock, all []statblock.Modifier, mod int, flattened bool) (*statblock.StatBlock, error) {
	if all == nil {
		all = []statblock.Modifier{}
	}
	if err := s.store.UpdateActor(ctx, actor.ID, statblock.Fields{statblock.FieldModifiers: all}); err != nil {
		return nil, fmt.Errorf("writing modifiers of %q: %w", actor.Name, err)
	}
	out, err := s.store.GetActor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Publish(ctx, event.ActorFlattened{ActorID: out.ID, Name: out.Name, Modifier: mod, Flattened: flattened})
	}
	s.logger.Info("proficiency without level changed",
		zap.String("actor", out.Name),
		zap.Int("modifier", mod),
		zap.Bool("flattened", flattened),
	)
	return out, nil
}
