// Package roller rolls table-driven NPC attacks and damage, resolves group
// saving throws, and applies damage to stored statblocks.
package roller

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/event"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/dice"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/reference"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// ErrUnknownSave is returned for a save other than fortitude, reflex or will.
var ErrUnknownSave = errors.New("unknown save")

// ErrInvalidAmount is returned for a negative damage amount or unknown mode.
var ErrInvalidAmount = errors.New("invalid damage amount")

var d20 = dice.Expression{Raw: "1d20", Count: 1, Sides: 20}

// Store is the subset of the statblock store used to apply damage.
type Store interface {
	UpdateActor(ctx context.Context, id string, fields statblock.Fields) error
}

// Roller rolls against the reference tables.
type Roller struct {
	tables *reference.Tables
	dice   *dice.Roller
	store  Store
	events event.Publisher
	logger *zap.Logger
}

// New creates a Roller.
//
// Precondition: tables, src and logger must be non-nil. store may be nil when
// ApplyDamage is not used; events may be nil.
func New(tables *reference.Tables, src dice.Source, store Store, events event.Publisher, logger *zap.Logger) *Roller {
	return &Roller{
		tables: tables,
		dice:   dice.NewLoggedRoller(src, logger),
		store:  store,
		events: events,
		logger: logger,
	}
}

// RollDamage rolls the strike damage tabulated for rank at level. A critical
// doubles the total.
func (r *Roller) RollDamage(level int, rank reference.Rank, critical bool) (dice.RollResult, error) {
	expr, err := r.tables.Damage(level, rank)
	if err != nil {
		return dice.RollResult{}, err
	}
	if critical {
		return r.dice.RollCritical(expr)
	}
	return r.dice.Roll(expr)
}

// RollAttack rolls 1d20 plus the strike attack bonus tabulated for rank at
// level.
func (r *Roller) RollAttack(level int, rank reference.Rank) (dice.RollResult, error) {
	bonus, err := r.tables.Value(reference.StrikeAttack, level, rank)
	if err != nil {
		return dice.RollResult{}, err
	}
	return r.dice.Roll(d20.WithModifier(bonus))
}

// GroupSave rolls save for every actor and grades each total against dc.
//
// Postcondition: Returns one result per actor in input order; every Degree is
// None when dc is nil.
func (r *Roller) GroupSave(ctx context.Context, actors []*statblock.StatBlock, save string, dc *int) ([]event.SaveResult, error) {
	results := make([]event.SaveResult, 0, len(actors))
	for _, a := range actors {
		mod, err := SaveModifier(a, save)
		if err != nil {
			return nil, err
		}
		res, err := r.dice.Roll(d20.WithModifier(mod))
		if err != nil {
			return nil, err
		}
		results = append(results, event.SaveResult{
			ActorID: a.ID,
			Name:    a.Name,
			Roll:    res.Dice[0],
			Total:   res.Total(),
			Degree:  DegreeFor(res.Total(), dc).String(),
		})
	}

	if r.events != nil {
		r.events.Publish(ctx, event.GroupSaveRolled{Save: save, DC: dc, Results: results})
	}
	r.logger.Info("group save rolled", zap.String("save", save), zap.Int("actors", len(results)))
	return results, nil
}

// SaveModifier returns actor's base modifier for save.
func SaveModifier(actor *statblock.StatBlock, save string) (int, error) {
	s := actor.Data.Saves
	switch save {
	case "fortitude":
		return s.Fortitude.Base, nil
	case "reflex":
		return s.Reflex.Base, nil
	case "will":
		return s.Will.Base, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSave, save)
}

// ApplyDamage applies amount to actor's hit points under mode and writes the
// new value.
//
// Precondition: amount >= 0.
// Postcondition: The written value is clamped to [0, max hit points]; returns
// that value.
func (r *Roller) ApplyDamage(ctx context.Context, actor *statblock.StatBlock, amount int, mode DamageMode) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	delta, ok := mode.Delta(amount)
	if !ok {
		return 0, fmt.Errorf("%w: mode %q", ErrInvalidAmount, mode)
	}

	hp := actor.Data.Attributes.HP
	next := min(max(hp.Value-delta, 0), hp.Max)
	if err := r.store.UpdateActor(ctx, actor.ID, statblock.Fields{statblock.FieldHPValue: next}); err != nil {
		return 0, fmt.Errorf("applying damage to %q: %w", actor.Name, err)
	}

	if r.events != nil {
		r.events.Publish(ctx, event.DamageApplied{
			ActorID:  actor.ID,
			Name:     actor.Name,
			Amount:   amount,
			Mode:     string(mode),
			OldValue: hp.Value,
			NewValue: next,
		})
	}
	r.logger.Debug("damage applied",
		zap.String("actor", actor.Name),
		zap.String("mode", string(mode)),
		zap.Int("old", hp.Value),
		zap.Int("new", next),
	)
	return next, nil
}
