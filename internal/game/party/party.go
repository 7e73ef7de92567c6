// Package party distributes experience and hero points across a group of
// statblocks.
package party

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// Updater writes partial actor updates.
type Updater interface {
	UpdateActor(ctx context.Context, id string, fields statblock.Fields) error
}

// Distributor writes party-wide awards.
type Distributor struct {
	store  Updater
	logger *zap.Logger
}

// NewDistributor creates a Distributor.
//
// Precondition: store and logger must be non-nil.
func NewDistributor(store Updater, logger *zap.Logger) *Distributor {
	return &Distributor{store: store, logger: logger}
}

// DistributeXP adds amount to each actor's experience.
//
// Postcondition: Returns the number of actors updated, stopping at the first
// failed write.
func (d *Distributor) DistributeXP(ctx context.Context, actors []*statblock.StatBlock, amount int) (int, error) {
	n := 0
	for _, a := range actors {
		xp := a.Data.Details.XP.Value + amount
		if err := d.store.UpdateActor(ctx, a.ID, statblock.Fields{statblock.FieldXP: xp}); err != nil {
			return n, fmt.Errorf("awarding xp to %q: %w", a.Name, err)
		}
		n++
	}
	d.logger.Info("xp distributed", zap.Int("amount", amount), zap.Int("actors", n))
	return n, nil
}

// DistributeHeroPoints raises each actor's hero points by amount, capped at
// maxPoints. Actors already at the cap are skipped.
//
// Postcondition: Returns the number of actors updated, stopping at the first
// failed write.
func (d *Distributor) DistributeHeroPoints(ctx context.Context, actors []*statblock.StatBlock, amount, maxPoints int) (int, error) {
	n := 0
	for _, a := range actors {
		rank := a.Data.Attributes.HeroPoints.Rank
		if rank == maxPoints {
			continue
		}
		next := min(rank+amount, maxPoints)
		if err := d.store.UpdateActor(ctx, a.ID, statblock.Fields{statblock.FieldHeroPoints: next}); err != nil {
			return n, fmt.Errorf("awarding hero points to %q: %w", a.Name, err)
		}
		n++
	}
	d.logger.Info("hero points distributed",
		zap.Int("amount", amount),
		zap.Int("max", maxPoints),
		zap.Int("actors", n),
	)
	return n, nil
}
