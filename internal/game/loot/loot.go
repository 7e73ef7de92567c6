// Package loot totals the coin value of treasure carried by a statblock and
// varies treasure values with a 1d4 draw.
package loot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/dice"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// Coins is an amount of currency by denomination. Denominations are never
// exchanged.
type Coins struct {
	PP int `json:"pp" yaml:"pp"`
	GP int `json:"gp" yaml:"gp"`
	SP int `json:"sp" yaml:"sp"`
	CP int `json:"cp" yaml:"cp"`
}

// CoinsOf returns n coins of denomination. An unknown denomination is worth
// nothing.
func CoinsOf(denomination string, n int) Coins {
	switch denomination {
	case "pp":
		return Coins{PP: n}
	case "gp":
		return Coins{GP: n}
	case "sp":
		return Coins{SP: n}
	case "cp":
		return Coins{CP: n}
	}
	return Coins{}
}

// Add returns the per-denomination sum of c and o.
func (c Coins) Add(o Coins) Coins {
	return Coins{PP: c.PP + o.PP, GP: c.GP + o.GP, SP: c.SP + o.SP, CP: c.CP + o.CP}
}

// Copper returns the total value in copper pieces.
func (c Coins) Copper() int {
	return c.PP*1000 + c.GP*100 + c.SP*10 + c.CP
}

// String lists the non-zero denominations, largest first, e.g.
// "2 pp, 15 gp". No coins renders as "0 gp".
func (c Coins) String() string {
	var parts []string
	for _, d := range []struct {
		n    int
		name string
	}{{c.PP, "pp"}, {c.GP, "gp"}, {c.SP, "sp"}, {c.CP, "cp"}} {
		if d.n != 0 {
			parts = append(parts, strconv.Itoa(d.n)+" "+d.name)
		}
	}
	if len(parts) == 0 {
		return "0 gp"
	}
	return strings.Join(parts, ", ")
}

// Wealth sums value times quantity of every treasure item with a
// denomination. A missing value or quantity counts as 1.
func Wealth(items []statblock.Item) Coins {
	var total Coins
	for _, it := range items {
		d := it.Data
		if it.Type != statblock.ItemTreasure || d.Denomination == nil {
			continue
		}
		value, quantity := 1, 1
		if d.Value != nil {
			value = d.Value.Value
		}
		if d.Quantity != nil {
			quantity = d.Quantity.Value
		}
		total = total.Add(CoinsOf(d.Denomination.Value, value*quantity))
	}
	return total
}

var d4 = dice.Expression{Raw: "1d4", Count: 1, Sides: 4}

// Store is the subset of the statblock store used to rewrite treasure.
type Store interface {
	UpdateItems(ctx context.Context, actorID string, updates []statblock.ItemUpdate) error
	GetActor(ctx context.Context, id string) (*statblock.StatBlock, error)
}

// Appraiser varies the treasure a statblock carries.
type Appraiser struct {
	store  Store
	dice   *dice.Roller
	logger *zap.Logger
}

// NewAppraiser creates an Appraiser.
//
// Precondition: store, src and logger must be non-nil.
func NewAppraiser(store Store, src dice.Source, logger *zap.Logger) *Appraiser {
	return &Appraiser{store: store, dice: dice.NewLoggedRoller(src, logger), logger: logger}
}

// Vary multiplies the value of each of actor's treasure items by its own
// 1d4 roll and writes the new values in one batch.
//
// Postcondition: Returns the actor as re-read after the write; treasure
// without a value is left as is.
func (a *Appraiser) Vary(ctx context.Context, actor *statblock.StatBlock) (*statblock.StatBlock, error) {
	var updates []statblock.ItemUpdate
	for _, it := range actor.ItemsOfType(statblock.ItemTreasure) {
		if it.Data.Value == nil {
			continue
		}
		res, err := a.dice.Roll(d4)
		if err != nil {
			return nil, err
		}
		updates = append(updates, statblock.ItemUpdate{
			ID:     it.ID,
			Fields: statblock.Fields{statblock.FieldItemValue: res.Total() * it.Data.Value.Value},
		})
	}
	if len(updates) == 0 {
		return actor, nil
	}
	if err := a.store.UpdateItems(ctx, actor.ID, updates); err != nil {
		return nil, fmt.Errorf("varying treasure of %q: %w", actor.Name, err)
	}
	out, err := a.store.GetActor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	a.logger.Info("treasure varied",
		zap.String("actor", actor.Name),
		zap.Int("items", len(updates)),
		zap.Stringer("wealth", Wealth(out.Items)),
	)
	return out, nil
}
