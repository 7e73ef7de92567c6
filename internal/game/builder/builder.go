// Package builder sets a statblock's core statistics straight from the
// reference tables, one rank per statistic.
package builder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/event"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/dice"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/reference"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// None leaves a statistic unset, like an empty rank.
const None reference.Rank = "none"

// Choices names the rank picked for each statistic at Level. An empty rank
// or None leaves that statistic unset.
type Choices struct {
	Level      int                       `yaml:"level"`
	Abilities  map[string]reference.Rank `yaml:"abilities,omitempty"`
	Perception reference.Rank            `yaml:"perception,omitempty"`
	ArmorClass reference.Rank            `yaml:"armorClass,omitempty"`
	HitPoints  reference.Rank            `yaml:"hitPoints,omitempty"`
	Fortitude  reference.Rank            `yaml:"fortitude,omitempty"`
	Reflex     reference.Rank            `yaml:"reflex,omitempty"`
	Will       reference.Rank            `yaml:"will,omitempty"`
	// Skills is keyed by statblock.SkillKeys and written to the matching
	// lore items.
	Skills map[string]reference.Rank `yaml:"skills,omitempty"`
	// StrikeAttack and StrikeDamage are written to every melee item.
	StrikeAttack reference.Rank `yaml:"strikeAttack,omitempty"`
	StrikeDamage reference.Rank `yaml:"strikeDamage,omitempty"`
	// Spellcasting sets the attack bonus (spell) and save DC
	// (difficultyClass) of every spellcasting entry.
	Spellcasting reference.Rank `yaml:"spellcasting,omitempty"`
}

func unset(r reference.Rank) bool { return r == "" || r == None }

// Build returns the actor fields for choices. Item choices are validated
// here too; BuildItems turns them into item updates.
//
// Precondition: tables must be non-nil.
// Postcondition: Returns reference.ErrLevelOutOfRange for a level without
// rows, reference.ErrUnknownRank for a rank a category does not hold, or an
// error naming an unknown ability or skill key. Hit points take the band
// maximum.
func Build(tables *reference.Tables, choices Choices) (statblock.Fields, error) {
	if !tables.HasLevel(choices.Level) {
		return nil, fmt.Errorf("%w: %d", reference.ErrLevelOutOfRange, choices.Level)
	}
	fields := statblock.Fields{statblock.FieldLevel: choices.Level}

	for key, rank := range choices.Abilities {
		if !slices.Contains(statblock.AbilityKeys, key) {
			return nil, fmt.Errorf("unknown ability %q", key)
		}
		if unset(rank) {
			continue
		}
		mod, err := tables.Value(reference.AbilityScore, choices.Level, rank)
		if err != nil {
			return nil, fmt.Errorf("ability %s: %w", key, err)
		}
		fields[statblock.AbilityField(key)] = statblock.AbilityFromMod(mod)
	}

	scalars := []struct {
		cat  reference.Category
		path string
		rank reference.Rank
	}{
		{reference.Perception, statblock.FieldPerception, choices.Perception},
		{reference.ArmorClass, statblock.FieldAC, choices.ArmorClass},
		{reference.SavingThrow, statblock.FieldFortitude, choices.Fortitude},
		{reference.SavingThrow, statblock.FieldReflex, choices.Reflex},
		{reference.SavingThrow, statblock.FieldWill, choices.Will},
	}
	for _, sc := range scalars {
		if unset(sc.rank) {
			continue
		}
		v, err := tables.Value(sc.cat, choices.Level, sc.rank)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sc.path, err)
		}
		fields[sc.path] = v
	}

	if !unset(choices.HitPoints) {
		r, err := tables.HitPointRange(choices.Level, choices.HitPoints)
		if err != nil {
			return nil, fmt.Errorf("hit points: %w", err)
		}
		fields[statblock.FieldHPMax] = r.Maximum
		fields[statblock.FieldHPValue] = r.Maximum
	}

	if _, err := resolveItems(tables, choices); err != nil {
		return nil, err
	}
	return fields, nil
}

// itemValues holds the tabulated values the item choices resolve to. A nil
// pointer marks a statistic left unset.
type itemValues struct {
	strikeBonus *int
	damage      *dice.Expression
	spellAttack *int
	spellDC     *int
	skills      map[string]int
}

func resolveItems(tables *reference.Tables, choices Choices) (itemValues, error) {
	var out itemValues
	lookup := func(cat reference.Category, rank reference.Rank) (*int, error) {
		if unset(rank) {
			return nil, nil
		}
		v, err := tables.Value(cat, choices.Level, rank)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cat, err)
		}
		return &v, nil
	}

	var err error
	if out.strikeBonus, err = lookup(reference.StrikeAttack, choices.StrikeAttack); err != nil {
		return out, err
	}
	if out.spellAttack, err = lookup(reference.Spell, choices.Spellcasting); err != nil {
		return out, err
	}
	if out.spellDC, err = lookup(reference.DifficultyClass, choices.Spellcasting); err != nil {
		return out, err
	}
	if !unset(choices.StrikeDamage) {
		expr, err := tables.Damage(choices.Level, choices.StrikeDamage)
		if err != nil {
			return out, fmt.Errorf("%s: %w", reference.StrikeDamage, err)
		}
		out.damage = &expr
	}

	for key, rank := range choices.Skills {
		if !slices.Contains(statblock.SkillKeys, key) {
			return out, fmt.Errorf("unknown skill %q", key)
		}
		v, err := lookup(reference.Skill, rank)
		if err != nil {
			return out, fmt.Errorf("skill %s: %w", key, err)
		}
		if v == nil {
			continue
		}
		if out.skills == nil {
			out.skills = make(map[string]int)
		}
		out.skills[key] = *v
	}
	return out, nil
}

// BuildItems returns the item updates for the strike, spellcasting and skill
// choices against items. Strike damage replaces the first damage roll of
// each melee item and keeps its damage type.
//
// Precondition: tables must be non-nil.
// Postcondition: Returns the same errors as Build for invalid choices; items
// with nothing chosen for them are omitted.
func BuildItems(tables *reference.Tables, choices Choices, items []statblock.Item) ([]statblock.ItemUpdate, error) {
	if !tables.HasLevel(choices.Level) {
		return nil, fmt.Errorf("%w: %d", reference.ErrLevelOutOfRange, choices.Level)
	}
	values, err := resolveItems(tables, choices)
	if err != nil {
		return nil, err
	}

	var updates []statblock.ItemUpdate
	for _, it := range items {
		fields := statblock.Fields{}
		switch it.Type {
		case statblock.ItemMelee:
			if values.strikeBonus != nil {
				fields[statblock.FieldItemBonus] = *values.strikeBonus
				fields[statblock.FieldItemBonusTotal] = *values.strikeBonus
			}
			if values.damage != nil && len(it.Data.DamageRolls) > 0 {
				fields[statblock.DamageRollField(0, "damage")] = values.damage.Formula()
			}
		case statblock.ItemSpellcasting:
			if values.spellAttack != nil {
				fields[statblock.FieldItemSpellAttack] = *values.spellAttack
				fields[statblock.FieldItemSpellDC] = *values.spellDC
			}
		case statblock.ItemLore:
			if key, ok := it.SkillKey(); ok {
				if v, chosen := values.skills[key]; chosen {
					fields[statblock.FieldItemMod] = v
				}
			}
		}
		if len(fields) > 0 {
			updates = append(updates, statblock.ItemUpdate{ID: it.ID, Fields: fields})
		}
	}
	return updates, nil
}

// MissingSkills returns the chosen skills, sorted, that no lore item in
// items holds.
func MissingSkills(choices Choices, items []statblock.Item) []string {
	have := make(map[string]bool)
	for _, it := range items {
		if key, ok := it.SkillKey(); ok {
			have[key] = true
		}
	}
	var missing []string
	for key, rank := range choices.Skills {
		if !unset(rank) && !have[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// Updater writes partial actor and item updates.
type Updater interface {
	UpdateActor(ctx context.Context, id string, fields statblock.Fields) error
	UpdateItems(ctx context.Context, actorID string, updates []statblock.ItemUpdate) error
	GetActor(ctx context.Context, id string) (*statblock.StatBlock, error)
}

// Builder applies Choices to stored actors.
type Builder struct {
	tables *reference.Tables
	store  Updater
	events event.Publisher
	logger *zap.Logger
}

// New creates a Builder. events may be nil.
func New(tables *reference.Tables, store Updater, events event.Publisher, logger *zap.Logger) *Builder {
	return &Builder{tables: tables, store: store, events: events, logger: logger}
}

// Apply builds choices and writes them to the actor with actorID: one actor
// update, then one item update batch.
//
// Postcondition: Returns the updated actor, or an error. Invalid choices
// write nothing; chosen skills without a lore item are logged and skipped.
func (b *Builder) Apply(ctx context.Context, actorID string, choices Choices) (*statblock.StatBlock, error) {
	if actorID == "" {
		return nil, errors.New("actor id must not be empty")
	}
	actor, err := b.store.GetActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	fields, err := Build(b.tables, choices)
	if err != nil {
		return nil, err
	}
	items, err := BuildItems(b.tables, choices, actor.Items)
	if err != nil {
		return nil, err
	}
	if missing := MissingSkills(choices, actor.Items); len(missing) > 0 {
		b.logger.Warn("chosen skills have no lore item",
			zap.String("actor", actor.Name),
			zap.Strings("skills", missing),
		)
	}

	if err := b.store.UpdateActor(ctx, actorID, fields); err != nil {
		return nil, fmt.Errorf("writing built statistics: %w", err)
	}
	if len(items) > 0 {
		if err := b.store.UpdateItems(ctx, actorID, items); err != nil {
			return nil, fmt.Errorf("writing built items: %w", err)
		}
	}
	actor, err = b.store.GetActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("re-reading built actor: %w", err)
	}

	if b.events != nil {
		b.events.Publish(ctx, event.ActorBuilt{ActorID: actor.ID, Name: actor.Name, Level: actor.Level()})
	}
	b.logger.Info("actor built",
		zap.String("actor", actor.Name),
		zap.Int("level", actor.Level()),
		zap.Int("fields", len(fields)),
		zap.Int("items", len(items)),
	)
	return actor, nil
}
