package scaler

import (
	"fmt"
	"slices"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/reference"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// ActorFields computes the top-level field updates for actor: level,
// abilities, AC, perception, saves, hit points, resistances, weaknesses and
// the proficiency-without-level modifier.
// Categories the tables do not hold are left out.
func ActorFields(c Conversion, actor *statblock.StatBlock) (statblock.Fields, error) {
	d := &actor.Data
	fields := statblock.Fields{statblock.FieldLevel: c.To}

	if c.Tables.HasCategory(reference.AbilityScore) {
		for _, key := range statblock.AbilityKeys {
			a, _ := d.Abilities.Get(key)
			mod, err := c.Scalar(reference.AbilityScore, a.Mod)
			if err != nil {
				return nil, fmt.Errorf("ability %s: %w", key, err)
			}
			fields[statblock.AbilityField(key)] = statblock.AbilityFromMod(mod)
		}
	}

	scalars := []struct {
		cat   reference.Category
		path  string
		value int
	}{
		{reference.ArmorClass, statblock.FieldAC, d.Attributes.AC.Base},
		{reference.Perception, statblock.FieldPerception, d.Attributes.Perception.Base},
		{reference.SavingThrow, statblock.FieldFortitude, d.Saves.Fortitude.Base},
		{reference.SavingThrow, statblock.FieldReflex, d.Saves.Reflex.Base},
		{reference.SavingThrow, statblock.FieldWill, d.Saves.Will.Base},
	}
	for _, sc := range scalars {
		if !c.Tables.HasCategory(sc.cat) {
			continue
		}
		v, err := c.Scalar(sc.cat, sc.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sc.path, err)
		}
		fields[sc.path] = v
	}

	if c.Tables.HasCategory(reference.HitPoints) {
		hp, err := c.HitPoints(d.Attributes.HP.Max)
		if err != nil {
			return nil, fmt.Errorf("hit points: %w", err)
		}
		fields[statblock.FieldHPMax] = hp
		fields[statblock.FieldHPValue] = hp
	}

	lists := []struct {
		cat     reference.Category
		path    string
		entries []statblock.Resistance
	}{
		{reference.Resistance, statblock.FieldResistances, d.Attributes.Resistances},
		{reference.Weakness, statblock.FieldWeaknesses, d.Attributes.Weaknesses},
	}
	for _, l := range lists {
		if len(l.entries) == 0 || !c.Tables.HasCategory(l.cat) {
			continue
		}
		out, err := c.Resistances(l.cat, l.entries)
		if err != nil {
			return nil, err
		}
		fields[l.path] = out
	}

	// A flattened statblock stays flattened at its new level.
	if i := d.CustomModifiers.Find(FlattenModifier); i >= 0 {
		all := slices.Clone(d.CustomModifiers.All)
		all[i].Modifier = -c.To
		fields[statblock.FieldModifiers] = all
	}
	return fields, nil
}

// ItemUpdates computes the numeric updates for actor's skills, spellcasting
// entries and strikes. Items with nothing to update are omitted.
func ItemUpdates(c Conversion, actor *statblock.StatBlock) ([]statblock.ItemUpdate, error) {
	var updates []statblock.ItemUpdate
	for _, it := range actor.Items {
		fields, err := itemFields(c, it)
		if err != nil {
			return nil, fmt.Errorf("item %q (%s): %w", it.Name, it.Type, err)
		}
		if len(fields) > 0 {
			updates = append(updates, statblock.ItemUpdate{ID: it.ID, Fields: fields})
		}
	}
	return updates, nil
}

func itemFields(c Conversion, it statblock.Item) (statblock.Fields, error) {
	fields := statblock.Fields{}
	d := it.Data
	switch it.Type {
	case statblock.ItemLore:
		if d.Mod == nil || !c.Tables.HasCategory(reference.Skill) {
			break
		}
		v, err := c.Scalar(reference.Skill, d.Mod.Value)
		if err != nil {
			return nil, err
		}
		fields[statblock.FieldItemMod] = v

	case statblock.ItemSpellcasting:
		if d.SpellDC == nil {
			break
		}
		if c.Tables.HasCategory(reference.Spell) {
			v, err := c.Scalar(reference.Spell, d.SpellDC.Value)
			if err != nil {
				return nil, err
			}
			fields[statblock.FieldItemSpellAttack] = v
		}
		if c.Tables.HasCategory(reference.DifficultyClass) {
			v, err := c.Scalar(reference.DifficultyClass, d.SpellDC.DC)
			if err != nil {
				return nil, err
			}
			fields[statblock.FieldItemSpellDC] = v
		}

	case statblock.ItemMelee:
		if d.Bonus != nil && c.Tables.HasCategory(reference.StrikeAttack) {
			v, err := c.Scalar(reference.StrikeAttack, d.Bonus.Value)
			if err != nil {
				return nil, err
			}
			fields[statblock.FieldItemBonus] = v
			fields[statblock.FieldItemBonusTotal] = v
		}
		if !c.Tables.HasCategory(reference.StrikeDamage) {
			break
		}
		for i, roll := range d.DamageRolls {
			dmg, err := c.Damage(roll.Damage)
			if err != nil {
				return nil, err
			}
			fields[statblock.DamageRollField(i, "damage")] = dmg
			fields[statblock.DamageRollField(i, "damageType")] = roll.DamageType
		}
	}
	return fields, nil
}

// DescriptionUpdates applies rewrite to every item description and returns an
// update for each description that changed, or for every item when
// includeUnchanged is set.
func DescriptionUpdates(items []statblock.Item, rewrite func(string) (string, error), includeUnchanged bool) ([]statblock.ItemUpdate, error) {
	var updates []statblock.ItemUpdate
	for _, it := range items {
		text := it.Data.Description.Value
		out, err := rewrite(text)
		if err != nil {
			return nil, fmt.Errorf("description of %q: %w", it.Name, err)
		}
		if out == text && !includeUnchanged {
			continue
		}
		updates = append(updates, statblock.ItemUpdate{
			ID:     it.ID,
			Fields: statblock.Fields{statblock.FieldItemDescription: out},
		})
	}
	return updates, nil
}
