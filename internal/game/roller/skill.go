package roller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pf2e-toolbox/internal/event"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// ErrUnknownSkill is returned for a skill the statblock has no modifier for.
var ErrUnknownSkill = errors.New("unknown skill")

// Perception is the check name that rolls the perception modifier.
const Perception = "perception"

var skillAbbreviations = map[string]string{
	"acr": "acrobatics",
	"arc": "arcana",
	"ath": "athletics",
	"cra": "crafting",
	"dec": "deception",
	"dip": "diplomacy",
	"itm": "intimidation",
	"med": "medicine",
	"nat": "nature",
	"occ": "occultism",
	"prf": "performance",
	"rel": "religion",
	"soc": "society",
	"ste": "stealth",
	"sur": "survival",
	"thi": "thievery",
	"per": Perception,
}

// SkillModifier returns actor's modifier for skill: perception, a standard
// skill or its three-letter abbreviation, or any lore item by name. Names
// are matched ignoring case.
func SkillModifier(actor *statblock.StatBlock, skill string) (int, error) {
	name := strings.ToLower(strings.TrimSpace(skill))
	if full, ok := skillAbbreviations[name]; ok {
		name = full
	}
	if name == Perception {
		return actor.Data.Attributes.Perception.Base, nil
	}
	for _, it := range actor.ItemsOfType(statblock.ItemLore) {
		if strings.EqualFold(strings.TrimSpace(it.Name), name) && it.Data.Mod != nil {
			return it.Data.Mod.Value, nil
		}
	}
	return 0, fmt.Errorf("%w: %q; %q has %s", ErrUnknownSkill, skill, actor.Name, strings.Join(Skills(actor), ", "))
}

// Skills lists the checks actor can roll, sorted, perception included.
func Skills(actor *statblock.StatBlock) []string {
	out := []string{Perception}
	for _, it := range actor.ItemsOfType(statblock.ItemLore) {
		if it.Data.Mod != nil {
			out = append(out, strings.ToLower(strings.TrimSpace(it.Name)))
		}
	}
	sort.Strings(out)
	return out
}

// RollSkill rolls 1d20 plus actor's modifier for skill. A secret check is
// published and logged like any other; callers must not show its total to
// players.
func (r *Roller) RollSkill(ctx context.Context, actor *statblock.StatBlock, skill string, secret bool) (event.SkillRolled, error) {
	mod, err := SkillModifier(actor, skill)
	if err != nil {
		return event.SkillRolled{}, err
	}
	res, err := r.dice.Roll(d20.WithModifier(mod))
	if err != nil {
		return event.SkillRolled{}, err
	}
	out := event.SkillRolled{
		ActorID: actor.ID,
		Name:    actor.Name,
		Skill:   strings.ToLower(strings.TrimSpace(skill)),
		Roll:    res.Dice[0],
		Total:   res.Total(),
		Secret:  secret,
	}
	if full, ok := skillAbbreviations[out.Skill]; ok {
		out.Skill = full
	}

	if r.events != nil {
		r.events.Publish(ctx, out)
	}
	r.logger.Info("skill rolled",
		zap.String("actor", actor.Name),
		zap.String("skill", out.Skill),
		zap.Int("total", out.Total),
		zap.Bool("secret", secret),
	)
	return out, nil
}
