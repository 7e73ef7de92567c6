package builder

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/reference"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

//go:embed roadmaps.yaml
var defaultRoadmaps []byte

// ErrUnknownRoadmap is returned by FindRoadmap for a name no roadmap has.
var ErrUnknownRoadmap = errors.New("unknown roadmap")

// Roadmap is a named creature archetype: a partial set of ranks layered over
// Defaults.
type Roadmap struct {
	Name    string  `yaml:"name"`
	Tooltip string  `yaml:"tooltip"`
	Values  Choices `yaml:"values"`
}

// Choices returns the roadmap's ranks over Defaults at level.
func (r Roadmap) Choices(level int) Choices {
	return Overlay(Defaults(level), r.Values)
}

// Defaults returns every core statistic at moderate, with no skills and no
// spellcasting.
func Defaults(level int) Choices {
	abilities := make(map[string]reference.Rank, len(statblock.AbilityKeys))
	for _, key := range statblock.AbilityKeys {
		abilities[key] = reference.Moderate
	}
	return Choices{
		Level:        level,
		Abilities:    abilities,
		Perception:   reference.Moderate,
		ArmorClass:   reference.Moderate,
		HitPoints:    reference.Moderate,
		Fortitude:    reference.Moderate,
		Reflex:       reference.Moderate,
		Will:         reference.Moderate,
		StrikeAttack: reference.Moderate,
		StrikeDamage: reference.Moderate,
	}
}

// Overlay returns base with every rank top sets replacing base's. Map
// entries are merged key by key. The level stays base's.
func Overlay(base, top Choices) Choices {
	out := base
	out.Abilities = overlayMap(base.Abilities, top.Abilities)
	out.Skills = overlayMap(base.Skills, top.Skills)

	ranks := []struct {
		dst *reference.Rank
		src reference.Rank
	}{
		{&out.Perception, top.Perception},
		{&out.ArmorClass, top.ArmorClass},
		{&out.HitPoints, top.HitPoints},
		{&out.Fortitude, top.Fortitude},
		{&out.Reflex, top.Reflex},
		{&out.Will, top.Will},
		{&out.StrikeAttack, top.StrikeAttack},
		{&out.StrikeDamage, top.StrikeDamage},
		{&out.Spellcasting, top.Spellcasting},
	}
	for _, r := range ranks {
		if r.src != "" {
			*r.dst = r.src
		}
	}
	return out
}

func overlayMap(base, top map[string]reference.Rank) map[string]reference.Rank {
	if len(base) == 0 && len(top) == 0 {
		return nil
	}
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]reference.Rank, len(top))
	}
	for k, v := range top {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// LoadRoadmaps parses a YAML list of roadmaps.
//
// Postcondition: Returns an error for a roadmap without a name or for two
// roadmaps whose names differ only in case.
func LoadRoadmaps(data []byte) ([]Roadmap, error) {
	var roadmaps []Roadmap
	if err := yaml.Unmarshal(data, &roadmaps); err != nil {
		return nil, fmt.Errorf("parsing roadmaps: %w", err)
	}
	seen := make(map[string]bool, len(roadmaps))
	for i, r := range roadmaps {
		if r.Name == "" {
			return nil, fmt.Errorf("roadmap %d has no name", i)
		}
		key := strings.ToLower(r.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate roadmap %q", r.Name)
		}
		seen[key] = true
	}
	return roadmaps, nil
}

// DefaultRoadmaps returns the embedded roadmaps in declaration order.
func DefaultRoadmaps() ([]Roadmap, error) {
	return LoadRoadmaps(defaultRoadmaps)
}

// FindRoadmap returns the roadmap named name, ignoring case.
func FindRoadmap(roadmaps []Roadmap, name string) (Roadmap, error) {
	for _, r := range roadmaps {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return Roadmap{}, fmt.Errorf("%w: %q", ErrUnknownRoadmap, name)
}
