// Package statblock defines the creature statblock document and the dotted
// field paths used to update it.
package statblock

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/reference"
)

// ErrActorNotFound is returned by stores when no statblock matches a lookup.
var ErrActorNotFound = errors.New("actor not found")

// ErrFolderNotFound is returned by stores when a folder id does not resolve.
var ErrFolderNotFound = errors.New("folder not found")

// Item types with level-dependent numeric fields. Every other type only
// carries a description, except treasure, which carries a value.
const (
	ItemLore         = "lore"
	ItemSpellcasting = "spellcastingEntry"
	ItemMelee        = "melee"
	ItemTreasure     = "treasure"
)

// AbilityKeys lists the six abilities in sheet order.
var AbilityKeys = []string{"str", "dex", "con", "int", "wis", "cha"}

// SkillKeys lists the standard skills in sheet order. A lore item whose name
// equals one of them, ignoring case, holds that skill's modifier.
var SkillKeys = []string{
	"acrobatics", "arcana", "athletics", "crafting", "deception", "diplomacy",
	"intimidation", "medicine", "nature", "occultism", "performance",
	"religion", "society", "stealth", "survival", "thievery",
}

// StatBlock is a creature document as the store holds it.
type StatBlock struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Folder string `json:"folder" yaml:"folder"`
	Data   Data   `json:"data" yaml:"data"`
	Token  Token  `json:"token" yaml:"token"`
	Items  []Item `json:"items" yaml:"items,omitempty"`
}

// Data is the system payload of a statblock.
type Data struct {
	Details         Details         `json:"details" yaml:"details"`
	Abilities       Abilities       `json:"abilities" yaml:"abilities"`
	Attributes      Attributes      `json:"attributes" yaml:"attributes"`
	Saves           Saves           `json:"saves" yaml:"saves"`
	CustomModifiers CustomModifiers `json:"customModifiers" yaml:"customModifiers,omitempty"`
}

// CustomModifiers holds modifiers added on top of the statblock. All applies
// to every check and DC.
type CustomModifiers struct {
	All []Modifier `json:"all,omitempty" yaml:"all,omitempty"`
}

// Modifier is one named custom modifier.
type Modifier struct {
	Name     string `json:"name" yaml:"name"`
	Modifier int    `json:"modifier" yaml:"modifier"`
	Type     string `json:"type" yaml:"type"`
}

// Find returns the index of the modifier named name, or -1.
func (c CustomModifiers) Find(name string) int {
	for i, m := range c.All {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// IntValue wraps a number stored under a "value" key.
type IntValue struct {
	Value int `json:"value" yaml:"value"`
}

// TextValue wraps a string stored under a "value" key.
type TextValue struct {
	Value string `json:"value" yaml:"value"`
}

// Base wraps a number stored under a "base" key.
type Base struct {
	Base int `json:"base" yaml:"base"`
}

type Details struct {
	Level IntValue `json:"level" yaml:"level"`
	XP    IntValue `json:"xp" yaml:"xp"`
}

// Ability is one ability score. Mod is authoritative; Value is derived as
// 10 + 2*Mod when rescaled or built.
type Ability struct {
	Value int `json:"value" yaml:"value"`
	Min   int `json:"min" yaml:"min"`
	Mod   int `json:"mod" yaml:"mod"`
}

// AbilityFromMod returns the ability written for modifier mod.
func AbilityFromMod(mod int) Ability {
	return Ability{Value: 10 + 2*mod, Min: 3, Mod: mod}
}

type Abilities struct {
	Str Ability `json:"str" yaml:"str"`
	Dex Ability `json:"dex" yaml:"dex"`
	Con Ability `json:"con" yaml:"con"`
	Int Ability `json:"int" yaml:"int"`
	Wis Ability `json:"wis" yaml:"wis"`
	Cha Ability `json:"cha" yaml:"cha"`
}

// Get returns the ability stored under key.
//
// Postcondition: ok is false iff key is not one of AbilityKeys.
func (a *Abilities) Get(key string) (Ability, bool) {
	switch key {
	case "str":
		return a.Str, true
	case "dex":
		return a.Dex, true
	case "con":
		return a.Con, true
	case "int":
		return a.Int, true
	case "wis":
		return a.Wis, true
	case "cha":
		return a.Cha, true
	}
	return Ability{}, false
}

type Attributes struct {
	AC          Base         `json:"ac" yaml:"ac"`
	Perception  Base         `json:"perception" yaml:"perception"`
	HP          HP           `json:"hp" yaml:"hp"`
	HeroPoints  HeroPoints   `json:"heroPoints" yaml:"heroPoints"`
	Resistances []Resistance `json:"resistances,omitempty" yaml:"resistances,omitempty"`
	Weaknesses  []Resistance `json:"weaknesses,omitempty" yaml:"weaknesses,omitempty"`
}

type HP struct {
	Value int `json:"value" yaml:"value"`
	Max   int `json:"max" yaml:"max"`
}

type HeroPoints struct {
	Rank int `json:"rank" yaml:"rank"`
	Max  int `json:"max" yaml:"max"`
}

// Resistance is one resistance or weakness entry. Only Value is level
// dependent.
type Resistance struct {
	Type       string `json:"type" yaml:"type"`
	Value      int    `json:"value" yaml:"value"`
	Exceptions string `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
	Label      string `json:"label,omitempty" yaml:"label,omitempty"`
}

type Saves struct {
	Fortitude Base `json:"fortitude" yaml:"fortitude"`
	Reflex    Base `json:"reflex" yaml:"reflex"`
	Will      Base `json:"will" yaml:"will"`
}

// Token holds the prototype token display settings.
type Token struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Img         string `json:"img,omitempty" yaml:"img,omitempty"`
	DisplayBars int    `json:"displayBars" yaml:"displayBars"`
	DisplayName int    `json:"displayName" yaml:"displayName"`
	Disposition int    `json:"disposition" yaml:"disposition"`
	RandomImg   bool   `json:"randomImg" yaml:"randomImg"`
	Vision      bool   `json:"vision" yaml:"vision"`
	DimSight    int    `json:"dimSight" yaml:"dimSight"`
	BrightSight int    `json:"brightSight" yaml:"brightSight"`
}

// Item is an embedded document: a skill, spellcasting entry, strike, or any
// other entry with a description.
type Item struct {
	ID   string   `json:"id" yaml:"id"`
	Name string   `json:"name" yaml:"name"`
	Type string   `json:"type" yaml:"type"`
	Data ItemData `json:"data" yaml:"data"`
}

type ItemData struct {
	Description TextValue    `json:"description" yaml:"description"`
	Mod         *IntValue    `json:"mod,omitempty" yaml:"mod,omitempty"`
	SpellDC     *SpellDC     `json:"spelldc,omitempty" yaml:"spelldc,omitempty"`
	Bonus       *Bonus       `json:"bonus,omitempty" yaml:"bonus,omitempty"`
	DamageRolls []DamageRoll `json:"damageRolls,omitempty" yaml:"damageRolls,omitempty"`

	// Treasure only: Value coins of Denomination ("pp", "gp", "sp" or "cp")
	// per unit.
	Value        *IntValue  `json:"value,omitempty" yaml:"value,omitempty"`
	Quantity     *IntValue  `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Denomination *TextValue `json:"denomination,omitempty" yaml:"denomination,omitempty"`
}

// SpellDC holds a spellcasting entry's attack bonus (Value) and save DC.
type SpellDC struct {
	Value int `json:"value" yaml:"value"`
	DC    int `json:"dc" yaml:"dc"`
}

type Bonus struct {
	Value int `json:"value" yaml:"value"`
	Total int `json:"total" yaml:"total"`
}

type DamageRoll struct {
	Damage     string `json:"damage" yaml:"damage"`
	DamageType string `json:"damageType" yaml:"damageType"`
}

// Folder groups statblocks. Parent is empty for a root folder.
type Folder struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Parent string `json:"parent" yaml:"parent"`
}

// Level returns the statblock's level.
func (s *StatBlock) Level() int { return s.Data.Details.Level.Value }

// SkillKey returns the standard skill it holds when it is a lore item named
// after one.
func (it Item) SkillKey() (string, bool) {
	if it.Type != ItemLore {
		return "", false
	}
	key := strings.ToLower(strings.TrimSpace(it.Name))
	return key, slices.Contains(SkillKeys, key)
}

// ItemsOfType returns the items whose Type equals typ, in document order.
func (s *StatBlock) ItemsOfType(typ string) []Item {
	var out []Item
	for _, it := range s.Items {
		if it.Type == typ {
			out = append(out, it)
		}
	}
	return out
}

// Validate checks that the statblock satisfies basic invariants.
//
// Precondition: s must not be nil.
// Postcondition: Returns nil iff Name is non-empty, the level is within the
// reference range, and non-empty item ids are unique.
func (s *StatBlock) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("statblock: name must not be empty")
	}
	if lvl := s.Level(); lvl < reference.MinLevel || lvl > reference.MaxLevel {
		return fmt.Errorf("statblock %q: level %d must be in [%d, %d]", s.Name, lvl, reference.MinLevel, reference.MaxLevel)
	}
	seen := make(map[string]bool, len(s.Items))
	for i, it := range s.Items {
		if it.Type == "" {
			return fmt.Errorf("statblock %q: item %d (%q) has no type", s.Name, i, it.Name)
		}
		if it.ID == "" {
			continue
		}
		if seen[it.ID] {
			return fmt.Errorf("statblock %q: duplicate item id %q", s.Name, it.ID)
		}
		seen[it.ID] = true
	}
	return nil
}
