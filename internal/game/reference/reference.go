// Package reference provides the per-level creature-building reference tables
// used to build and rescale statblocks.
package reference

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/dice"
)

// MinLevel and MaxLevel bound every table.
const (
	MinLevel = -1
	MaxLevel = 24
)

// Rank is a qualitative bucket within a level's row.
type Rank string

const (
	Extreme  Rank = "extreme"
	High     Rank = "high"
	Moderate Rank = "moderate"
	Low      Rank = "low"
	Terrible Rank = "terrible"
	Abysmal  Rank = "abysmal"
	Maximum  Rank = "maximum"
	Minimum  Rank = "minimum"
)

// Category names a tracked statistic.
type Category string

const (
	AbilityScore    Category = "abilityScore"
	Perception      Category = "perception"
	ArmorClass      Category = "armorClass"
	SavingThrow     Category = "savingThrow"
	Skill           Category = "skill"
	Spell           Category = "spell"
	DifficultyClass Category = "difficultyClass"
	StrikeAttack    Category = "strikeAttack"
	Resistance      Category = "resistance"
	Weakness        Category = "weakness"
	HitPoints       Category = "hitPoints"
	StrikeDamage    Category = "strikeDamage"
)

// ScalarCategories lists the categories whose rows hold a single value per rank.
var ScalarCategories = []Category{
	AbilityScore, Perception, ArmorClass, SavingThrow, Skill,
	Spell, DifficultyClass, StrikeAttack, Resistance, Weakness,
}

var (
	// ErrLevelOutOfRange is returned for levels outside [MinLevel, MaxLevel].
	ErrLevelOutOfRange = errors.New("level out of range")
	// ErrUnknownCategory is returned for a category the tables do not hold.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownRank is returned for a rank the category does not hold.
	ErrUnknownRank = errors.New("unknown rank")
)

// Entry is one rank's value in a scalar row.
type Entry struct {
	Rank  Rank
	Value int
}

// HPRange is a hit point band; Minimum <= Maximum.
type HPRange struct {
	Minimum int
	Maximum int
}

// RangeEntry is one rank's band in the hit point row.
type RangeEntry struct {
	Rank  Rank
	Range HPRange
}

// DamageEntry is one rank's canonical strike damage.
type DamageEntry struct {
	Rank       Rank
	Expression dice.Expression
}

// Tables holds every reference row. It is immutable after loading and safe
// for concurrent reads.
type Tables struct {
	scalars   map[Category]scalarTable
	hitPoints rangeTable
	damage    damageTable
}

type scalarTable struct {
	ranks []Rank
	rows  [][]int // [level+1][rank index]; nil for an absent level
}

type rangeTable struct {
	ranks []Rank
	rows  [][]HPRange
}

type damageTable struct {
	ranks []Rank
	rows  [][]dice.Expression
}

// HasLevel reports whether level is in [MinLevel, MaxLevel] and has a row in
// every table.
func (t *Tables) HasLevel(level int) bool {
	if level < MinLevel || level > MaxLevel {
		return false
	}
	for _, st := range t.scalars {
		if rowAt(st.rows, level) == nil {
			return false
		}
	}
	return rowAt(t.hitPoints.rows, level) != nil && rowAt(t.damage.rows, level) != nil
}

func rowAt[T any](rows [][]T, level int) []T {
	i := level + 1
	if i < 0 || i >= len(rows) {
		return nil
	}
	return rows[i]
}

// Levels returns every fully tabulated level in ascending order.
func (t *Tables) Levels() []int {
	out := make([]int, 0, MaxLevel-MinLevel+1)
	for l := MinLevel; l <= MaxLevel; l++ {
		if t.HasLevel(l) {
			out = append(out, l)
		}
	}
	return out
}

// HasCategory reports whether the tables hold cat at all.
func (t *Tables) HasCategory(cat Category) bool {
	switch cat {
	case HitPoints:
		return len(t.hitPoints.ranks) > 0
	case StrikeDamage:
		return len(t.damage.ranks) > 0
	}
	_, ok := t.scalars[cat]
	return ok
}

// Ranks returns the declared rank order of cat.
func (t *Tables) Ranks(cat Category) ([]Rank, error) {
	var ranks []Rank
	switch cat {
	case HitPoints:
		ranks = t.hitPoints.ranks
	case StrikeDamage:
		ranks = t.damage.ranks
	default:
		st, ok := t.scalars[cat]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
		}
		ranks = st.ranks
	}
	return append([]Rank(nil), ranks...), nil
}

// Row returns cat's scalar row at level, in declared rank order.
//
// Postcondition: the returned slice is a copy; callers may modify it.
func (t *Tables) Row(cat Category, level int) ([]Entry, error) {
	st, ok := t.scalars[cat]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	vals := rowAt(st.rows, level)
	if vals == nil {
		return nil, fmt.Errorf("%w: %q has no row for level %d", ErrLevelOutOfRange, cat, level)
	}
	out := make([]Entry, len(st.ranks))
	for i, r := range st.ranks {
		out[i] = Entry{Rank: r, Value: vals[i]}
	}
	return out, nil
}

// Value returns cat's value for rank at level.
func (t *Tables) Value(cat Category, level int, rank Rank) (int, error) {
	row, err := t.Row(cat, level)
	if err != nil {
		return 0, err
	}
	for _, e := range row {
		if e.Rank == rank {
			return e.Value, nil
		}
	}
	return 0, fmt.Errorf("%w: %q has no rank %q", ErrUnknownRank, cat, rank)
}

// Nearest returns the entry of cat's row at level whose value is closest to
// value, and value's offset from it. On a tie the rank declared first wins.
func (t *Tables) Nearest(cat Category, level, value int) (Entry, int, error) {
	row, err := t.Row(cat, level)
	if err != nil {
		return Entry{}, 0, err
	}
	best := row[0]
	for _, e := range row[1:] {
		if abs(e.Value-value) < abs(best.Value-value) {
			best = e
		}
	}
	return best, value - best.Value, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// HitPointRow returns the hit point bands at level, in declared rank order.
func (t *Tables) HitPointRow(level int) ([]RangeEntry, error) {
	vals := rowAt(t.hitPoints.rows, level)
	if vals == nil {
		return nil, fmt.Errorf("%w: %q has no row for level %d", ErrLevelOutOfRange, HitPoints, level)
	}
	out := make([]RangeEntry, len(t.hitPoints.ranks))
	for i, r := range t.hitPoints.ranks {
		out[i] = RangeEntry{Rank: r, Range: vals[i]}
	}
	return out, nil
}

// HitPointRange returns the hit point band for rank at level.
func (t *Tables) HitPointRange(level int, rank Rank) (HPRange, error) {
	row, err := t.HitPointRow(level)
	if err != nil {
		return HPRange{}, err
	}
	for _, e := range row {
		if e.Rank == rank {
			return e.Range, nil
		}
	}
	return HPRange{}, fmt.Errorf("%w: %q has no rank %q", ErrUnknownRank, HitPoints, rank)
}

// DamageRow returns the canonical strike damage at level, in declared rank order.
func (t *Tables) DamageRow(level int) ([]DamageEntry, error) {
	vals := rowAt(t.damage.rows, level)
	if vals == nil {
		return nil, fmt.Errorf("%w: %q has no row for level %d", ErrLevelOutOfRange, StrikeDamage, level)
	}
	out := make([]DamageEntry, len(t.damage.ranks))
	for i, r := range t.damage.ranks {
		out[i] = DamageEntry{Rank: r, Expression: vals[i]}
	}
	return out, nil
}

// Damage returns the canonical strike damage for rank at level.
func (t *Tables) Damage(level int, rank Rank) (dice.Expression, error) {
	row, err := t.DamageRow(level)
	if err != nil {
		return dice.Expression{}, err
	}
	for _, e := range row {
		if e.Rank == rank {
			return e.Expression, nil
		}
	}
	return dice.Expression{}, fmt.Errorf("%w: %q has no rank %q", ErrUnknownRank, StrikeDamage, rank)
}
