package reference

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/dice"
)

//go:embed tables.yaml
var defaultTables []byte

var (
	defaultOnce sync.Once
	defaultVal  *Tables
	defaultErr  error
)

type rawRanked[T any] struct {
	Ranks  []Rank      `yaml:"ranks"`
	Levels map[int][]T `yaml:"levels"`
}

type rawTables struct {
	Scalars      map[Category]rawRanked[int] `yaml:"scalars"`
	HitPoints    *rawRanked[[]int]           `yaml:"hitPoints"`
	StrikeDamage *rawRanked[string]          `yaml:"strikeDamage"`
}

// Default returns the embedded reference tables, parsed once per process.
//
// Postcondition: the returned Tables covers every category at every level.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultVal, defaultErr = LoadFromBytes(defaultTables)
		if defaultErr == nil {
			defaultErr = defaultVal.RequireComplete()
		}
	})
	return defaultVal, defaultErr
}

// LoadFile reads and fully validates a reference table file.
//
// Postcondition: Returns complete Tables or a non-nil error.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference tables %q: %w", path, err)
	}
	t, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	if err := t.RequireComplete(); err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return t, nil
}

// LoadFromBytes parses reference tables from YAML. Categories and levels may be
// partial; every row present must hold exactly the category's declared ranks.
//
// Postcondition: Returns Tables whose present rows are well formed, or an error.
func LoadFromBytes(data []byte) (*Tables, error) {
	var raw rawTables
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing reference tables YAML: %w", err)
	}

	t := &Tables{scalars: make(map[Category]scalarTable, len(raw.Scalars))}

	for cat, rc := range raw.Scalars {
		if cat == HitPoints || cat == StrikeDamage {
			return nil, fmt.Errorf("%q is not a scalar category", cat)
		}
		rows, err := buildRows(cat, rc, func(v int) (int, error) { return v, nil })
		if err != nil {
			return nil, err
		}
		t.scalars[cat] = scalarTable{ranks: rc.Ranks, rows: rows}
	}

	if raw.HitPoints != nil {
		rows, err := buildRows(HitPoints, *raw.HitPoints, func(v []int) (HPRange, error) {
			if len(v) != 2 {
				return HPRange{}, fmt.Errorf("range must be [minimum, maximum], got %v", v)
			}
			if v[0] > v[1] {
				return HPRange{}, fmt.Errorf("range minimum %d exceeds maximum %d", v[0], v[1])
			}
			return HPRange{Minimum: v[0], Maximum: v[1]}, nil
		})
		if err != nil {
			return nil, err
		}
		t.hitPoints = rangeTable{ranks: raw.HitPoints.Ranks, rows: rows}
	}

	if raw.StrikeDamage != nil {
		rows, err := buildRows(StrikeDamage, *raw.StrikeDamage, dice.Parse)
		if err != nil {
			return nil, err
		}
		t.damage = damageTable{ranks: raw.StrikeDamage.Ranks, rows: rows}
	}

	return t, nil
}

func buildRows[T, V any](cat Category, rc rawRanked[T], conv func(T) (V, error)) ([][]V, error) {
	if len(rc.Ranks) == 0 {
		return nil, fmt.Errorf("%q: ranks must not be empty", cat)
	}
	seen := make(map[Rank]bool, len(rc.Ranks))
	for _, r := range rc.Ranks {
		if seen[r] {
			return nil, fmt.Errorf("%q: duplicate rank %q", cat, r)
		}
		seen[r] = true
	}

	rows := make([][]V, MaxLevel-MinLevel+1)
	for level, vals := range rc.Levels {
		if level < MinLevel || level > MaxLevel {
			return nil, fmt.Errorf("%q: %w: %d", cat, ErrLevelOutOfRange, level)
		}
		if len(vals) != len(rc.Ranks) {
			return nil, fmt.Errorf("%q level %d: expected %d values, got %d", cat, level, len(rc.Ranks), len(vals))
		}
		row := make([]V, len(vals))
		for i, v := range vals {
			out, err := conv(v)
			if err != nil {
				return nil, fmt.Errorf("%q level %d rank %q: %w", cat, level, rc.Ranks[i], err)
			}
			row[i] = out
		}
		rows[level+1] = row
	}
	return rows, nil
}

// RequireComplete checks that every scalar category, hit points, and strike
// damage are present at every level from MinLevel to MaxLevel.
func (t *Tables) RequireComplete() error {
	for _, cat := range ScalarCategories {
		st, ok := t.scalars[cat]
		if !ok {
			return fmt.Errorf("reference tables: missing category %q", cat)
		}
		if err := requireAllLevels(cat, st.rows); err != nil {
			return err
		}
	}
	if err := requireAllLevels(HitPoints, t.hitPoints.rows); err != nil {
		return err
	}
	return requireAllLevels(StrikeDamage, t.damage.rows)
}

func requireAllLevels[T any](cat Category, rows [][]T) error {
	for l := MinLevel; l <= MaxLevel; l++ {
		if rowAt(rows, l) == nil {
			return fmt.Errorf("reference tables: %q has no row for level %d", cat, l)
		}
	}
	return nil
}
