package scaler

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/dice"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/reference"
	"github.com/cory-johannsen/pf2e-toolbox/internal/game/statblock"
)

// DamageGuard bounds how far a damage expression's average may sit from the
// nearest tabulated average, as a fraction of its own average, before it is
// left unchanged.
const DamageGuard = 0.5

var dcPattern = regexp.MustCompile(`DC\s(\d+)`)

// Conversion maps values tabulated at From onto To. All of its methods are
// pure; a Conversion is safe for concurrent use.
type Conversion struct {
	Tables *reference.Tables
	From   int
	To     int
}

// NewConversion returns a Conversion between two levels that both have rows.
//
// Postcondition: Returns reference.ErrLevelOutOfRange if either level is
// outside the tables.
func NewConversion(tables *reference.Tables, from, to int) (Conversion, error) {
	for _, l := range []int{from, to} {
		if l < reference.MinLevel || l > reference.MaxLevel {
			return Conversion{}, fmt.Errorf("%w: %d", reference.ErrLevelOutOfRange, l)
		}
	}
	return Conversion{Tables: tables, From: from, To: to}, nil
}

// Scalar rescales value in cat, keeping its offset from the nearest rank.
//
// Postcondition: result == To[rank] + (value - From[rank]) where rank is the
// first declared rank nearest to value at From.
func (c Conversion) Scalar(cat reference.Category, value int) (int, error) {
	nearest, offset, err := c.Tables.Nearest(cat, c.From, value)
	if err != nil {
		return 0, err
	}
	base, err := c.Tables.Value(cat, c.To, nearest.Rank)
	if err != nil {
		return 0, err
	}
	return base + offset, nil
}

// HitPoints rescales a hit point maximum, keeping its percentile within the
// matched rank's band.
func (c Conversion) HitPoints(value int) (int, error) {
	from, err := c.Tables.HitPointRow(c.From)
	if err != nil {
		return 0, err
	}

	var (
		rank       reference.Rank
		percentile float64
		best       = math.MaxInt
	)
	for _, e := range from {
		r := e.Range
		if value > r.Minimum && value < r.Maximum {
			rank, percentile = e.Rank, bandPercentile(value, r)
			break
		}
		if d := min(absInt(value-r.Minimum), absInt(value-r.Maximum)); d < best {
			best = d
			rank, percentile = e.Rank, bandPercentile(value, r)
		}
	}

	to, err := c.Tables.HitPointRange(c.To, rank)
	if err != nil {
		return 0, err
	}
	return int(math.Round(float64(to.Minimum) + float64(to.Maximum-to.Minimum)*percentile)), nil
}

// bandPercentile places value within r; a zero-width band yields 0.
func bandPercentile(value int, r reference.HPRange) float64 {
	width := r.Maximum - r.Minimum
	if width == 0 {
		return 0
	}
	return float64(value-r.Minimum) / float64(width)
}

// Damage rescales a damage expression. The result keeps the matched rank's
// dice at To and shifts its bonus by the source's offset from the rank. The
// input is returned unchanged when it does not parse or when no rank lies
// within DamageGuard of its average.
func (c Conversion) Damage(expr string) (string, error) {
	old, err := dice.Parse(expr)
	if err != nil {
		return expr, nil
	}
	from, err := c.Tables.DamageRow(c.From)
	if err != nil {
		return "", err
	}

	avg := old.Average()
	nearest := from[0]
	delta := math.Abs(nearest.Expression.Average() - avg)
	for _, e := range from[1:] {
		if d := math.Abs(e.Expression.Average() - avg); d < delta {
			nearest, delta = e, d
		}
	}
	if !(delta < avg*DamageGuard) {
		return expr, nil
	}

	target, err := c.Tables.Damage(c.To, nearest.Rank)
	if err != nil {
		return "", err
	}
	bonus := target.Modifier + old.Modifier - nearest.Expression.Modifier
	return target.WithModifier(bonus).Formula(), nil
}

// DCText rewrites every "DC n" in text, left to right, via difficultyClass.
// The whitespace after "DC" is kept as matched.
func (c Conversion) DCText(text string) (string, error) {
	if !c.Tables.HasCategory(reference.DifficultyClass) {
		return text, nil
	}
	return replaceMatches(dcPattern, text, func(m []string) (string, error) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return "", err
		}
		dc, err := c.Scalar(reference.DifficultyClass, n)
		if err != nil {
			return "", err
		}
		return m[0][:3] + strconv.Itoa(dc), nil
	})
}

// DamageText rewrites every damage expression in text, left to right.
func (c Conversion) DamageText(text string) (string, error) {
	if !c.Tables.HasCategory(reference.StrikeDamage) {
		return text, nil
	}
	return replaceMatches(dice.DamagePattern, text, func(m []string) (string, error) {
		return c.Damage(m[0])
	})
}

// replaceMatches substitutes each non-overlapping match of re in text with the
// result of fn, copying the text between matches verbatim.
func replaceMatches(re *regexp.Regexp, text string, fn func([]string) (string, error)) (string, error) {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text, nil
	}
	out := make([]byte, 0, len(text))
	last := 0
	for _, loc := range locs {
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}
		repl, err := fn(groups)
		if err != nil {
			return "", err
		}
		out = append(out, text[last:loc[0]]...)
		out = append(out, repl...)
		last = loc[1]
	}
	out = append(out, text[last:]...)
	return string(out), nil
}

// Resistances rescales each entry's value in cat, leaving the rest of the
// entry untouched.
//
// Postcondition: the returned slice is a new slice of the same length.
func (c Conversion) Resistances(cat reference.Category, entries []statblock.Resistance) ([]statblock.Resistance, error) {
	out := make([]statblock.Resistance, len(entries))
	for i, e := range entries {
		v, err := c.Scalar(cat, e.Value)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", cat, e.Type, err)
		}
		e.Value = v
		out[i] = e
	}
	return out, nil
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
