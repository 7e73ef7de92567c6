package dice_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pf2e-toolbox/internal/game/dice"
)

// fixedSource returns the values in order, cycling, clamped into [0, n).
type fixedSource struct {
	vals []int
	i    int
}

func (f *fixedSource) Intn(n int) int {
	v := f.vals[f.i%len(f.vals)] % n
	f.i++
	return v
}

func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, 12, r.Total(), "Total() must equal sum(Dice)+Modifier")
}

func TestRollResult_Total_Critical(t *testing.T) {
	r := dice.RollResult{Expression: "2d6+3", Dice: []int{4, 5}, Modifier: 3, Multiplier: 2}
	assert.Equal(t, 24, r.Total())
	assert.Equal(t, "2d6+3 → [4 5] +3 x2 = 24", r.String())
}

func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, "2d6+3 → [4 5] +3 = 12", r.String(), "String() must match exact format")
}

func TestRollResult_String_EmptyExpression(t *testing.T) {
	r := dice.RollResult{Dice: []int{4}, Modifier: -1}
	assert.Equal(t, "? → [4] -1 = 3", r.String())
}

func TestRollResult_Total_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dice_ := rapid.SliceOf(rapid.IntRange(1, 20)).Draw(rt, "dice")
		modifier := rapid.IntRange(-1000, 1000).Draw(rt, "modifier")

		r := dice.RollResult{Expression: "Nd6+M", Dice: dice_, Modifier: modifier}

		expected := modifier
		for _, d := range dice_ {
			expected += d
		}
		assert.Equal(rt, expected, r.Total())
	})
}

func TestParse(t *testing.T) {
	cases := []struct {
		in                    string
		count, sides, modifer int
	}{
		{"2d6+3", 2, 6, 3},
		{"1d4", 1, 4, 0},
		{"d20", 1, 20, 0},
		{"4d8-2", 4, 8, -2},
		{"3D12+19", 3, 12, 19},
	}
	for _, tc := range cases {
		e, err := dice.Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.count, e.Count, tc.in)
		assert.Equal(t, tc.sides, e.Sides, tc.in)
		assert.Equal(t, tc.modifer, e.Modifier, tc.in)
		assert.Equal(t, tc.in, e.Raw)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "abc", "2d", "0d6", "2d1", "2d6+", "2x6"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "expected error for %q", in)
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("nope") })
}

func TestExpression_Average(t *testing.T) {
	assert.InDelta(t, 10.0, dice.MustParse("2d6+3").Average(), 1e-9)
	assert.InDelta(t, 2.5, dice.MustParse("1d4").Average(), 1e-9)
	assert.InDelta(t, 38.5, dice.MustParse("3d12+19").Average(), 1e-9)
}

func TestExpression_Formula(t *testing.T) {
	assert.Equal(t, "2d6+3", dice.MustParse("2d6+3").Formula())
	assert.Equal(t, "2d6-1", dice.MustParse("2d6-1").Formula())
	assert.Equal(t, "2d6", dice.MustParse("2d6+0").Formula())
}

func TestExpression_WithModifier(t *testing.T) {
	e := dice.MustParse("2d8+9").WithModifier(11)
	assert.Equal(t, "2d8+11", e.Raw)
	assert.Equal(t, 11, e.Modifier)
	assert.Equal(t, 8, e.Sides)
}

func TestProperty_FormulaParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		sides := rapid.SampledFrom([]int{4, 6, 8, 10, 12, 20}).Draw(rt, "sides")
		mod := rapid.IntRange(-50, 50).Draw(rt, "mod")

		formula := dice.Expression{Count: count, Sides: sides, Modifier: mod}.Formula()
		e, err := dice.Parse(formula)
		require.NoError(rt, err)
		assert.Equal(rt, count, e.Count)
		assert.Equal(rt, sides, e.Sides)
		assert.Equal(rt, mod, e.Modifier)
	})
}

func TestDamagePattern_FindsAllExpressions(t *testing.T) {
	text := "Strike 2d6+3 piercing plus 1d4 fire; persistent 1d6, splash 1d8-1"
	assert.Equal(t, []string{"2d6+3", "1d4", "1d6", "1d8-1"}, dice.DamagePattern.FindAllString(text, -1))
}

func TestRoll_UsesSource(t *testing.T) {
	src := &fixedSource{vals: []int{3, 4}}
	res, err := dice.Roll(dice.MustParse("2d6+3"), src)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, res.Dice)
	assert.Equal(t, 12, res.Total())
}

func TestRollExpr_ParseError(t *testing.T) {
	_, err := dice.RollExpr("bogus", &fixedSource{vals: []int{0}})
	assert.Error(t, err)
}

func TestRoll_RejectsZeroValueExpression(t *testing.T) {
	_, err := dice.Roll(dice.Expression{}, &fixedSource{vals: []int{0}})
	assert.Error(t, err)
}

func TestLoggedRoller_RollCritical(t *testing.T) {
	r := dice.NewLoggedRoller(&fixedSource{vals: []int{5}}, zap.NewNop())
	res, err := r.RollCritical(dice.MustParse("1d8+4"))
	require.NoError(t, err)
	assert.Equal(t, 20, res.Total())
}

func TestProperty_RollWithinBounds(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 6).Draw(rt, "count")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		res, err := dice.RollExpr(fmt.Sprintf("%dd%d", count, sides), src)
		require.NoError(rt, err)
		assert.Len(rt, res.Dice, count)
		for _, d := range res.Dice {
			assert.GreaterOrEqual(rt, d, 1)
			assert.LessOrEqual(rt, d, sides)
		}
		assert.True(rt, strings.Contains(res.String(), "→"))
	})
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}
