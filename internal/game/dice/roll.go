// Package dice parses damage expressions such as "2d8+7", computes their
// averages, and rolls them.
package dice

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Source yields random die faces. Implementations must be safe for
// concurrent use.
type Source interface {
	// Intn returns an int in [0, n). Precondition: n > 0.
	Intn(n int) int
}

type cryptoSource struct{}

// NewCryptoSource returns a stateless Source backed by crypto/rand.
func NewCryptoSource() Source { return cryptoSource{} }

// Intn panics when n <= 0 or crypto/rand fails.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

// RollResult records one evaluated roll.
//
// Postcondition: Total() == (sum(Dice) + Modifier) * Multiplier, where a
// Multiplier below 2 counts as 1.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
	// Multiplier is 2 for a critical hit.
	Multiplier int
}

// Total returns the rolled faces plus the modifier, times the multiplier.
func (r RollResult) Total() int {
	sum := r.Modifier
	for _, d := range r.Dice {
		sum += d
	}
	if r.Multiplier > 1 {
		return sum * r.Multiplier
	}
	return sum
}

// String renders the roll as "2d6+3 → [4 5] +3 = 12", with " x2" before the
// total for a critical. An empty Expression renders as "?".
func (r RollResult) String() string {
	expr := r.Expression
	if expr == "" {
		expr = "?"
	}
	faces := make([]string, len(r.Dice))
	for i, d := range r.Dice {
		faces[i] = strconv.Itoa(d)
	}
	var crit string
	if r.Multiplier > 1 {
		crit = fmt.Sprintf(" x%d", r.Multiplier)
	}
	return fmt.Sprintf("%s → [%s] %+d%s = %d", expr, strings.Join(faces, " "), r.Modifier, crit, r.Total())
}

// Roll rolls expr with src.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count and each face is in
// [1, expr.Sides].
func Roll(expr Expression, src Source) (RollResult, error) {
	if expr.Count < 1 || expr.Sides < 2 {
		return RollResult{}, fmt.Errorf("dice: cannot roll %q", expr.Formula())
	}
	faces := make([]int, expr.Count)
	for i := range faces {
		faces[i] = src.Intn(expr.Sides) + 1
	}
	label := expr.Raw
	if label == "" {
		label = expr.Formula()
	}
	return RollResult{Expression: label, Dice: faces, Modifier: expr.Modifier}, nil
}

// RollExpr parses expr and rolls it with src.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}
