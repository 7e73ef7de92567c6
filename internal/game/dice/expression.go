package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DamagePattern matches the damage expressions embedded in statblock text,
// e.g. "2d6", "2d6+3" or "2d6-1".
var DamagePattern = regexp.MustCompile(`\d+d\d+([+-]\d+)?`)

var expressionPattern = regexp.MustCompile(`^(\d*)d(\d+)(?:([+-])\s*(\d+))?$`)

// Expression is a parsed dice expression of the form {count}d{sides}[+|-]{modifier}.
//
// Invariant: Count >= 1 and Sides >= 2 after a successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d20", "2d6", "2d6+3", "4d8-2".
//
// Postcondition: Returns an Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	m := expressionPattern.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", expr)
	}

	count := 1
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", expr, err)
		}
		count = n
	}
	if count < 1 {
		return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", expr)
	}

	sides, err := strconv.Atoi(m[2])
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", expr, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", expr)
	}

	modifier := 0
	if m[4] != "" {
		modifier, err = strconv.Atoi(m[4])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
		if m[3] == "-" {
			modifier = -modifier
		}
	}

	return Expression{Raw: expr, Count: count, Sides: sides, Modifier: modifier}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Average returns the expected value (Sides+1)/2*Count + Modifier.
func (e Expression) Average() float64 {
	return float64(e.Sides+1)/2*float64(e.Count) + float64(e.Modifier)
}

// Formula returns the canonical form of e: "2d6+3", "2d6-1", or "2d6" when the
// modifier is zero.
func (e Expression) Formula() string {
	switch {
	case e.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", e.Count, e.Sides, e.Modifier)
	case e.Modifier < 0:
		return fmt.Sprintf("%dd%d-%d", e.Count, e.Sides, -e.Modifier)
	default:
		return fmt.Sprintf("%dd%d", e.Count, e.Sides)
	}
}

// WithModifier returns a copy of e with the given modifier and a Raw string
// matching the new canonical formula.
func (e Expression) WithModifier(modifier int) Expression {
	out := Expression{Count: e.Count, Sides: e.Sides, Modifier: modifier}
	out.Raw = out.Formula()
	return out
}
