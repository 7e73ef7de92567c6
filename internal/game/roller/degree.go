package roller

// Degree is the PF2E 4-tier check result, plus None for a check without a DC.
type Degree int

const (
	None Degree = iota
	CritFailure
	Failure
	Success
	CritSuccess
)

// String returns a human-readable degree label.
func (d Degree) String() string {
	switch d {
	case None:
		return "none"
	case CritSuccess:
		return "critical success"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case CritFailure:
		return "critical failure"
	default:
		return "unknown"
	}
}

// DegreeFor determines the degree of success of total against dc.
//
// Postcondition: Returns None iff dc is nil.
func DegreeFor(total int, dc *int) Degree {
	if dc == nil {
		return None
	}
	switch {
	case total >= *dc+10:
		return CritSuccess
	case total >= *dc:
		return Success
	case total >= *dc-10:
		return Failure
	default:
		return CritFailure
	}
}

// DamageMode selects how a damage amount is applied to hit points.
type DamageMode string

const (
	Full   DamageMode = "full"
	Half   DamageMode = "half"
	Double DamageMode = "double"
	Heal   DamageMode = "heal"
)

// Delta returns the hit point loss for amount under m; healing is negative.
//
// Postcondition: Returns false for an unknown mode.
func (m DamageMode) Delta(amount int) (int, bool) {
	switch m {
	case Full:
		return amount, true
	case Half:
		return amount / 2, true
	case Double:
		return amount * 2, true
	case Heal:
		return -amount, true
	default:
		return 0, false
	}
}
