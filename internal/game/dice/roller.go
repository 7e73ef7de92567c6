package dice

import "go.uber.org/zap"

// Roller rolls expressions from one Source and logs every result at debug.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller returns a Roller over src.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll rolls expr once.
func (r *Roller) Roll(expr Expression) (RollResult, error) {
	return r.roll(expr, 1)
}

// RollCritical rolls expr once and doubles the total.
func (r *Roller) RollCritical(expr Expression) (RollResult, error) {
	return r.roll(expr, 2)
}

// RollExpr parses and rolls expr.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e)
}

func (r *Roller) roll(expr Expression, multiplier int) (RollResult, error) {
	res, err := Roll(expr, r.src)
	if err != nil {
		return RollResult{}, err
	}
	if multiplier > 1 {
		res.Multiplier = multiplier
	}
	r.logger.Debug("dice roll",
		zap.String("expression", res.Expression),
		zap.Ints("dice", res.Dice),
		zap.Int("modifier", res.Modifier),
		zap.Int("multiplier", res.Multiplier),
		zap.Int("total", res.Total()),
	)
	return res, nil
}
