package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged draws.
// Every draw is logged at debug level with its purpose, value and range.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each draw to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn draws a value in [0, n) and logs it under purpose.
//
// Precondition: n > 0.
func (r *Roller) Intn(purpose string, n int) Outcome {
	o := Outcome{Purpose: purpose, Value: r.src.Intn(n), Range: n}
	r.logger.Debug("dice draw",
		zap.String("purpose", o.Purpose),
		zap.Int("value", o.Value),
		zap.Int("range", o.Range),
	)
	return o
}

// Chance reports success with probability num/den.
//
// Precondition: 0 <= num <= den and den > 0.
// Postcondition: Returns true iff the drawn value is below num.
func (r *Roller) Chance(purpose string, num, den int) bool {
	return r.Intn(purpose, den).Value < num
}
