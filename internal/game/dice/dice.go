// Package dice provides the randomness abstraction used by the dungeon engine
// and its bots: spawn placement, attack resolution and bot move selection.
package dice

import "fmt"

// Source is the randomness provider.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Outcome records a single draw for logging and auditing.
//
// Postcondition: 0 <= Value < Range.
type Outcome struct {
	Purpose string // what the draw decided, e.g. "attack"
	Value   int
	Range   int
}

// String returns a human-readable audit string in the format:
//
//	"attack: 2 of [0,5)"
//
// Precondition: o.Purpose is non-empty.
func (o Outcome) String() string {
	if o.Purpose == "" {
		panic("dice: Outcome.String() precondition violated: Purpose must be non-empty")
	}
	return fmt.Sprintf("%s: %d of [0,%d)", o.Purpose, o.Value, o.Range)
}
