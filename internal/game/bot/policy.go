package bot

import (
	"fmt"

	"github.com/cory-johannsen/dod/internal/game/dice"
	"github.com/cory-johannsen/dod/internal/game/item"
	"github.com/cory-johannsen/dod/internal/game/pathfind"
	"github.com/cory-johannsen/dod/internal/game/world"
)

// Policy names accepted by NewPolicy.
const (
	PolicyWander     = "wander"
	PolicyObjective  = "objective"
	PolicyAggressive = "aggressive"
	PolicyFriendly   = "friendly"
	PolicyScripted   = "scripted"
)

const (
	cmdPickup  = "PICKUP"
	cmdEndTurn = "ENDTURN"
)

var (
	glyphGold    = item.Gold.Glyph()
	glyphLantern = item.Lantern.Glyph()
	glyphSword   = item.Sword.Glyph()
	glyphArmour  = item.Armour.Glyph()
	glyphExit    = world.Exit.Glyph()
)

// Policy chooses the next command line for a bot.
//
// Decide may record the pickups it orders in s, since the server does not
// report retained items back to the player.
type Policy interface {
	Decide(s *State) string
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(s *State) string

// Decide calls f(s).
func (f PolicyFunc) Decide(s *State) string { return f(s) }

func move(d world.Direction) string   { return "MOVE " + string(d) }
func attack(d world.Direction) string { return "ATTACK " + string(d) }
func gift(d world.Direction) string   { return "GIFT " + string(d) }

// chooser holds the shared decision steps.
type chooser struct {
	roller *dice.Roller
}

func (c chooser) pick(purpose string, dirs []world.Direction) world.Direction {
	return dirs[c.roller.Intn(purpose, len(dirs)).Value]
}

// randomMove steps in a random open direction, or ends the turn when boxed in.
func (c chooser) randomMove(s *State) string {
	open := pathfind.OpenDirections(s.Grid)
	if len(open) == 0 {
		return cmdEndTurn
	}
	return move(c.pick("bot-wander", open))
}

// firstStep returns the MOVE for the first step of path.
//
// Postcondition: ok is false for a nil or empty path.
func firstStep(path []world.Direction) (string, bool) {
	if len(path) == 0 {
		return "", false
	}
	return move(path[0]), true
}

// objective walks to the active target: gold while under quota, the exit once
// it is met, then a lantern if none is held, then anywhere open.
func (c chooser) objective(s *State) string {
	target := glyphGold
	if s.HasRequiredGold() {
		target = glyphExit
	}
	if cmd, ok := firstStep(pathfind.ClosestTile(s.Grid, target)); ok {
		return cmd
	}
	if !s.HasLantern {
		if cmd, ok := firstStep(pathfind.ClosestTile(s.Grid, glyphLantern)); ok {
			return cmd
		}
	}
	return c.randomMove(s)
}

// Wander picks up gold it stands on while under quota and otherwise moves at random.
type Wander struct{ chooser }

// NewWander creates a Wander policy.
//
// Precondition: roller must be non-nil.
func NewWander(roller *dice.Roller) *Wander { return &Wander{chooser{roller}} }

// Decide implements Policy.
func (w *Wander) Decide(s *State) string {
	if s.Underfoot() == glyphGold && !s.HasRequiredGold() {
		return cmdPickup
	}
	return w.randomMove(s)
}

// Objective collects gold up to the quota and heads for the exit, taking a
// lantern on the way when it can.
type Objective struct{ chooser }

// NewObjective creates an Objective policy.
//
// Precondition: roller must be non-nil.
func NewObjective(roller *dice.Roller) *Objective { return &Objective{chooser{roller}} }

// Decide implements Policy.
func (o *Objective) Decide(s *State) string {
	tile := s.Underfoot()
	switch {
	case tile == glyphGold && !s.HasRequiredGold():
		return cmdPickup
	case tile == glyphLantern && !s.HasLantern:
		s.HasLantern = true
		return cmdPickup
	}
	return o.objective(s)
}

// Aggressive arms itself, attacks any adjacent player and hunts visible
// players before pursuing the objective.
type Aggressive struct{ chooser }

// NewAggressive creates an Aggressive policy.
//
// Precondition: roller must be non-nil.
func NewAggressive(roller *dice.Roller) *Aggressive { return &Aggressive{chooser{roller}} }

// Decide implements Policy.
func (a *Aggressive) Decide(s *State) string {
	tile := s.Underfoot()
	if tile == glyphSword && !s.HasSword {
		s.HasSword = true
		return cmdPickup
	}
	if near := pathfind.AdjacentPlayers(s.Grid); len(near) > 0 {
		return attack(a.pick("bot-target", near))
	}
	if cmd, ok := firstStep(pathfind.ClosestToPlayer(s.Grid)); ok {
		return cmd
	}
	switch {
	case tile == glyphLantern && !s.HasLantern:
		s.HasLantern = true
		return cmdPickup
	case tile == glyphGold && !s.HasRequiredGold():
		return cmdPickup
	}
	return a.objective(s)
}

// Friendly wears armour, hoards every gold it finds and hands it out to the
// players it meets.
type Friendly struct{ chooser }

// NewFriendly creates a Friendly policy.
//
// Precondition: roller must be non-nil.
func NewFriendly(roller *dice.Roller) *Friendly { return &Friendly{chooser{roller}} }

// Decide implements Policy.
func (f *Friendly) Decide(s *State) string {
	tile := s.Underfoot()
	if tile == glyphArmour && !s.HasArmour {
		s.HasArmour = true
		return cmdPickup
	}
	if s.Gold > 0 {
		if near := pathfind.AdjacentPlayers(s.Grid); len(near) > 0 {
			return gift(f.pick("bot-target", near))
		}
		if cmd, ok := firstStep(pathfind.ClosestToPlayer(s.Grid)); ok {
			return cmd
		}
	}
	switch {
	case tile == glyphLantern && !s.HasLantern:
		s.HasLantern = true
		return cmdPickup
	case tile == glyphGold:
		return cmdPickup
	}
	return f.objective(s)
}

// NewPolicy builds a built-in policy by name. Scripted policies need a script
// and are built with NewScripted.
func NewPolicy(name string, roller *dice.Roller) (Policy, error) {
	switch name {
	case PolicyWander:
		return NewWander(roller), nil
	case PolicyObjective:
		return NewObjective(roller), nil
	case PolicyAggressive:
		return NewAggressive(roller), nil
	case PolicyFriendly:
		return NewFriendly(roller), nil
	default:
		return nil, fmt.Errorf("unknown bot policy %q", name)
	}
}
