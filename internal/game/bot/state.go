// Package bot implements in-process computer players: decision policies that
// choose one command per turn from the bot's own look window, and a Controller
// that drives a connection with them.
package bot

import (
	"strconv"
	"strings"

	"github.com/cory-johannsen/dod/internal/game/look"
	"github.com/cory-johannsen/dod/internal/game/world"
)

// State is everything a bot knows about the game. It is built only from
// protocol lines the bot has received and the pickups it has made.
type State struct {
	// Goal is the gold quota, or -1 until a GOAL line arrives.
	Goal       int
	Gold       int
	HasLantern bool
	HasSword   bool
	HasArmour  bool
	// Grid is the latest look window; the bot stands at its centre.
	Grid look.Grid
}

// NewState returns the state of a bot that has heard nothing yet.
func NewState() *State {
	return &State{Goal: -1}
}

// HasRequiredGold reports whether the bot holds enough gold to leave.
func (s *State) HasRequiredGold() bool {
	return s.Gold >= s.Goal
}

// Position returns the bot's own cell in Grid coordinates.
func (s *State) Position() world.Location {
	return s.Grid.Center()
}

// Underfoot returns the glyph of the tile the bot stands on.
func (s *State) Underfoot() byte {
	return s.Grid.At(s.Position())
}

// parseGoal reads the quota from a "GOAL n" line.
//
// Postcondition: Returns -1 when the value is not an integer.
func parseGoal(line string) int {
	v := strings.ReplaceAll(strings.TrimPrefix(line, "GOAL"), " ", "")
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

// parseLookReply extracts the grid rows from a LOOKREPLY block.
//
// Postcondition: Returns (nil, false) when block is not a well formed reply.
func parseLookReply(block string) (look.Grid, bool) {
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	if len(lines) < 3 || lines[0] != "LOOKREPLY" || lines[len(lines)-1] != "ENDLOOKREPLY" {
		return nil, false
	}
	g, err := look.Parse(lines[1 : len(lines)-1])
	if err != nil {
		return nil, false
	}
	return g, true
}
