package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dod/internal/game/dice"
	"github.com/cory-johannsen/dod/internal/game/look"
	"github.com/cory-johannsen/dod/internal/game/pathfind"
	"github.com/cory-johannsen/dod/internal/game/world"
)

func firstRoller() *dice.Roller {
	return dice.NewLoggedRoller(dice.NewSequenceSource(0), zap.NewNop())
}

func stateOf(goal, gold int, rows ...string) *State {
	return &State{Goal: goal, Gold: gold, Grid: look.MustParse(rows...)}
}

func TestWander(t *testing.T) {
	w := NewWander(firstRoller())

	s := stateOf(1, 0,
		"###",
		"#G.",
		"###",
	)
	assert.Equal(t, "PICKUP", w.Decide(s))

	s.Gold = 1
	assert.Equal(t, "MOVE E", w.Decide(s), "goal met, gold ignored")

	boxed := stateOf(1, 0,
		"#P#",
		"#.#",
		"###",
	)
	assert.Equal(t, "ENDTURN", w.Decide(boxed))
}

func TestObjective_Pickups(t *testing.T) {
	o := NewObjective(firstRoller())

	s := stateOf(2, 0,
		"...",
		".L.",
		"...",
	)
	assert.Equal(t, "PICKUP", o.Decide(s))
	assert.True(t, s.HasLantern)
	assert.NotEqual(t, "PICKUP", o.Decide(s), "lantern already held")
}

func TestObjective_Targets(t *testing.T) {
	o := NewObjective(firstRoller())

	s := stateOf(1, 0,
		"XX.XX",
		"X...X",
		"E....",
		"X...X",
		"XXGXX",
	)
	assert.Equal(t, "MOVE S", o.Decide(s), "gold while under quota")

	s.Gold = 1
	assert.Equal(t, "MOVE W", o.Decide(s), "exit once the quota is met")
}

func TestObjective_LanternThenRandom(t *testing.T) {
	o := NewObjective(firstRoller())

	s := stateOf(1, 0,
		"XX.XX",
		"X...X",
		"....L",
		"X...X",
		"XX.XX",
	)
	assert.Equal(t, "MOVE E", o.Decide(s), "no gold visible, fetch the lantern")

	s.HasLantern = true
	assert.Equal(t, "MOVE N", o.Decide(s), "nothing to chase, first open direction")
}

func TestAggressive(t *testing.T) {
	a := NewAggressive(firstRoller())

	s := stateOf(1, 0,
		"...",
		".SP",
		"...",
	)
	assert.Equal(t, "PICKUP", a.Decide(s))
	assert.True(t, s.HasSword)
	assert.Equal(t, "ATTACK E", a.Decide(s))

	hunt := stateOf(1, 0,
		"XX.XX",
		"X...X",
		"..G..",
		"X...X",
		"XXRXX",
	)
	assert.Equal(t, "MOVE S", a.Decide(hunt), "players before gold")
}

func TestFriendly(t *testing.T) {
	f := NewFriendly(firstRoller())

	s := stateOf(1, 1,
		"XX.XX",
		"X...X",
		"..A..",
		"X...X",
		"XXQXX",
	)
	assert.Equal(t, "PICKUP", f.Decide(s))
	assert.True(t, s.HasArmour)
	assert.Equal(t, "MOVE S", f.Decide(s), "seek players while holding gold")

	s.Grid = look.MustParse(
		"...",
		".AP",
		"...",
	)
	assert.Equal(t, "GIFT E", f.Decide(s))

	s.Gold = 0
	s.Goal = 0
	s.Grid = look.MustParse(
		"...",
		".GP",
		"...",
	)
	assert.Equal(t, "PICKUP", f.Decide(s), "hoards gold beyond the goal")
}

func TestNewPolicy(t *testing.T) {
	for _, name := range []string{PolicyWander, PolicyObjective, PolicyAggressive, PolicyFriendly} {
		p, err := NewPolicy(name, firstRoller())
		require.NoError(t, err, name)
		assert.NotNil(t, p)
	}
	_, err := NewPolicy(PolicyScripted, firstRoller())
	assert.Error(t, err)
	_, err = NewPolicy("coward", firstRoller())
	assert.Error(t, err)
}

// Every built-in policy answers with a command the server understands, and a
// MOVE never walks into a blocked cell.
func TestPropertyPoliciesProduceLegalMoves(t *testing.T) {
	glyphs := []byte(".#GLSAEHPX")
	rapid.Check(t, func(t *rapid.T) {
		size := 2*rapid.IntRange(1, 3).Draw(t, "radius") + 1
		rows := make([]string, size)
		for r := range rows {
			b := make([]byte, size)
			for c := range b {
				b[c] = rapid.SampledFrom(glyphs).Draw(t, "glyph")
			}
			rows[r] = string(b)
		}
		centre := []byte(rows[size/2])
		centre[size/2] = '.'
		rows[size/2] = string(centre)

		s := stateOf(rapid.IntRange(0, 3).Draw(t, "goal"), rapid.IntRange(0, 3).Draw(t, "gold"), rows...)
		roller := dice.NewLoggedRoller(dice.NewSeededSource(rapid.Uint64().Draw(t, "seed")), zap.NewNop())
		kind := rapid.SampledFrom([]string{PolicyWander, PolicyObjective, PolicyAggressive, PolicyFriendly}).Draw(t, "policy")
		p, err := NewPolicy(kind, roller)
		if err != nil {
			t.Fatal(err)
		}

		cmd := p.Decide(s)
		switch {
		case cmd == "PICKUP" || cmd == "ENDTURN":
		case strings.HasPrefix(cmd, "MOVE "):
			d, ok := world.ParseDirection(strings.TrimPrefix(cmd, "MOVE "))
			if !ok || s.Grid.Blocked(s.Position().AtDirection(d)) {
				t.Fatalf("%s chose illegal %q on %v", kind, cmd, rows)
			}
		case strings.HasPrefix(cmd, "ATTACK ") || strings.HasPrefix(cmd, "GIFT "):
			if len(pathfind.AdjacentPlayers(s.Grid)) == 0 {
				t.Fatalf("%s chose %q with nobody adjacent", kind, cmd)
			}
		default:
			t.Fatalf("%s produced %q", kind, cmd)
		}
	})
}
