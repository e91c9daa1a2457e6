package bot

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/dod/internal/game/dice"
	"github.com/cory-johannsen/dod/internal/game/pathfind"
	"github.com/cory-johannsen/dod/internal/game/world"
	"github.com/cory-johannsen/dod/internal/scripting"
)

// decideFn is the Lua global a bot script must define.
const decideFn = "decide"

// Scripted delegates each decision to a Lua decide(state) function. The dod
// helper module answers path queries against the state being decided.
//
// A Scripted policy must be used by one Controller at a time.
type Scripted struct {
	chooser
	name    string
	scripts *scripting.Manager
	current *State
}

// NewScripted loads the script at path under name.
//
// Precondition: scripts and roller must be non-nil; name must be unique within scripts.
// Postcondition: Returns an error if the script fails to load.
func NewScripted(name, path string, instLimit int, scripts *scripting.Manager, roller *dice.Roller) (*Scripted, error) {
	s := &Scripted{chooser: chooser{roller}, name: name, scripts: scripts}
	if err := scripts.Load(name, path, instLimit, s.helpers()); err != nil {
		return nil, fmt.Errorf("loading bot script for %s: %w", name, err)
	}
	return s, nil
}

func (p *Scripted) helpers() scripting.Helpers {
	return scripting.Helpers{
		PathToTile: func(glyph string) []string {
			if p.current == nil || len(glyph) != 1 {
				return nil
			}
			return directionNames(pathfind.ClosestTile(p.current.Grid, glyph[0]))
		},
		PathToPlayer: func() []string {
			if p.current == nil {
				return nil
			}
			return directionNames(pathfind.ClosestToPlayer(p.current.Grid))
		},
		AdjacentPlayers: func() []string {
			if p.current == nil {
				return nil
			}
			return directionNames(pathfind.AdjacentPlayers(p.current.Grid))
		},
		RandomDirection: func() string {
			if p.current == nil {
				return ""
			}
			open := pathfind.OpenDirections(p.current.Grid)
			if len(open) == 0 {
				return ""
			}
			return string(p.pick("bot-script", open))
		},
	}
}

// Decide implements Policy. Script errors and non-string results end the turn.
func (p *Scripted) Decide(s *State) string {
	p.current = s
	defer func() { p.current = nil }()

	ret, err := p.scripts.Call(p.name, decideFn, stateTable(s))
	if err != nil {
		return cmdEndTurn
	}
	line, ok := ret.(lua.LString)
	if !ok || strings.TrimSpace(string(line)) == "" {
		return cmdEndTurn
	}
	return strings.TrimSpace(string(line))
}

// stateTable converts s into the table passed to decide.
func stateTable(s *State) *lua.LTable {
	t := &lua.LTable{}
	t.RawSetString("goal", lua.LNumber(s.Goal))
	t.RawSetString("gold", lua.LNumber(s.Gold))
	t.RawSetString("has_lantern", lua.LBool(s.HasLantern))
	t.RawSetString("has_sword", lua.LBool(s.HasSword))
	t.RawSetString("has_armour", lua.LBool(s.HasArmour))
	t.RawSetString("underfoot", lua.LString(string([]byte{s.Underfoot()})))
	rows := &lua.LTable{}
	for _, r := range s.Grid.Rows() {
		rows.Append(lua.LString(r))
	}
	t.RawSetString("rows", rows)
	return t
}

func directionNames(path []world.Direction) []string {
	if path == nil {
		return nil
	}
	out := make([]string, len(path))
	for i, d := range path {
		out[i] = string(d)
	}
	return out
}
