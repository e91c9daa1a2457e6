package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the dod Lua table into L with its query functions
// bound to h.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: dod global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, h Helpers) {
	dod := L.NewTable()
	L.SetFuncs(dod, map[string]lua.LGFunction{
		"path_to_tile": func(L *lua.LState) int {
			glyph := L.CheckString(1)
			if h.PathToTile == nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(stringList(L, h.PathToTile(glyph)))
			return 1
		},
		"path_to_player": func(L *lua.LState) int {
			if h.PathToPlayer == nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(stringList(L, h.PathToPlayer()))
			return 1
		},
		"adjacent_players": func(L *lua.LState) int {
			if h.AdjacentPlayers == nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(stringList(L, h.AdjacentPlayers()))
			return 1
		},
		"random_direction": func(L *lua.LState) int {
			if h.RandomDirection == nil {
				L.Push(lua.LNil)
				return 1
			}
			if d := h.RandomDirection(); d != "" {
				L.Push(lua.LString(d))
			} else {
				L.Push(lua.LNil)
			}
			return 1
		},
		"random": func(L *lua.LState) int {
			n := L.CheckInt(1)
			if n <= 0 {
				L.ArgError(1, "must be positive")
				return 0
			}
			L.Push(lua.LNumber(m.roller.Intn("script", n).Value + 1))
			return 1
		},
		"log": func(L *lua.LState) int {
			m.logger.Info("lua", zap.String("msg", L.CheckString(1)))
			return 0
		},
	})
	L.SetGlobal("dod", dod)
}

// stringList converts ss to a Lua sequence. A nil slice becomes nil, so
// scripts can test "no path" with a plain truthiness check.
func stringList(L *lua.LState, ss []string) lua.LValue {
	if ss == nil {
		return lua.LNil
	}
	t := L.CreateTable(len(ss), 0)
	for _, s := range ss {
		t.Append(lua.LString(s))
	}
	return t
}
