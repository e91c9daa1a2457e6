package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/game/dice"
)

// Helpers are the game queries a script may call through the dod module.
// A nil field makes the matching Lua function return nil.
type Helpers struct {
	// PathToTile returns the steps towards the nearest visible tile with glyph.
	PathToTile func(glyph string) []string
	// PathToPlayer returns the steps towards a cell next to the nearest visible player.
	PathToPlayer func() []string
	// AdjacentPlayers returns the directions of players standing next to the bot.
	AdjacentPlayers func() []string
	// RandomDirection returns a random open direction, or "" when boxed in.
	RandomDirection func() string
}

// vm is one loaded script. Calls into the same vm are serialized by mu.
type vm struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
}

// Manager owns one sandboxed LState per loaded script and dispatches calls
// into them.
//
// Manager is safe for concurrent use. Calls into different scripts run
// concurrently; calls into the same script are serialized.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// Load creates a sandboxed VM under name, registers the dod module bound to h,
// then executes the script at path. Loading again under the same name replaces
// the previous VM.
//
// Precondition: name must be non-empty; path must be a readable Lua file.
// Postcondition: The VM is registered; returns error on Lua load failure.
func (m *Manager) Load(name, path string, instLimit int, h Helpers) error {
	return m.load(name, instLimit, h, func(L *lua.LState) error { return L.DoFile(path) })
}

// LoadString is Load for an in-memory chunk.
func (m *Manager) LoadString(name, src string, instLimit int, h Helpers) error {
	return m.load(name, instLimit, h, func(L *lua.LState) error { return L.DoString(src) })
}

func (m *Manager) load(name string, instLimit int, h Helpers, run func(*lua.LState) error) error {
	if name == "" {
		return fmt.Errorf("scripting: script name must not be empty")
	}
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L, h)

	if err := run(L); err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	L.RemoveContext()
	cancel()

	m.mu.Lock()
	if old, ok := m.states[name]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.states[name] = &vm{L: L, instLimit: instLimit}
	m.mu.Unlock()
	return nil
}

// Call invokes the named Lua global function in the script loaded under name
// with a fresh instruction budget. Returns (LNil, nil) if the script or the
// function does not exist. Lua runtime errors, including an exhausted budget,
// are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the function, or LNil.
func (m *Manager) Call(name, fn string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.states[name]
	m.mu.RUnlock()

	if !ok {
		m.logger.Info("scripting: no script loaded",
			zap.String("script", name),
			zap.String("function", fn),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L.IsClosed() {
		return lua.LNil, nil
	}

	f := v.L.GetGlobal(fn)
	if f == lua.LNil {
		return lua.LNil, nil
	}

	release := limitBudget(v.L, v.instLimit)
	defer release()
	if err := v.L.CallByParam(lua.P{
		Fn:      f,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("script", name),
			zap.String("function", fn),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close releases every loaded VM.
//
// Postcondition: Subsequent Calls return (LNil, nil).
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, v := range m.states {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
		delete(m.states, name)
	}
}
