package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/dod/internal/config"
	"github.com/cory-johannsen/dod/internal/game/dice"
	"github.com/cory-johannsen/dod/internal/testutil"
)

const corridor = "name corridor\nwin 1\n#####\n#.GE#\n#####\n"

func writeMap(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.map")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func testConfig(t *testing.T, mapText string) config.Config {
	t.Helper()
	return config.Config{
		Server:    config.ServerConfig{Name: "dod-test"},
		Telnet:    config.TelnetConfig{Host: "127.0.0.1", Port: 0, WriteTimeout: time.Second},
		WebSocket: config.WebSocketConfig{Host: "127.0.0.1", Port: 0, Path: "/play"},
		Logging:   config.LoggingConfig{Level: "debug", Format: "console"},
		Game:      config.GameConfig{MapFile: writeMap(t, mapText), MinPlayers: 1, OutboxSize: 64},
		Bots:      config.BotsConfig{TickInterval: 5 * time.Millisecond},
	}
}

// start runs a and returns once the line protocol listener is bound.
func start(t *testing.T, a *app) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})
	select {
	case <-a.telnet.Ready():
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("telnet listener not ready")
	}
}

func TestApp_PlayerWinsOverTelnet(t *testing.T) {
	cfg := testConfig(t, corridor)
	a, err := newApp(cfg, dice.NewSequenceSource(0), zaptest.NewLogger(t))
	require.NoError(t, err)
	start(t, a)

	c := testutil.NewLineClient(t, a.telnet.Addr())
	assert.Equal(t, "STARTTURN", c.ReadLine(2*time.Second))

	c.Send("HELLO Ann")
	lines := c.ReadUntilLine("Ann has joined the game.", 2*time.Second)
	assert.Contains(t, lines, "GOAL 1")

	c.Send("LOOK")
	reply := c.ReadUntilLine("ENDLOOKREPLY", 2*time.Second)
	assert.Contains(t, reply, "LOOKREPLY")

	// The only free floor tile is the west one, so the player spawned there.
	c.Send("MOVE E")
	c.ReadUntilLine("ENDLOOKREPLY", 2*time.Second)
	c.Send("PICKUP")
	c.ReadUntil(func(l string) bool { return l == "TREASUREMOD 1" }, 2*time.Second)
	c.Send("MOVE E")
	c.ReadUntilLine("DIE You Won!", 2*time.Second)
	assert.True(t, c.Closed(2*time.Second))
}

func TestApp_ObjectiveBotPlaysItsGame(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := testConfig(t, corridor)
	cfg.Bots.Policies = []string{"objective"}

	a, err := newApp(cfg, dice.NewSequenceSource(0), zap.New(core))
	require.NoError(t, err)
	start(t, a)

	require.Eventually(t, func() bool {
		for _, e := range logs.FilterMessage("bot finished").All() {
			if e.ContextMap()["reason"] == "DIE You Won!" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	assert.NotZero(t, logs.FilterMessage("broadcast").Len(), "the game feed logs the join")
}

func TestApp_ScriptedBotLoadsScript(t *testing.T) {
	cfg := testConfig(t, corridor)
	script := filepath.Join(t.TempDir(), "bot.lua")
	require.NoError(t, os.WriteFile(script, []byte(`
function decide(state)
  local path = dod.path_to_tile("G")
  if state.underfoot == "G" then return "PICKUP" end
  if state.gold >= state.goal then path = dod.path_to_tile("E") end
  if path then return "MOVE " .. path[1] end
  return "ENDTURN"
end
`), 0o644))
	cfg.Bots.Policies = []string{"scripted"}
	cfg.Bots.ScriptFile = script

	core, logs := observer.New(zap.InfoLevel)
	a, err := newApp(cfg, dice.NewSequenceSource(0), zap.New(core))
	require.NoError(t, err)
	require.NotNil(t, a.scripts)
	start(t, a)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("bot finished").Len() > 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestApp_BrokenScriptFailsStartup(t *testing.T) {
	cfg := testConfig(t, corridor)
	script := filepath.Join(t.TempDir(), "bot.lua")
	require.NoError(t, os.WriteFile(script, []byte("function decide(state"), 0o644))
	cfg.Bots.Policies = []string{"scripted"}
	cfg.Bots.ScriptFile = script

	_, err := newApp(cfg, dice.NewSequenceSource(0), zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scripted-bot-1")
}

func TestApp_MapErrors(t *testing.T) {
	cfg := testConfig(t, "name broken\nwin x\n###\n")
	_, err := newApp(cfg, dice.NewSequenceSource(0), zaptest.NewLogger(t))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "loading map"))
}

func TestApp_WebSocketSharesTheSession(t *testing.T) {
	cfg := testConfig(t, "name hall\nwin 1\n#######\n#..G..#\n#....E#\n#######\n")
	cfg.WebSocket.Enabled = true
	cfg.Game.MinPlayers = 2

	a, err := newApp(cfg, dice.NewSequenceSource(0), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, a.ws)
	start(t, a)
	select {
	case <-a.ws.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("websocket listener not ready")
	}

	c := testutil.NewLineClient(t, a.telnet.Addr())
	c.Send("HELLO Tel")
	c.ReadUntilLine("Tel has joined the game.", 2*time.Second)

	ws, _, err := gws.DefaultDialer.Dial("ws://"+a.ws.Addr()+"/play", nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.WriteMessage(gws.TextMessage, []byte("HELLO Web")))

	c.ReadUntilLine("Web has joined the game.", 2*time.Second)
	assert.Equal(t, 2, a.proc.Session().PlayerCount())
	assert.True(t, a.proc.Session().HasStarted())
}
