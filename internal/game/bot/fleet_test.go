package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dod/internal/game/command"
	"github.com/cory-johannsen/dod/internal/game/dice"
	"github.com/cory-johannsen/dod/internal/game/session"
	"github.com/cory-johannsen/dod/internal/game/world"
)

type resets struct {
	mu    sync.Mutex
	games []string
	lines []string
}

func (r *resets) OnBroadcast(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, msg)
}

func (r *resets) OnReset(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games = append(r.games, gameID)
}

func (r *resets) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}

func TestFleet_ObjectiveBotWins(t *testing.T) {
	logger := zaptest.NewLogger(t)
	m := world.MustParseRows(1,
		"#####",
		"#.GE#",
		"#####",
	)
	obs := &resets{}
	sess := session.New(m,
		session.WithSource(dice.NewSequenceSource(0)),
		session.WithLogger(logger),
		session.WithObserver(obs),
	)
	proc := command.NewProcessor(sess, logger, 64)
	roller := dice.NewLoggedRoller(dice.NewSequenceSource(0), logger)
	fleet := NewFleet(proc, nil, roller, time.Millisecond, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	name := fleet.NextName(PolicyObjective)
	assert.Equal(t, "objective-bot-1", name)
	p, err := fleet.Policy(PolicyObjective, name, "", 0)
	require.NoError(t, err)
	ctrl, err := fleet.Launch(ctx, name, p)
	require.NoError(t, err)
	assert.Len(t, fleet.Controllers(), 1)

	select {
	case <-ctrl.Done():
	case <-ctx.Done():
		t.Fatal("bot did not finish its game")
	}
	fleet.Wait()

	assert.Equal(t, 1, obs.count(), "the abandoned finished game is recycled")
	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Contains(t, obs.lines, "objective-bot-1 has joined the game.")
}

func TestFleet_ScriptedNeedsManager(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sess := session.New(world.MustParseRows(0, "...."), session.WithLogger(logger))
	fleet := NewFleet(command.NewProcessor(sess, logger, 8), nil, dice.NewLoggedRoller(dice.NewCryptoSource(), logger), time.Second, logger)
	_, err := fleet.Policy(PolicyScripted, "lua-bot-1", "bot.lua", 0)
	assert.Error(t, err)
}
