package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/game/command"
	"github.com/cory-johannsen/dod/internal/game/dice"
	"github.com/cory-johannsen/dod/internal/scripting"
)

// Fleet starts in-process bots against a Processor and waits for them.
type Fleet struct {
	proc     *command.Processor
	scripts  *scripting.Manager
	roller   *dice.Roller
	interval time.Duration
	logger   *zap.Logger

	mu          sync.Mutex
	controllers []*Controller
	wg          sync.WaitGroup
	seq         int
}

// NewFleet creates a Fleet. scripts may be nil when no scripted bots are used.
//
// Precondition: proc, roller and logger must be non-nil; interval must be > 0.
func NewFleet(proc *command.Processor, scripts *scripting.Manager, roller *dice.Roller, interval time.Duration, logger *zap.Logger) *Fleet {
	if interval <= 0 {
		panic("bot.NewFleet: interval must be > 0")
	}
	return &Fleet{
		proc:     proc,
		scripts:  scripts,
		roller:   roller,
		interval: interval,
		logger:   logger,
	}
}

// Policy builds the policy named kind for the bot called name.
//
// Precondition: scriptFile must name a Lua file when kind is PolicyScripted.
func (f *Fleet) Policy(kind, name, scriptFile string, instLimit int) (Policy, error) {
	if kind != PolicyScripted {
		return NewPolicy(kind, f.roller)
	}
	if f.scripts == nil {
		return nil, fmt.Errorf("bot %s: scripted policy needs a script manager", name)
	}
	return NewScripted(name, scriptFile, instLimit, f.scripts, f.roller)
}

// NextName returns a fresh bot name for kind.
func (f *Fleet) NextName(kind string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s-bot-%d", kind, f.seq)
}

// Launch connects a new player named name and plays it with p until ctx is
// cancelled or its game ends.
//
// Postcondition: The returned Controller is already running.
func (f *Fleet) Launch(ctx context.Context, name string, p Policy) (*Controller, error) {
	client, err := f.proc.Connect()
	if err != nil {
		return nil, fmt.Errorf("connecting bot %s: %w", name, err)
	}
	ctrl := NewController(name, client, p, f.interval, f.logger)

	f.mu.Lock()
	f.controllers = append(f.controllers, ctrl)
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctrl.Run(ctx)
	}()
	f.logger.Info("bot launched", zap.String("bot", name), zap.Int("player", client.ID()))
	return ctrl, nil
}

// Controllers returns the bots launched so far.
func (f *Fleet) Controllers() []*Controller {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Controller, len(f.controllers))
	copy(out, f.controllers)
	return out
}

// Wait blocks until every launched bot has stopped.
func (f *Fleet) Wait() {
	f.wg.Wait()
}
