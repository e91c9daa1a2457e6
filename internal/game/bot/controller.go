package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Conn is the player connection a Controller drives. *command.Client
// satisfies it.
type Conn interface {
	ID() int
	Events() <-chan string
	Handle(line string)
	Disconnect()
}

// Controller plays one bot: it tracks State from inbound lines and, once per
// tick, asks its Policy for a command when all of these hold: it is the bot's
// turn, the goal is known and a new look window arrived since the last decision.
//
// Invariant: every command is sent from the Run goroutine.
type Controller struct {
	name     string
	conn     Conn
	policy   Policy
	interval time.Duration
	logger   *zap.Logger

	state   *State
	myTurn  bool
	updated bool
	failed  bool
	done    chan struct{}
}

// NewController creates a Controller for conn.
//
// Precondition: interval must be > 0; conn, policy and logger must be non-nil.
func NewController(name string, conn Conn, policy Policy, interval time.Duration, logger *zap.Logger) *Controller {
	if interval <= 0 {
		panic("bot.NewController: interval must be > 0")
	}
	return &Controller{
		name:     name,
		conn:     conn,
		policy:   policy,
		interval: interval,
		logger:   logger.With(zap.String("bot", name), zap.Int("player", conn.ID())),
		state:    NewState(),
		done:     make(chan struct{}),
	}
}

// Name returns the bot's player name.
func (c *Controller) Name() string { return c.name }

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Run introduces the bot and plays until a DIE line arrives, the connection's
// event stream closes or ctx is cancelled. The connection is disconnected on
// return.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	defer c.conn.Disconnect()

	c.conn.Handle("HELLO " + c.name)
	c.conn.Handle("LOOK")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	events := c.conn.Events()
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("bot stopped")
			return
		case line, ok := <-events:
			if !ok {
				c.logger.Debug("bot connection closed")
				return
			}
			if !c.observe(line) {
				c.logger.Info("bot finished", zap.String("reason", line))
				return
			}
		case <-ticker.C:
			c.tick()
		}
	}
}

// observe folds one inbound line into the bot's state.
//
// Postcondition: Returns false when the line ends the bot's game.
func (c *Controller) observe(line string) bool {
	switch {
	case strings.HasPrefix(line, "DIE"):
		return false
	case strings.HasPrefix(line, "GOAL"):
		c.state.Goal = parseGoal(line)
	case line == "STARTTURN":
		c.myTurn = true
		c.failed = false
	case line == "ENDTURN":
		c.myTurn = false
	case strings.HasPrefix(line, "TREASUREMOD "):
		if n, err := strconv.Atoi(strings.TrimPrefix(line, "TREASUREMOD ")); err == nil {
			c.state.Gold += n
		}
	case strings.HasPrefix(line, "FAIL "):
		c.logger.Debug("bot command failed", zap.String("reason", strings.TrimPrefix(line, "FAIL ")))
		if c.myTurn {
			c.failed = true
		}
	case strings.HasPrefix(line, "LOOKREPLY"):
		if g, ok := parseLookReply(line); ok {
			c.state.Grid = g
			c.updated = true
		}
	}
	return true
}

// tick sends at most one command. A command refused while holding the turn
// is followed by ENDTURN so the bot never stalls the game.
func (c *Controller) tick() {
	if !c.myTurn {
		return
	}
	if c.failed {
		c.failed = false
		c.send("ENDTURN")
		return
	}
	if c.state.Goal < 0 || !c.updated || c.state.Grid == nil {
		return
	}
	c.updated = false
	c.send(c.policy.Decide(c.state))
}

func (c *Controller) send(line string) {
	c.logger.Debug("bot action", zap.String("command", line))
	c.conn.Handle(line)
}
