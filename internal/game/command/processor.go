package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/game/session"
	"github.com/cory-johannsen/dod/internal/game/world"
)

// handlerFunc executes one parsed command for c.
type handlerFunc func(c *Client, res ParseResult) error

// Processor connects transport-level connections to a Session. One Processor
// serves every connection of a game server.
type Processor struct {
	sess       *session.Session
	registry   *Registry
	logger     *zap.Logger
	outboxSize int
	handlers   map[string]handlerFunc

	connSeq atomic.Int64
	nameSeq atomic.Int64
}

// NewProcessor creates a Processor for sess.
//
// Precondition: sess and logger must be non-nil.
func NewProcessor(sess *session.Session, logger *zap.Logger, outboxSize int) *Processor {
	p := &Processor{
		sess:       sess,
		registry:   DefaultRegistry(),
		logger:     logger,
		outboxSize: outboxSize,
	}
	p.handlers = map[string]handlerFunc{
		HandlerHello:   handleHello,
		HandlerLook:    handleLook,
		HandlerShout:   handleShout,
		HandlerDie:     handleDie,
		HandlerPickup:  handlePickup,
		HandlerMove:    directional("MOVE", sess.Move),
		HandlerAttack:  directional("ATTACK", sess.Attack),
		HandlerGift:    directional("GIFT", sess.Gift),
		HandlerEndTurn: handleEndTurn,
		HandlerSetPos:  handleSetPos,
	}
	return p
}

// Session returns the session served by p.
func (p *Processor) Session() *session.Session { return p.sess }

// Connect registers a new player and returns its Client.
//
// Postcondition: Returns a Client whose Events channel carries every message
// for the player, or an error if the session cannot place another player.
func (p *Processor) Connect() (*Client, error) {
	conn := int(p.connSeq.Add(1))
	c := &Client{
		proc:   p,
		outbox: NewOutbox(conn, p.outboxSize),
		logger: p.logger.With(zap.Int("conn", conn)),
	}
	id, err := p.sess.AddPlayer(c)
	if err != nil {
		_ = c.outbox.Close()
		return nil, fmt.Errorf("registering player: %w", err)
	}
	c.id = id
	c.logger.Info("player connected", zap.Int("player", id))
	return c, nil
}

// nextName returns the next auto-generated player name.
func (p *Processor) nextName() string {
	return fmt.Sprintf("Player %d", p.nameSeq.Add(1))
}

// dispatch runs one line for c and reports failures back to it.
func (p *Processor) dispatch(c *Client, line string) {
	res := Parse(line)
	if res.Command == "" {
		return
	}
	cmd, ok := p.registry.Resolve(res.Command)
	if !ok || cmd.Gated {
		if err := p.sess.CheckTurn(c.id); err != nil {
			c.fail(err)
			return
		}
	}
	if !ok {
		c.fail(ErrInvalidCommand)
		return
	}
	if err := p.handlers[cmd.Handler](c, res); err != nil {
		c.fail(err)
		return
	}
	if cmd.Gated {
		p.sess.LookAll()
	}
}

func handleHello(c *Client, res ParseResult) error {
	sess := c.proc.sess
	name := Sanitize(res.RawArgs)
	if strings.TrimSpace(name) == "" {
		name = c.proc.nextName()
	}
	if err := sess.Hello(c.id, name); err != nil {
		return err
	}
	c.push("HELLO " + name)
	if !c.goalSent {
		c.goalSent = true
		c.push(fmt.Sprintf("GOAL %d", sess.Goal()))
	}
	if sess.HasStarted() && sess.IsPlayerTurn(c.id) {
		c.StartTurn()
	}
	sess.Broadcast(name + " has joined the game.")
	return nil
}

func handleLook(c *Client, res ParseResult) error {
	if res.RawArgs != "" {
		return &ParseError{Command: res.Command, Reason: "LOOK does not take an argument"}
	}
	c.proc.sess.LookAll()
	return nil
}

func handleShout(c *Client, res ParseResult) error {
	if res.RawArgs == "" {
		return &ParseError{Command: res.Command, Reason: "need something to shout"}
	}
	return c.proc.sess.Shout(c.id, Sanitize(res.RawArgs))
}

func handleDie(c *Client, _ ParseResult) error {
	c.Disconnect()
	return nil
}

func handlePickup(c *Client, res ParseResult) error {
	if res.RawArgs != "" {
		return &ParseError{Command: res.Command, Reason: "PICKUP does not take an argument"}
	}
	return c.proc.sess.Pickup(c.id)
}

func handleEndTurn(c *Client, _ ParseResult) error {
	return c.proc.sess.EndTurn(c.id)
}

func handleSetPos(c *Client, res ParseResult) error {
	if res.RawArgs == "" {
		return &ParseError{Command: res.Command, Reason: "need a position"}
	}
	if len(res.Args) != 2 {
		return &ParseError{Command: res.Command, Reason: "need two co-ordinates"}
	}
	col, errCol := strconv.Atoi(res.Args[0])
	row, errRow := strconv.Atoi(res.Args[1])
	if errCol != nil || errRow != nil {
		return &ParseError{Command: res.Command, Reason: "co-ordinates must be integers"}
	}
	return c.proc.sess.SetPosition(c.id, col, row)
}

// directional builds a handler for a command taking a single compass direction.
func directional(keyword string, op func(id int, dir world.Direction) error) handlerFunc {
	return func(c *Client, res ParseResult) error {
		if res.RawArgs == "" {
			return &ParseError{Command: res.Command, Reason: keyword + " needs a direction"}
		}
		dir, ok := world.ParseDirection(res.RawArgs)
		if !ok {
			return &ParseError{Command: res.Command, Reason: "invalid direction"}
		}
		return op(c.id, dir)
	}
}

// failureReason maps an error to the text sent after "FAIL ".
func failureReason(err error) (string, bool) {
	var ce *session.CommandError
	if errors.As(err, &ce) {
		return ce.Reason, true
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Reason, true
	}
	return "internal error", false
}
