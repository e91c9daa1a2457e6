package command

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/game/look"
	"github.com/cory-johannsen/dod/internal/game/session"
)

// Client is one connected player. It implements player.Listener by queueing
// protocol lines on its Outbox, and feeds inbound lines to the Processor.
//
// Handle must be called from a single goroutine per Client.
type Client struct {
	proc     *Processor
	id       int
	outbox   *Outbox
	logger   *zap.Logger
	goalSent bool
	leave    sync.Once
}

// ID returns the player id assigned at registration.
func (c *Client) ID() int { return c.id }

// Events returns the outbound message channel. It is closed after Disconnect.
func (c *Client) Events() <-chan string { return c.outbox.Events() }

// Closed reports whether the client has left the game.
func (c *Client) Closed() bool { return c.outbox.IsClosed() }

// Handle processes one inbound protocol line.
func (c *Client) Handle(line string) {
	c.proc.dispatch(c, line)
}

// Disconnect removes the player from the game as if it had sent DIE, then
// closes the outbox. It is safe to call more than once.
func (c *Client) Disconnect() {
	c.leave.Do(func() {
		if err := c.proc.sess.Die(c.id); err != nil {
			c.logger.Error("removing player", zap.Int("player", c.id), zap.Error(err))
		}
		c.proc.sess.LookAll()
		_ = c.outbox.Close()
		c.logger.Info("player disconnected", zap.Int("player", c.id))
	})
}

// SendMessage queues free text.
func (c *Client) SendMessage(msg string) { c.push(msg) }

// StartTurn queues STARTTURN.
func (c *Client) StartTurn() { c.push("STARTTURN") }

// EndTurn queues ENDTURN.
func (c *Client) EndTurn() { c.push("ENDTURN") }

// Win queues the victory line.
func (c *Client) Win() { c.push(session.MsgWon) }

// HPChange queues HITMOD.
func (c *Client) HPChange(delta int) { c.push(fmt.Sprintf("HITMOD %d", delta)) }

// TreasureChange queues TREASUREMOD.
func (c *Client) TreasureChange(delta int) { c.push(fmt.Sprintf("TREASUREMOD %d", delta)) }

// Damage queues the hit notice.
func (c *Client) Damage(amount int) { c.push(fmt.Sprintf("You were hit and lost %d hp.", amount)) }

// Look queues a LOOKREPLY block.
func (c *Client) Look(rows []string) { c.push(look.FormatReply(rows)) }

// Reject answers an unreadable inbound line with FAIL reason.
func (c *Client) Reject(reason string) {
	c.fail(&ParseError{Reason: reason})
}

func (c *Client) fail(err error) {
	reason, known := failureReason(err)
	if !known {
		c.logger.Error("command failed unexpectedly", zap.Error(err))
	}
	c.push("FAIL " + reason)
}

func (c *Client) push(msg string) {
	if err := c.outbox.Push(msg); err != nil && !c.outbox.IsClosed() {
		c.logger.Warn("dropping outbound message", zap.Error(err))
	}
}
