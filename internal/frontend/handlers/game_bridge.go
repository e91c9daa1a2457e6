// Package handlers binds transport connections to game clients.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/frontend/telnet"
	"github.com/cory-johannsen/dod/internal/frontend/websocket"
	"github.com/cory-johannsen/dod/internal/game/command"
)

// LineConn is a transport that exchanges protocol lines.
type LineConn interface {
	// ReadLine blocks for the next inbound line.
	ReadLine() (string, error)
	// WriteLine sends one message. Messages spanning several lines, such as
	// LOOKREPLY blocks, are delivered as consecutive lines.
	WriteLine(text string) error
	Close() error
}

// GameHandler plays one connection as a player of the shared session.
type GameHandler struct {
	proc   *command.Processor
	logger *zap.Logger
}

// NewGameHandler creates a GameHandler for proc.
//
// Precondition: proc and logger must be non-nil.
func NewGameHandler(proc *command.Processor, logger *zap.Logger) *GameHandler {
	return &GameHandler{proc: proc, logger: logger}
}

// HandleSession implements telnet.SessionHandler.
func (h *GameHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	return h.Serve(ctx, conn)
}

// HandleWebSocket implements websocket.SessionHandler.
func (h *GameHandler) HandleWebSocket(ctx context.Context, conn *websocket.Conn) error {
	return h.Serve(ctx, conn)
}

// Serve registers a player for conn and relays lines both ways until the
// connection fails, the player leaves or ctx is cancelled. A read failure is
// treated as the player sending DIE.
//
// Postcondition: Returns nil on a clean departure, or the transport error.
func (h *GameHandler) Serve(ctx context.Context, conn LineConn) error {
	client, err := h.proc.Connect()
	if err != nil {
		_ = conn.WriteLine("FAIL the dungeon is full")
		return fmt.Errorf("registering player: %w", err)
	}
	logger := h.logger.With(zap.Int("player", client.ID()))

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.forwardEvents(client, conn, logger)
	}()

	err = h.commandLoop(client, conn)
	departed := client.Closed()
	client.Disconnect()
	wg.Wait()

	if departed || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// commandLoop feeds inbound lines to the client until the transport fails.
// An over-long line is answered with FAIL and the loop carries on.
func (h *GameHandler) commandLoop(client *command.Client, conn LineConn) error {
	for {
		line, err := conn.ReadLine()
		if lineTooLong(err) {
			client.Reject("line too long")
			continue
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		client.Handle(line)
	}
}

func lineTooLong(err error) bool {
	return errors.Is(err, telnet.ErrLineTooLong) || errors.Is(err, websocket.ErrLineTooLong)
}

// forwardEvents writes every outbound message to conn. The connection is
// closed after a DIE line and when the client's event stream ends, which
// unblocks commandLoop.
func (h *GameHandler) forwardEvents(client *command.Client, conn LineConn, logger *zap.Logger) {
	defer conn.Close()
	for msg := range client.Events() {
		if err := conn.WriteLine(msg); err != nil {
			logger.Debug("write failed", zap.Error(err))
			_ = conn.Close()
			continue
		}
		if strings.HasPrefix(msg, "DIE ") {
			_ = conn.Close()
		}
	}
}
