package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/config"
)

// SessionHandler plays one connected client until it leaves.
//
// Implementations must return promptly once ctx is cancelled.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn) error
}

// Acceptor owns the line protocol TCP listener. Every accepted socket is
// played by the SessionHandler on its own goroutine under a context that
// Stop cancels.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	ready  chan struct{}
	conns  sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
	stopped  bool
}

// NewAcceptor creates an acceptor for cfg.
//
// Precondition: handler and logger must be non-nil.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Acceptor{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		ready:   make(chan struct{}),
	}
}

// ListenAndServe binds the listener and accepts players until Stop.
//
// Postcondition: Returns nil after Stop, or the bind error.
func (a *Acceptor) ListenAndServe() error {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	a.listener = ln
	a.mu.Unlock()
	close(a.ready)

	a.logger.Info("accepting players",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("negotiate", a.cfg.Negotiate),
	)

	for {
		raw, err := ln.Accept()
		if err != nil {
			if a.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			a.logger.Warn("accept failed", zap.Error(err))
			continue
		}
		a.mu.Lock()
		if a.stopped {
			a.mu.Unlock()
			_ = raw.Close()
			return nil
		}
		a.conns.Add(1)
		a.mu.Unlock()
		go a.play(raw)
	}
}

// Ready is closed once the listener is bound.
func (a *Acceptor) Ready() <-chan struct{} { return a.ready }

// play runs one connection from accept to hangup.
func (a *Acceptor) play(raw net.Conn) {
	defer a.conns.Done()
	opened := time.Now()
	logger := a.logger.With(zap.String("remote_addr", raw.RemoteAddr().String()))

	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	defer conn.Close()
	logger.Info("client connected", zap.String("transport", "telnet"))

	if a.cfg.Negotiate {
		if err := conn.Negotiate(); err != nil {
			logger.Warn("negotiation failed", zap.Error(err))
			return
		}
	}

	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	err := a.handler.HandleSession(ctx, conn)
	fields := []zap.Field{zap.Duration("connected_for", time.Since(opened))}
	if err != nil {
		logger.Debug("session ended", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("session ended cleanly", fields...)
}

// Stop closes the listener, cancels every session and waits for them to
// return. It is safe to call more than once and before ListenAndServe.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	ln := a.listener
	a.mu.Unlock()

	a.cancel()
	if ln != nil {
		_ = ln.Close()
	}
	a.conns.Wait()
	a.logger.Info("stopped accepting players")
}

// Addr returns the bound address, or "" before ListenAndServe binds.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// IsRunning reports whether the listener is bound and not stopped.
func (a *Acceptor) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listener != nil && !a.stopped
}
