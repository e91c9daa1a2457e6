package main

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/config"
	"github.com/cory-johannsen/dod/internal/frontend/handlers"
	"github.com/cory-johannsen/dod/internal/frontend/telnet"
	"github.com/cory-johannsen/dod/internal/frontend/websocket"
	"github.com/cory-johannsen/dod/internal/game/bot"
	"github.com/cory-johannsen/dod/internal/game/command"
	"github.com/cory-johannsen/dod/internal/game/dice"
	"github.com/cory-johannsen/dod/internal/game/session"
	"github.com/cory-johannsen/dod/internal/game/world"
	"github.com/cory-johannsen/dod/internal/observability"
	"github.com/cory-johannsen/dod/internal/scripting"
	"github.com/cory-johannsen/dod/internal/server"
)

// app is the wired server: one shared session behind every transport and bot.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	proc      *command.Processor
	telnet    *telnet.Acceptor
	ws        *websocket.Server
	fleet     *bot.Fleet
	scripts   *scripting.Manager
	lifecycle *server.Lifecycle
}

// newApp loads the map and wires every service. src drives the session and
// bot randomness.
//
// Precondition: cfg must be valid; logger and src must be non-nil.
// Postcondition: Returns an app ready to run, or an error if the map or a bot
// script cannot be loaded.
func newApp(cfg config.Config, src dice.Source, logger *zap.Logger) (*app, error) {
	m, err := world.LoadMapFromFile(cfg.Game.MapFile)
	if err != nil {
		return nil, fmt.Errorf("loading map: %w", err)
	}
	logger.Info("map loaded",
		zap.String("map", m.Name()),
		zap.Int("goal", m.Goal()),
		zap.String("file", cfg.Game.MapFile),
	)

	sess := session.New(m,
		session.WithSource(src),
		session.WithLogger(logger.Named("session")),
		session.WithObserver(observability.NewGameFeed(logger)),
		session.WithMinPlayers(cfg.Game.MinPlayers),
	)
	proc := command.NewProcessor(sess, logger.Named("command"), cfg.Game.OutboxSize)
	gameHandler := handlers.NewGameHandler(proc, logger.Named("handler"))

	a := &app{
		cfg:       cfg,
		logger:    logger,
		proc:      proc,
		telnet:    telnet.NewAcceptor(cfg.Telnet, gameHandler, logger.Named("telnet")),
		lifecycle: server.NewLifecycle(logger),
	}
	if cfg.WebSocket.Enabled {
		a.ws = websocket.NewServer(cfg.WebSocket, cfg.Telnet.WriteTimeout, gameHandler, logger.Named("websocket"))
	}

	roller := dice.NewLoggedRoller(src, logger.Named("bots"))
	for _, kind := range cfg.Bots.Policies {
		if kind == bot.PolicyScripted {
			a.scripts = scripting.NewManager(roller, logger.Named("lua"))
			break
		}
	}
	a.fleet = bot.NewFleet(proc, a.scripts, roller, cfg.Bots.TickInterval, logger.Named("bots"))

	a.lifecycle.Add("telnet", &server.FuncService{
		StartFn: a.telnet.ListenAndServe,
		StopFn:  a.telnet.Stop,
	})
	if a.ws != nil {
		a.lifecycle.Add("websocket", &server.FuncService{
			StartFn: a.ws.ListenAndServe,
			StopFn:  a.ws.Stop,
		})
	}
	if len(cfg.Bots.Policies) > 0 {
		if err := a.addBots(); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

// addBots builds every configured policy up front, so a broken script fails
// startup, and registers a service that plays them.
func (a *app) addBots() error {
	type launch struct {
		name   string
		policy bot.Policy
	}
	var bots []launch
	for _, kind := range a.cfg.Bots.Policies {
		name := a.fleet.NextName(kind)
		p, err := a.fleet.Policy(kind, name, a.cfg.Bots.ScriptFile, a.cfg.Bots.InstructionLimit)
		if err != nil {
			return fmt.Errorf("building bot %s: %w", name, err)
		}
		bots = append(bots, launch{name: name, policy: p})
	}

	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	a.lifecycle.Add("bots", &server.FuncService{
		StartFn: func() error {
			for _, b := range bots {
				if _, err := a.fleet.Launch(ctx, b.name, b.policy); err != nil {
					a.logger.Warn("bot not launched", zap.String("bot", b.name), zap.Error(err))
				}
			}
			<-ctx.Done()
			a.fleet.Wait()
			return nil
		},
		StopFn: func() { once.Do(cancel) },
	})
	return nil
}

// run blocks until ctx is cancelled, a signal arrives or a service fails.
func (a *app) run(ctx context.Context) error {
	defer a.close()
	return a.lifecycle.Run(ctx)
}

func (a *app) close() {
	if a.scripts != nil {
		a.scripts.Close()
	}
}
