// Package main runs the Dungeon of Dooom server: the shared game session, its
// line protocol transports and any configured bot players.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dod/internal/config"
	"github.com/cory-johannsen/dod/internal/game/dice"
	"github.com/cory-johannsen/dod/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	mapFile := flag.String("map", "", "map file to load, overriding game.map_file")
	seed := flag.Uint64("seed", 0, "seed for reproducible games; 0 uses crypto randomness")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *mapFile != "" {
		cfg.Game.MapFile = *mapFile
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting Dungeon of Dooom server",
		zap.String("name", cfg.Server.Name),
		zap.Strings("bots", cfg.Bots.Policies),
	)

	src := dice.NewCryptoSource()
	if *seed != 0 {
		src = dice.NewSeededSource(*seed)
		logger.Info("using seeded randomness", zap.Uint64("seed", *seed))
	}

	a, err := newApp(cfg, src, logger)
	if err != nil {
		logger.Fatal("initializing server", zap.Error(err))
	}

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.Bool("websocket", cfg.WebSocket.Enabled),
	)

	if err := a.run(context.Background()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
