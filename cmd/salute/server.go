package main

import (
	"context"
	"time"

	rand "math/rand/v2"

	"github.com/coder/quartz"

	"github.com/Anshuman71/salute/cmd/salute/shared"
	"github.com/Anshuman71/salute/internal/game"
	"github.com/Anshuman71/salute/internal/randutil"
	"github.com/Anshuman71/salute/internal/ratelimit"
	"github.com/Anshuman71/salute/internal/server"
	"github.com/Anshuman71/salute/internal/store"
)

// ServerCmd contains core server configuration. Flags override the HCL
// config file.
type ServerCmd struct {
	Config  string `kong:"default='salute.hcl',help='Path to HCL config file',env='SALUTE_CONFIG'"`
	Addr    string `kong:"help='Listen address, overrides config (host:port)',env='SALUTE_ADDR'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
	DataDir string `kong:"help='Directory for room snapshots; empty disables persistence',env='SALUTE_DATA_DIR'"`
	Seed    *int64 `kong:"help='Deterministic RNG seed for shuffles (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := shared.SetupLogger(cfg.Server.LogLevel, c.Debug)

	var rng *rand.Rand
	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
	}
	rng = randutil.New(seed)

	dataDir := c.DataDir
	if dataDir == "" {
		dataDir = cfg.Server.DataDir
	}
	var roomStore store.Store = store.NopStore{}
	if dataDir != "" {
		fileStore, err := store.NewFileStore(dataDir, logger)
		if err != nil {
			return err
		}
		roomStore = fileStore
		logger.Info("Room persistence enabled", "dir", dataDir)
	}

	clock := quartz.NewReal()
	service := server.NewRoomService(logger, rng, server.RoomServiceOptions{
		Store:     roomStore,
		Limiter:   ratelimit.New(clock, cfg.Limits()),
		Clock:     clock,
		TieBreak:  game.TieBreak(cfg.Rooms.TieBreak),
		Defaults:  game.RoomSettings{TotalRounds: cfg.Rooms.DefaultRounds, MaxPlayers: game.MaxPlayers},
		Retention: cfg.Retention(),
	})

	addr := c.Addr
	if addr == "" {
		addr = cfg.GetServerAddress()
	}
	srv := server.NewServer(addr, logger, service)

	logger.Info("Starting Salute server",
		"addr", addr,
		"default_rounds", cfg.Rooms.DefaultRounds,
		"tie_break", cfg.Rooms.TieBreak,
		"retention", cfg.Retention(),
		"persistence", dataDir != "")

	ctx := shared.SetupSignalHandler(logger)
	if err := srv.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	logger.Info("Server shutdown complete")
	return nil
}
