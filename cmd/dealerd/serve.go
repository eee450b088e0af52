package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/dealerd/internal/audit"
	"github.com/lox/dealerd/internal/engine"
	"github.com/lox/dealerd/internal/game"
	"github.com/lox/dealerd/internal/natsbus"
	"github.com/lox/dealerd/internal/redisstore"
	"github.com/lox/dealerd/internal/server"
)

// ServeCmd runs the WebSocket server and its table engines.
type ServeCmd struct {
	Config string `short:"c" default:"dealerd.hcl" help:"Path to HCL config file"`
}

func (cmd *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(cmd.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := redisstore.New(cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("redis unavailable at %s: %w", cfg.Redis.URL, err)
	}

	var bus engine.Bus = natsbus.Noop{}
	if cfg.Nats.Enabled {
		nb, err := natsbus.Connect(cfg.Nats.URL)
		if err != nil {
			// Best-effort port: run without it rather than refuse to start
			logger.Warn("nats unavailable, events will not be published", "url", cfg.Nats.URL, "error", err)
		} else {
			defer nb.Close()
			bus = nb
		}
	}

	var auditLog engine.Audit = audit.Noop{}
	if cfg.Audit.Enabled {
		al, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			return err
		}
		defer al.Close()
		auditLog = al
	}

	hub := server.NewHub(logger)
	registry := engine.NewRegistry(store, bus, auditLog, store, hub, logger,
		game.WithMinBet(cfg.Game.MinBet),
		game.WithDefaultBuyin(cfg.Game.DefaultBuyin),
	)
	defer registry.Close()

	srv := server.NewServer(cfg.ListenAddress(), registry, store, hub, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
