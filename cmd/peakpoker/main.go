package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/peakecoin/peakpoker/internal/game"
	"github.com/peakecoin/peakpoker/internal/hive"
	"github.com/peakecoin/peakpoker/internal/ledger"
	"github.com/peakecoin/peakpoker/internal/server"
	"github.com/peakecoin/peakpoker/internal/session"
)

var CLI struct {
	Config   string `short:"c" default:"peakpoker.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}
	addr := cfg.Addr()
	if CLI.Addr != "" {
		addr = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	ctx := signalContext()

	client := hive.NewClient(cfg.Game.ContractsURL, cfg.Game.HistoryURL, logger)

	// No extension signer is available server-side; sessions run in
	// guest mode and payout attempts surface the missing signer to the
	// player. A platform-held signing key would slot in here.
	gateway := hive.NewGateway(client, nil, cfg.Game.Symbol, logger)

	group, ctx := errgroup.WithContext(ctx)

	var balances server.BalanceReader
	if cfg.Ledger.Enabled {
		pool, err := pgxpool.New(ctx, cfg.Ledger.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			kctx.Exit(1)
		}
		defer pool.Close()

		store := ledger.NewBalanceStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare ledger schema", "error", err)
			kctx.Exit(1)
		}
		balances = store

		watcher := ledger.NewWatcher(client, store, cfg.Game.PlatformAccount, cfg.Game.Symbol, logger,
			ledger.WithInterval(time.Duration(cfg.Ledger.PollSeconds)*time.Second))
		group.Go(func() error { return watcher.Run(ctx) })
	}

	newSession := func(bus game.EventBus) *session.Session {
		return session.New(gateway, cfg.Game.PlatformAccount, cfg.Game.Symbol, logger,
			session.WithEventBus(bus))
	}
	limits := server.BetLimits{Min: cfg.Game.MinBet, Max: cfg.Game.MaxBet}
	srv := server.New(addr, newSession, limits, cfg.Game.Symbol, balances, logger)

	logger.Info("starting peakpoker",
		"addr", addr,
		"symbol", cfg.Game.Symbol,
		"platform", cfg.Game.PlatformAccount,
		"ledger", cfg.Ledger.Enabled)

	group.Go(srv.Start)
	group.Go(func() error {
		<-ctx.Done()
		return srv.Stop()
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		kctx.Exit(1)
	}
}

// signalContext returns a context cancelled on interrupt signals
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return ctx
}
