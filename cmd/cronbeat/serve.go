package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cronbeat/cronbeat"
)

// runServeCommand wires the daemon from the config file and blocks until
// SIGINT or SIGTERM.
func runServeCommand(flags *ServeFlags, args []string) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}
	if configPath == "" {
		return fmt.Errorf("config file required for serve command. Use --config=cronbeat.toml or provide as argument")
	}

	cfg, err := cronbeat.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	cfg.Log.Setup()

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	store, err := cronbeat.NewStore(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("error opening heartbeat store: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("error preparing heartbeat store: %w", err)
	}

	opts := cronbeat.Options{Registry: registry, Store: store}

	if cfg.History.DSN != "" {
		sink, err := cronbeat.NewHistorySink(cfg.History.DSN)
		if err != nil {
			return fmt.Errorf("error opening history sink: %w", err)
		}
		opts.History = sink
	}

	notifier, err := cronbeat.NewNotifier(cfg.Notifier)
	if err != nil {
		return fmt.Errorf("error building notifier: %w", err)
	}
	opts.Notifier = notifier

	if cfg.Store.LeasePath != "" {
		locker, err := cronbeat.NewSQLiteLocker(cfg.Store.LeasePath)
		if err != nil {
			return fmt.Errorf("error opening lease store: %w", err)
		}
		opts.Locker = locker
	}

	if err := cronbeat.RegisterMetricsDefault(); err != nil {
		fmt.Printf("Warning: failed to register metrics: %v\n", err)
	}

	mon, err := cronbeat.New(opts)
	if err != nil {
		return err
	}

	server, err := cronbeat.NewHTTPServer(cfg.Server.Listen, cfg.Server.BasePath, mon)
	if err != nil {
		return fmt.Errorf("error starting HTTP server: %w", err)
	}
	slog.Info("cronbeat daemon started",
		"listen", cfg.Server.Listen,
		"base_path", cfg.Server.BasePath,
		"tasks", registry.Len(),
		"store", cfg.Store.DSN)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown", "error", err)
	}
	mon.Wait()
	return nil
}
