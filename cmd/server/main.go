// Package main - Entry point for the eSIM quote server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"esim-pricing/adapters/storage"
	"esim-pricing/api"
	"esim-pricing/core/engine"
	"esim-pricing/internal/config"
	"esim-pricing/internal/logging"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "esim-pricing-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgFile := flag.String("config", "", "config file (TOML)")
	addr := flag.String("addr", "", "server address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer logging.Sync()

	opts := []api.Option{api.WithLogger(logging.Named("http"))}
	if cfg.Server.StoreBackend != "none" {
		store, err := storage.StoreFactory(storage.Backend(cfg.Server.StoreBackend), cfg.Server.StorePath, cfg.Server.MaxRuns)
		if err != nil {
			return err
		}
		opts = append(opts, api.WithStore(store))
	}

	eng := engine.NewEngine(cfg.EngineConfig(), engine.WithLogger(logging.Named("engine")))
	server := api.NewServer(version, eng, cfg.Server, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("starting esim-pricing server",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr),
		zap.String("store", cfg.Server.StoreBackend),
	)
	return server.Start(ctx)
}
