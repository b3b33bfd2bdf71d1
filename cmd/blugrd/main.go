package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"blugr/internal/config"
	"blugr/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, resolvedPath, exists, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	if exists {
		logger.Info("configuration loaded", slog.String("path", resolvedPath))
	} else {
		logger.Info("no config file found, using defaults and environment")
	}

	d, cleanup, err := bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", logging.Error(err))
		os.Exit(1)
	}
	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		cleanup()
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("blugrd shutting down")
	d.Stop()
	cleanup()
}
