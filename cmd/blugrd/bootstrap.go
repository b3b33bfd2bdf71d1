package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"blugr/internal/claims"
	"blugr/internal/config"
	"blugr/internal/daemon"
	"blugr/internal/docstore"
	"blugr/internal/logging"
	"blugr/internal/media"
	"blugr/internal/notifications"
	"blugr/internal/pipeline"
	"blugr/internal/services/ffmpeg"
	"blugr/internal/services/gemini"
	"blugr/internal/services/whisper"
	"blugr/internal/services/ytdlp"
	"blugr/internal/storage"
	"blugr/internal/tasks"
)

// bootstrap wires every collaborator and returns the daemon plus a cleanup
// function that closes stores in reverse dependency order.
func bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, func(), error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, fmt.Errorf("ensure directories: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "blugrd"
	}
	owner := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	claimStore, err := claims.Open(cfg, owner)
	if err != nil {
		return nil, nil, fmt.Errorf("open claim store: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	store, err := docstore.Connect(connectCtx, cfg)
	if err != nil {
		_ = claimStore.Close()
		return nil, nil, fmt.Errorf("connect document store: %w", err)
	}

	uploader, err := storage.New(ctx, cfg)
	if err != nil {
		_ = store.Close(context.Background())
		_ = claimStore.Close()
		return nil, nil, fmt.Errorf("init object storage: %w", err)
	}

	registry := tasks.NewRegistry(cfg.Tasks.MaxConcurrent, time.Duration(cfg.Tasks.RetentionMinutes)*time.Minute)
	notifier := notifications.NewService(cfg)

	var mediaUploader storage.Uploader
	if uploader != nil {
		mediaUploader = uploader
	}
	coordinator := media.NewCoordinator(cfg, ffmpeg.New(cfg), mediaUploader, logger)

	orchestrator := pipeline.New(cfg, pipeline.Deps{
		Downloader:  ytdlp.New(cfg),
		Transcriber: whisper.NewService(cfg),
		Summarizer:  gemini.New(cfg),
		Extractor:   coordinator,
		Store:       store,
		Claims:      claimStore,
		Registry:    registry,
		Notifier:    notifier,
		Logger:      logger,
	})

	d, err := daemon.New(cfg, logger, registry, orchestrator, store)
	if err != nil {
		_ = store.Close(context.Background())
		_ = claimStore.Close()
		return nil, nil, err
	}

	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("document store close failed", logging.Error(err))
		}
		if err := claimStore.Close(); err != nil {
			logger.Warn("claim store close failed", logging.Error(err))
		}
	}
	return d, cleanup, nil
}
