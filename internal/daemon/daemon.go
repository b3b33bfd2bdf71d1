package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"blugr/internal/config"
	"blugr/internal/docstore"
	"blugr/internal/logging"
	"blugr/internal/services"
	"blugr/internal/tasks"
)

// Processor runs the content pipeline for one source URL.
type Processor interface {
	Process(ctx context.Context, sourceURL, taskID string) (string, error)
}

// ContentGetter reads stored content items for the API surface.
type ContentGetter interface {
	Get(ctx context.Context, contentID string) (*docstore.Item, error)
}

// Daemon owns the background worker pool and the HTTP API, and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *tasks.Registry
	processor Processor
	store     ContentGetter

	lockPath string
	lock     *flock.Flock

	api     *apiServer
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, registry *tasks.Registry, processor Processor, store ContentGetter) (*Daemon, error) {
	if cfg == nil || logger == nil || registry == nil || processor == nil {
		return nil, errors.New("daemon requires config, logger, registry, and processor")
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "blugrd.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		registry:  registry,
		processor: processor,
		store:     store,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another instance holds %s", d.lockPath)
	}

	d.ctx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))

	api, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		d.releaseLock()
		return err
	}
	d.api = api
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.releaseLock()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server, waits for in-flight pipelines and
// releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.api != nil {
		d.api.stop()
	}
	d.wg.Wait()
	d.releaseLock()
	d.logger.Info("daemon stopped")
}

// Running reports whether the daemon accepted its lock and started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Submit admits a new processing task for the URL and runs the pipeline in
// the background. The returned task id tracks progress through the registry.
func (d *Daemon) Submit(sourceURL string) (string, error) {
	if !d.running.Load() {
		return "", errors.New("daemon not running")
	}
	taskID := uuid.NewString()
	if err := d.registry.Create(taskID, sourceURL); err != nil {
		return "", err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx := services.WithTaskID(d.ctx, taskID)
		if _, err := d.processor.Process(ctx, sourceURL, taskID); err != nil {
			d.logger.Error("pipeline run failed",
				slog.String(logging.FieldTaskID, taskID),
				logging.Error(err))
		}
	}()
	return taskID, nil
}

func (d *Daemon) releaseLock() {
	if d.lock != nil {
		_ = d.lock.Unlock()
	}
}
