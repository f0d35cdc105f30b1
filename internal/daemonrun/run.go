// Package daemonrun wires the daemon process: logging, lock file, session
// store, pipeline workers, and the HTTP API.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofrs/flock"

	"reporeel/internal/api"
	"reporeel/internal/config"
	"reporeel/internal/deps"
	"reporeel/internal/logging"
	"reporeel/internal/pipeline"
	"reporeel/internal/queue"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the reporeel daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	if opts.LogLevel != "" {
		adjusted := *cfg
		adjusted.Logging.Level = opts.LogLevel
		cfg = &adjusted
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	for _, status := range statuses {
		if !status.Available {
			logger.Warn("dependency unavailable",
				logging.String("name", status.Name),
				logging.Bool("optional", status.Optional),
				logging.String("detail", status.Detail))
		}
	}
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		return fmt.Errorf("missing required dependencies: %s", strings.Join(missing, ", "))
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "reporeel.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another reporeel daemon instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("release daemon lock", logging.Error(err))
		}
	}()

	pidPath := filepath.Join(cfg.Paths.LogDir, "reporeel.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	controller := pipeline.New(cfg, store, logger, pipeline.NewCollaborators(cfg, logger))
	controller.Start(signalCtx)
	defer controller.Stop(context.Background())

	dbPath := filepath.Join(cfg.Paths.LogDir, "sessions.db")
	statusFn := func(context.Context) api.DaemonStatus {
		current := deps.CheckBinaries(deps.Requirements(cfg))
		report := make([]api.DependencyStatus, len(current))
		for i, dep := range current {
			report[i] = api.DependencyStatus{
				Name:        dep.Name,
				Command:     dep.Command,
				Description: dep.Description,
				Optional:    dep.Optional,
				Available:   dep.Available,
				Detail:      dep.Detail,
			}
		}
		return api.DaemonStatus{
			Running:      true,
			PID:          os.Getpid(),
			QueueDBPath:  dbPath,
			LockFilePath: lockPath,
			Dependencies: report,
		}
	}

	server := api.NewServer(cfg.Paths.APIBind, cfg.Paths.APIToken, controller, statusFn, logger)
	if server != nil {
		if err := server.Start(signalCtx); err != nil {
			return err
		}
		defer server.Stop()
	} else {
		logger.Warn("api bind address not configured, api disabled")
	}

	logger.Info("reporeel daemon started", logging.String("lock", lockPath))
	<-signalCtx.Done()
	logger.Info("reporeel daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
