// Package pipeline drives queued conversion sessions through the five
// processing stages with a bounded worker pool.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"reporeel/internal/analysis"
	"reporeel/internal/config"
	"reporeel/internal/logging"
	"reporeel/internal/media/mux"
	"reporeel/internal/notifications"
	"reporeel/internal/queue"
	"reporeel/internal/render"
	"reporeel/internal/scenes"
	"reporeel/internal/scriptgen"
	"reporeel/internal/services"
	"reporeel/internal/speech"
)

// ErrQueueFull is returned by Submit when the submission queue is at
// capacity. Callers should retry later.
var ErrQueueFull = errors.New("submission queue is full")

// Analyzer inspects a repository and produces an analysis report.
type Analyzer interface {
	Analyze(ctx context.Context, repoURL string) (*analysis.Report, error)
}

// ScriptGenerator turns an analysis report into a narration script.
type ScriptGenerator interface {
	Generate(ctx context.Context, report *analysis.Report) (scriptgen.Result, error)
}

// SpeechSynthesizer produces narration audio for a script.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, script, outputPath string) (speech.Result, error)
}

// Merger combines the rendered video with the narration audio.
type Merger interface {
	Merge(ctx context.Context, videoPath, audioPath, outputPath string) (mux.Result, error)
}

// Collaborators bundles the stage implementations the controller drives.
type Collaborators struct {
	Analyzer Analyzer
	Scripts  ScriptGenerator
	Speech   SpeechSynthesizer
	Renderer render.Renderer
	Merger   Merger
	Notifier notifications.Service
}

// NewCollaborators wires the production stage implementations.
func NewCollaborators(cfg *config.Config, logger *slog.Logger) Collaborators {
	return Collaborators{
		Analyzer: analysis.New(cfg, logger),
		Scripts:  scriptgen.New(cfg, logger),
		Speech:   speech.New(cfg, logger),
		Renderer: render.New(cfg, logger),
		Merger:   mux.New(cfg, logger),
		Notifier: notifications.NewService(cfg),
	}
}

// Controller accepts submissions and processes them asynchronously.
type Controller struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	deps   Collaborators

	jobs    chan string
	workers int

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Controller. Workers are not started until Start.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, deps Collaborators) *Controller {
	capacity := cfg.Workflow.QueueCapacity
	if capacity <= 0 {
		capacity = config.DefaultQueueCapacity
	}
	workers := cfg.Workflow.WorkerCount
	if workers <= 0 {
		workers = config.DefaultWorkerCount
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	return &Controller{
		cfg:     cfg,
		store:   store,
		logger:  logging.WithComponent(logger, "pipeline"),
		deps:    deps,
		jobs:    make(chan string, capacity),
		workers: workers,
	}
}

// Submit validates the URL, persists a pending session, and enqueues it.
// A full queue rejects the submission with ErrQueueFull and leaves no
// session behind.
func (c *Controller) Submit(ctx context.Context, repoURL string) (string, error) {
	if err := analysis.ValidateSource(repoURL); err != nil {
		return "", err
	}

	session, err := c.store.Create(ctx, repoURL, analysis.RepoName(repoURL))
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	select {
	case c.jobs <- session.ID:
	default:
		if _, removeErr := c.store.Remove(ctx, session.ID); removeErr != nil {
			c.logger.Warn("remove rejected session", logging.Error(removeErr))
		}
		return "", ErrQueueFull
	}

	c.logger.Info("session queued",
		logging.String(logging.FieldSessionID, session.ID),
		logging.String("repo_url", repoURL))
	if err := c.deps.Notifier.NotifyJobQueued(ctx, session.RepoName); err != nil {
		c.logger.Warn("queued notification failed", logging.Error(err))
	}
	return session.ID, nil
}

// Status returns the session snapshot, or ErrNotFound for unknown IDs.
func (c *Controller) Status(ctx context.Context, sessionID string) (*queue.Session, error) {
	session, err := c.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "status", "unknown session "+sessionID, nil)
	}
	return session, nil
}

// List returns sessions filtered by the given statuses, oldest first.
func (c *Controller) List(ctx context.Context, statuses ...queue.Status) ([]*queue.Session, error) {
	return c.store.List(ctx, statuses...)
}

// Summarize returns aggregate session counts.
func (c *Controller) Summarize(ctx context.Context) (queue.Summary, error) {
	return c.store.Summarize(ctx)
}

// Start launches the worker pool. Calling Start twice is a no-op.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(runCtx)
	}
	c.logger.Info("pipeline started", logging.Int("workers", c.workers))
}

// Stop halts the workers and fails any session that never finished so a
// restart does not resume half-done work.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	c.wg.Wait()

	if count, err := c.store.FailInFlight(ctx, queue.DaemonStopReason); err != nil {
		c.logger.Warn("fail in-flight sessions", logging.Error(err))
	} else if count > 0 {
		c.logger.Info("failed in-flight sessions on shutdown", logging.Int("count", int(count)))
	}
	c.logger.Info("pipeline stopped")
}

func (c *Controller) worker(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case sessionID := <-c.jobs:
			c.process(ctx, sessionID)
		}
	}
}

// process runs one session through the linear stage machine. Progress is
// written on stage entry so pollers always see it advance before work
// begins. Stage errors are captured verbatim and never retried here.
func (c *Controller) process(ctx context.Context, sessionID string) {
	ctx = services.WithSessionID(ctx, sessionID)
	logger := c.logger.With(logging.String(logging.FieldSessionID, sessionID))

	session, err := c.store.GetByID(ctx, sessionID)
	if err != nil || session == nil {
		logger.Warn("queued session vanished", logging.Error(err))
		return
	}

	if err := c.runStages(ctx, session, logger); err != nil {
		session.SetFailed(err.Error())
		if updateErr := c.store.Update(ctx, session); updateErr != nil {
			logger.Error("persist failure state", logging.Error(updateErr))
		}
		logger.Error("session failed",
			logging.String(logging.FieldStage, string(session.Status)),
			logging.Error(err))
		if notifyErr := c.deps.Notifier.NotifyJobFailed(ctx, session.RepoName, err); notifyErr != nil {
			logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
	}
}

func (c *Controller) runStages(ctx context.Context, session *queue.Session, logger *slog.Logger) error {
	if err := c.advance(ctx, session, queue.StatusAnalyzing, queue.ProgressAnalyzing, "Analyzing repository"); err != nil {
		return err
	}
	report, err := c.deps.Analyzer.Analyze(services.WithStage(ctx, "analyze"), session.RepoURL)
	if err != nil {
		return err
	}
	session.RepoName = report.RepositoryName

	if err := c.advance(ctx, session, queue.StatusScripting, queue.ProgressScripting, "Generating narration script"); err != nil {
		return err
	}
	script, err := c.deps.Scripts.Generate(services.WithStage(ctx, "script"), report)
	if err != nil {
		return err
	}
	session.ScriptText = script.Script

	if err := c.advance(ctx, session, queue.StatusSynthesizing, queue.ProgressSynthesized, "Synthesizing narration audio"); err != nil {
		return err
	}
	audioPath := c.stagingPath(session.ID, "audio.wav")
	audio, err := c.deps.Speech.Synthesize(services.WithStage(ctx, "speech"), script.Script, audioPath)
	if err != nil {
		return err
	}
	session.AudioPath = audio.Path

	if err := c.advance(ctx, session, queue.StatusRendering, queue.ProgressRendered, "Rendering video"); err != nil {
		return err
	}
	plan := scenes.Build(script.Script, report.RepositoryName, report.Technologies)
	videoPath, err := c.deps.Renderer.Render(services.WithStage(ctx, "render"), plan, report, c.stagingPath(session.ID, "video.mp4"))
	if err != nil {
		return err
	}
	session.VideoPath = videoPath

	if err := c.advance(ctx, session, queue.StatusMerging, queue.ProgressMerging, "Merging audio and video"); err != nil {
		return err
	}
	outputPath := filepath.Join(c.cfg.Paths.OutputDir, fmt.Sprintf("reporeel_%s_final.mp4", session.ID))
	merged, err := c.deps.Merger.Merge(services.WithStage(ctx, "merge"), session.VideoPath, session.AudioPath, outputPath)
	if err != nil {
		return err
	}

	session.SetCompleted(merged.Path)
	if err := c.store.Update(ctx, session); err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}

	logger.Info("session completed",
		logging.String("output", merged.Path),
		logging.Bool("merged", merged.Merged))
	if err := c.deps.Notifier.NotifyVideoReady(ctx, session.RepoName, merged.Path); err != nil {
		logger.Warn("completion notification failed", logging.Error(err))
	}
	return nil
}

// advance moves the session into a stage before its work starts.
func (c *Controller) advance(ctx context.Context, session *queue.Session, status queue.Status, progress int, message string) error {
	session.SetProgress(status, progress, message)
	if err := c.store.Update(ctx, session); err != nil {
		return fmt.Errorf("persist %s state: %w", status, err)
	}
	return nil
}

func (c *Controller) stagingPath(sessionID, suffix string) string {
	return filepath.Join(c.cfg.Paths.StagingDir, fmt.Sprintf("reporeel_%s_%s", sessionID, suffix))
}
