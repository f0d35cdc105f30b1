package pipeline_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"reporeel/internal/analysis"
	"reporeel/internal/media/mux"
	"reporeel/internal/pipeline"
	"reporeel/internal/queue"
	"reporeel/internal/scenes"
	"reporeel/internal/scriptgen"
	"reporeel/internal/services"
	"reporeel/internal/speech"
	"reporeel/internal/testsupport"
)

type stubStages struct {
	mu       sync.Mutex
	progress []int

	store      *queue.Store
	analyzeErr error
	renderErr  error
}

func (s *stubStages) record(ctx context.Context) {
	id, ok := services.SessionIDFromContext(ctx)
	if !ok {
		return
	}
	session, err := s.store.GetByID(context.Background(), id)
	if err != nil || session == nil {
		return
	}
	s.mu.Lock()
	s.progress = append(s.progress, session.Progress)
	s.mu.Unlock()
}

func (s *stubStages) Analyze(ctx context.Context, repoURL string) (*analysis.Report, error) {
	s.record(ctx)
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	return &analysis.Report{RepositoryName: "widgets", Technologies: []string{"Go"}}, nil
}

func (s *stubStages) Generate(ctx context.Context, _ *analysis.Report) (scriptgen.Result, error) {
	s.record(ctx)
	return scriptgen.Result{Script: "Welcome to widgets. It does things.", Provider: "template"}, nil
}

func (s *stubStages) Synthesize(ctx context.Context, _, outputPath string) (speech.Result, error) {
	s.record(ctx)
	if err := os.WriteFile(outputPath, []byte("audio"), 0o644); err != nil {
		return speech.Result{}, err
	}
	return speech.Result{Path: outputPath, Provider: "silent"}, nil
}

func (s *stubStages) Render(ctx context.Context, _ scenes.Plan, _ *analysis.Report, outputPath string) (string, error) {
	s.record(ctx)
	if s.renderErr != nil {
		return "", s.renderErr
	}
	if err := os.WriteFile(outputPath, []byte("video"), 0o644); err != nil {
		return "", err
	}
	return outputPath, nil
}

func (s *stubStages) Merge(ctx context.Context, videoPath, _, outputPath string) (mux.Result, error) {
	s.record(ctx)
	if err := os.WriteFile(outputPath, []byte("final"), 0o644); err != nil {
		return mux.Result{}, err
	}
	return mux.Result{Path: outputPath, Strategy: mux.StrategyMux, Merged: true}, nil
}

func newController(t *testing.T, stages *stubStages) (*pipeline.Controller, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(1, 2))
	store := testsupport.MustOpenStore(t, cfg)
	stages.store = store

	deps := pipeline.Collaborators{
		Analyzer: stages,
		Scripts:  stages,
		Speech:   stages,
		Renderer: stages,
		Merger:   stages,
	}
	return pipeline.New(cfg, store, nil, deps), store
}

func waitForTerminal(t *testing.T, controller *pipeline.Controller, sessionID string) *queue.Session {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("session %s never reached a terminal status", sessionID)
		case <-time.After(10 * time.Millisecond):
		}
		session, err := controller.Status(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if queue.IsTerminal(session.Status) {
			return session
		}
	}
}

func TestPipelineCompletesSession(t *testing.T) {
	stages := &stubStages{}
	controller, _ := newController(t, stages)

	controller.Start(context.Background())
	defer controller.Stop(context.Background())

	id, err := controller.Submit(context.Background(), "https://github.com/acme/widgets")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	session := waitForTerminal(t, controller, id)
	if session.Status != queue.StatusCompleted {
		t.Fatalf("status = %q (%s), want completed", session.Status, session.ErrorMessage)
	}
	if session.Progress != queue.ProgressDone || session.OutputPath == "" {
		t.Fatalf("completion not recorded: %+v", session)
	}
	if session.RepoName != "widgets" || session.ScriptText == "" {
		t.Fatalf("stage artifacts not persisted: %+v", session)
	}

	stages.mu.Lock()
	progress := append([]int(nil), stages.progress...)
	stages.mu.Unlock()
	want := []int{10, 30, 50, 70, 90}
	if len(progress) != len(want) {
		t.Fatalf("stage entries = %v, want %v", progress, want)
	}
	for i, p := range progress {
		if p != want[i] {
			t.Fatalf("progress[%d] = %d, want %d (full: %v)", i, p, want[i], progress)
		}
	}
}

func TestPipelineCapturesStageFailure(t *testing.T) {
	stages := &stubStages{renderErr: errors.New("encoder crashed")}
	controller, _ := newController(t, stages)

	controller.Start(context.Background())
	defer controller.Stop(context.Background())

	id, err := controller.Submit(context.Background(), "https://github.com/acme/widgets")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	session := waitForTerminal(t, controller, id)
	if session.Status != queue.StatusFailed {
		t.Fatalf("status = %q, want failed", session.Status)
	}
	if session.ErrorMessage != "encoder crashed" {
		t.Fatalf("error message = %q, want verbatim stage error", session.ErrorMessage)
	}
	// Failure preserves the progress of the stage that broke.
	if session.Progress != queue.ProgressRendered {
		t.Fatalf("progress = %d, want %d", session.Progress, queue.ProgressRendered)
	}
}

func TestSubmitRejectsInvalidURL(t *testing.T) {
	stages := &stubStages{}
	controller, _ := newController(t, stages)

	if _, err := controller.Submit(context.Background(), "https://gitlab.com/acme/widgets"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	stages := &stubStages{}
	controller, store := newController(t, stages)
	// Workers deliberately not started so submissions pile up.

	var accepted int
	var lastErr error
	for i := 0; i < 5; i++ {
		if _, err := controller.Submit(context.Background(), "https://github.com/acme/widgets"); err != nil {
			lastErr = err
			break
		}
		accepted++
	}

	if accepted != 2 {
		t.Fatalf("accepted = %d, want queue capacity of 2", accepted)
	}
	if !errors.Is(lastErr, pipeline.ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", lastErr)
	}

	// The rejected submission must not leave a session behind.
	sessions, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
}

func TestStatusUnknownSession(t *testing.T) {
	stages := &stubStages{}
	controller, _ := newController(t, stages)

	if _, err := controller.Status(context.Background(), "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStopFailsInFlightSessions(t *testing.T) {
	stages := &stubStages{}
	controller, store := newController(t, stages)

	// Queue a session without running workers, then stop: the pending
	// session must be failed so a restart cannot resume it.
	id, err := controller.Submit(context.Background(), "https://github.com/acme/widgets")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	controller.Start(context.Background())
	controller.Stop(context.Background())

	session, err := store.GetByID(context.Background(), id)
	if err != nil || session == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if session.Status != queue.StatusFailed && session.Status != queue.StatusCompleted {
		t.Fatalf("status = %q, want terminal", session.Status)
	}
	if session.Status == queue.StatusFailed && session.ErrorMessage != queue.DaemonStopReason {
		t.Fatalf("error message = %q, want %q", session.ErrorMessage, queue.DaemonStopReason)
	}
}
