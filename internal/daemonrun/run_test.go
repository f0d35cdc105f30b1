package daemonrun_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"reporeel/internal/daemonrun"
	"reporeel/internal/testsupport"
)

// A pre-cancelled context drives Run through a full startup and shutdown
// cycle without waiting for a signal.
func TestRunStartsAndShutsDown(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithAPIToken("secret"),
		testsupport.WithStubbedBinaries())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := daemonrun.Run(ctx, cfg, daemonrun.Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "reporeel.pid")); !os.IsNotExist(err) {
		t.Fatalf("pid file not cleaned up: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "sessions.db")); err != nil {
		t.Fatalf("session store not created: %v", err)
	}
}

func TestRunRequiresMergeTools(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := testsupport.NewConfig(t)

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err == nil {
		t.Fatalf("expected preflight failure without ffmpeg")
	}
}
