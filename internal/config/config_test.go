package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reporeel/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Workflow.WorkerCount != config.DefaultWorkerCount {
		t.Fatalf("worker_count = %d, want default %d", cfg.Workflow.WorkerCount, config.DefaultWorkerCount)
	}
	if got := cfg.Analysis.Branches; len(got) != 4 || got[0] != "main" {
		t.Fatalf("unexpected default branches: %v", got)
	}
	if cfg.Script.MaxTokens != 800 {
		t.Fatalf("max_tokens = %d, want 800", cfg.Script.MaxTokens)
	}
	if cfg.Speech.EspeakVoice != "en+m3" || cfg.Speech.EspeakSpeed != 160 {
		t.Fatalf("unexpected espeak defaults: %q/%d", cfg.Speech.EspeakVoice, cfg.Speech.EspeakSpeed)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
staging_dir = "` + filepath.Join(dir, "staging") + `"
output_dir = "` + filepath.Join(dir, "output") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[workflow]
worker_count = 4
queue_capacity = 16

[render]
width = 1280
height = 720
fps = 30
request_timeout = 120
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatalf("expected exists=true")
	}
	if cfg.Workflow.WorkerCount != 4 || cfg.Workflow.QueueCapacity != 16 {
		t.Fatalf("workflow overrides not applied: %+v", cfg.Workflow)
	}
	if cfg.Render.Width != 1280 || cfg.Render.Height != 720 {
		t.Fatalf("render overrides not applied: %+v", cfg.Render)
	}
	if cfg.Merge.MergeTimeout != config.DefaultMergeTimeout {
		t.Fatalf("unset sections should keep defaults, got merge_timeout=%d", cfg.Merge.MergeTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		snippet string
		wantErr string
	}{
		{
			name:    "zero workers",
			snippet: "[workflow]\nworker_count = 0\n",
			wantErr: "workflow.worker_count",
		},
		{
			name:    "bad log format",
			snippet: "[logging]\nformat = \"xml\"\n",
			wantErr: "logging.format",
		},
		{
			name:    "empty branches",
			snippet: "[analysis]\nbranches = []\n",
			wantErr: "analysis.branches",
		},
		{
			name:    "negative probe timeout",
			snippet: "[merge]\nprobe_timeout = -1\n",
			wantErr: "merge.probe_timeout",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.snippet), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestEnvFallbacksApply(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gk-test")
	t.Setenv("TOGETHER_API_KEY", "tk-test")
	t.Setenv("REPOREEL_API_TOKEN", "tok-test")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Script.GroqAPIKey != "gk-test" {
		t.Fatalf("groq key fallback not applied: %q", cfg.Script.GroqAPIKey)
	}
	if cfg.Script.TogetherAPIKey != "tk-test" {
		t.Fatalf("together key fallback not applied: %q", cfg.Script.TogetherAPIKey)
	}
	if cfg.Paths.APIToken != "tok-test" {
		t.Fatalf("api token fallback not applied: %q", cfg.Paths.APIToken)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("first WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatalf("expected error writing over existing config")
	}
	// Sample must itself survive a round trip through Load.
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "a", "staging")
	cfg.Paths.OutputDir = filepath.Join(dir, "b", "output")
	cfg.Paths.LogDir = filepath.Join(dir, "c", "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, p := range []string{cfg.Paths.StagingDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %s not created: %v", p, err)
		}
	}
}
