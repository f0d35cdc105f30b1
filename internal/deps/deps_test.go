package deps_test

import (
	"testing"

	"reporeel/internal/deps"
	"reporeel/internal/testsupport"
)

func TestCheckBinariesReportsStubbedTools(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg", "ffprobe", "espeak"))

	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	available := make(map[string]bool, len(statuses))
	for _, status := range statuses {
		available[status.Command] = status.Available
	}
	if !available["ffmpeg"] || !available["ffprobe"] || !available["espeak"] {
		t.Fatalf("stubbed binaries not detected: %+v", statuses)
	}
	if available["edge-tts"] {
		t.Fatalf("edge-tts should not resolve on a bare PATH")
	}
	if missing := deps.MissingRequired(statuses); len(missing) != 0 {
		t.Fatalf("unexpected missing required deps: %v", missing)
	}
}

func TestMissingRequiredReportsMergeTools(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	statuses := deps.CheckBinaries(deps.Requirements(nil))
	missing := deps.MissingRequired(statuses)
	if len(missing) != 2 {
		t.Fatalf("missing = %v, want both merge tools", missing)
	}
}
