package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"reporeel/internal/analysis"
	"reporeel/internal/config"
	"reporeel/internal/render"
	"reporeel/internal/scenes"
)

func testPlan() scenes.Plan {
	return scenes.Plan{
		TotalDuration: 30,
		Scenes: []scenes.Scene{
			{Type: scenes.TypeTitle, Title: "Welcome", Color: "#2563eb", Duration: 15},
			{Type: scenes.TypeFeatures, Title: "Features", Color: "#7c3aed", Start: 15, Duration: 15},
		},
	}
}

func creatingRunner(calls *[][]string, fail func(args []string) error) render.RunFunc {
	return func(_ context.Context, args ...string) error {
		*calls = append(*calls, args)
		if fail != nil {
			if err := fail(args); err != nil {
				return err
			}
		}
		return os.WriteFile(args[len(args)-1], []byte("clip"), 0o644)
	}
}

func TestRenderConcatenatesScenes(t *testing.T) {
	cfg := config.Default()
	var calls [][]string
	renderer := render.New(&cfg, nil, render.WithRunner(creatingRunner(&calls, nil)))

	output := filepath.Join(t.TempDir(), "video.mp4")
	path, err := renderer.Render(t.Context(), testPlan(), &analysis.Report{RepositoryName: "widgets"}, output)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if path != output {
		t.Fatalf("path = %q, want %q", path, output)
	}

	// One clip per scene plus the concat pass.
	if len(calls) != 3 {
		t.Fatalf("ffmpeg calls = %d, want 3", len(calls))
	}
	for _, args := range calls[:2] {
		if !slices.Contains(args, "lavfi") {
			t.Fatalf("scene clip missing lavfi source: %v", args)
		}
		if !slices.Contains(args, "libx264") || !slices.Contains(args, "yuv420p") {
			t.Fatalf("scene clip missing encoder settings: %v", args)
		}
	}
	if !slices.Contains(calls[2], "concat") {
		t.Fatalf("final pass is not a concat: %v", calls[2])
	}
}

func TestRenderFallsBackToTitleCard(t *testing.T) {
	cfg := config.Default()
	var calls [][]string
	failScenes := func(args []string) error {
		if slices.Contains(args, "lavfi") && !strings.Contains(args[len(args)-1], "video.mp4") {
			return errors.New("encoder crashed")
		}
		return nil
	}
	renderer := render.New(&cfg, nil, render.WithRunner(creatingRunner(&calls, failScenes)))

	output := filepath.Join(t.TempDir(), "video.mp4")
	path, err := renderer.Render(t.Context(), testPlan(), &analysis.Report{RepositoryName: "widgets"}, output)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if path != output {
		t.Fatalf("path = %q, want fallback at %q", path, output)
	}

	last := calls[len(calls)-1]
	joined := strings.Join(last, " ")
	if !strings.Contains(joined, "color=c=blue") || !strings.Contains(joined, "widgets") {
		t.Fatalf("fallback args missing title card: %v", last)
	}
}

func TestRenderRejectsEmptyPlan(t *testing.T) {
	cfg := config.Default()
	renderer := render.New(&cfg, nil, render.WithRunner(creatingRunner(&[][]string{}, nil)))
	if _, err := renderer.Render(t.Context(), scenes.Plan{}, nil, filepath.Join(t.TempDir(), "v.mp4")); err == nil {
		t.Fatalf("expected error for empty plan")
	}
}

func TestRenderFailsWhenFallbackFails(t *testing.T) {
	cfg := config.Default()
	var calls [][]string
	renderer := render.New(&cfg, nil, render.WithRunner(func(_ context.Context, args ...string) error {
		calls = append(calls, args)
		return errors.New("no ffmpeg")
	}))

	if _, err := renderer.Render(t.Context(), testPlan(), nil, filepath.Join(t.TempDir(), "v.mp4")); err == nil {
		t.Fatalf("expected error when every render attempt fails")
	}
}
