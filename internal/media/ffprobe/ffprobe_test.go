package ffprobe_test

import (
	"os"
	"path/filepath"
	"testing"

	"reporeel/internal/media/ffprobe"
)

func stubProbe(t *testing.T, payload string) string {
	t.Helper()
	dir := t.TempDir()
	script := "#!/bin/sh\ncat <<'EOF'\n" + payload + "\nEOF\n"
	path := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestInspectParsesStreamsAndFormat(t *testing.T) {
	payload := `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 1, "sample_rate": "44100"}
  ],
  "format": {"filename": "out.mp4", "nb_streams": 2, "duration": "42.5"}
}`
	binary := stubProbe(t, payload)

	result, err := ffprobe.Inspect(t.Context(), binary, "out.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !result.HasVideo() || !result.HasAudio() {
		t.Fatalf("stream detection failed: %+v", result.Streams)
	}
	if got := result.DurationSeconds(); got != 42.5 {
		t.Fatalf("duration = %v, want 42.5", got)
	}
}

func TestDurationRejectsMissingValue(t *testing.T) {
	binary := stubProbe(t, `{"streams": [], "format": {"filename": "x"}}`)
	if _, err := ffprobe.Duration(t.Context(), binary, "x"); err == nil {
		t.Fatalf("expected error for missing duration")
	}
}

func TestInspectEmptyPath(t *testing.T) {
	if _, err := ffprobe.Inspect(t.Context(), "ffprobe", "  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
