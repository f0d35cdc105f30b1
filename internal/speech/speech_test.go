package speech_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reporeel/internal/config"
	"reporeel/internal/speech"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips timing markers",
			in:   "[0:00 - 0:30] Welcome to widgets",
			want: "Welcome to widgets.",
		},
		{
			name: "strips markdown",
			in:   "This is **bold** and *italic* and `code`.",
			want: "This is bold and italic and code.",
		},
		{
			name: "collapses whitespace",
			in:   "line one\n\nline   two.",
			want: "line one line two.",
		},
		{
			name: "empty stays empty",
			in:   "   ",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := speech.CleanText(tc.in); got != tc.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWriteSilentWAVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silent.wav")
	if err := speech.WriteSilentWAV(path, 2); err != nil {
		t.Fatalf("WriteSilentWAV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if len(data) < 44 {
		t.Fatalf("wav too small: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("bad container magic: %q %q", data[0:4], data[8:12])
	}
	if channels := binary.LittleEndian.Uint16(data[22:24]); channels != 1 {
		t.Fatalf("channels = %d, want 1", channels)
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 44100 {
		t.Fatalf("sample rate = %d, want 44100", rate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Fatalf("bits per sample = %d, want 16", bits)
	}
	wantData := 2 * 44100 * 2
	if gotData := binary.LittleEndian.Uint32(data[40:44]); int(gotData) != wantData {
		t.Fatalf("data size = %d, want %d", gotData, wantData)
	}
	if len(data) != 44+wantData {
		t.Fatalf("file size = %d, want %d", len(data), 44+wantData)
	}

	if err := speech.WriteSilentWAV(path, 0); err == nil {
		t.Fatalf("expected error for zero duration")
	}
}

func TestSynthesizeFallsBackToSilent(t *testing.T) {
	// Empty PATH hides every engine, forcing the silent provider.
	t.Setenv("PATH", t.TempDir())

	cfg := config.Default()
	synth := speech.New(&cfg, nil)

	out := filepath.Join(t.TempDir(), "narration.wav")
	result, err := synth.Synthesize(t.Context(), "A short script about widgets", out)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if result.Provider != "silent" {
		t.Fatalf("provider = %q, want silent", result.Provider)
	}
	if info, err := os.Stat(result.Path); err != nil || info.Size() == 0 {
		t.Fatalf("silent output missing: %v", err)
	}
}

func TestSynthesizeUsesEspeakWhenPresent(t *testing.T) {
	binDir := t.TempDir()
	stub := "#!/bin/sh\nout=\"\"\nwhile [ $# -gt 0 ]; do\n  if [ \"$1\" = \"-w\" ]; then out=\"$2\"; shift; fi\n  shift\ndone\nprintf 'audio' > \"$out\"\n"
	if err := os.WriteFile(filepath.Join(binDir, "espeak"), []byte(stub), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	cfg := config.Default()
	synth := speech.New(&cfg, nil)

	out := filepath.Join(t.TempDir(), "narration.wav")
	result, err := synth.Synthesize(t.Context(), "[0:00] Hello world", out)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if result.Provider != "espeak" {
		t.Fatalf("provider = %q, want espeak", result.Provider)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "audio" {
		t.Fatalf("stub output not written: %q %v", data, err)
	}
}

func TestSynthesizeRejectsEmptyScript(t *testing.T) {
	cfg := config.Default()
	synth := speech.New(&cfg, nil)
	if _, err := synth.Synthesize(t.Context(), "[0:00]", filepath.Join(t.TempDir(), "a.wav")); err == nil {
		t.Fatalf("expected error for marker-only script")
	}
	if _, err := synth.Synthesize(t.Context(), strings.Repeat(" ", 4), filepath.Join(t.TempDir(), "b.wav")); err == nil {
		t.Fatalf("expected error for blank script")
	}
}
