// Package speech synthesizes narration audio, cascading over system
// text-to-speech engines before a silent-track fallback.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reporeel/internal/config"
	"reporeel/internal/logging"
	"reporeel/internal/provider"
	"reporeel/internal/services"
)

// Request asks for narration audio at a specific output path.
type Request struct {
	Text       string
	OutputPath string
}

// Result reports the produced audio file and the engine that made it.
type Result struct {
	Path     string
	Provider string
}

// Synthesizer produces narration audio files.
type Synthesizer struct {
	cascade *provider.Cascade[Request, string]
	logger  *slog.Logger
}

const (
	// Fallback pace for estimating silent-track length.
	silentSecondsPerWord = 0.5
	silentMaxSeconds     = 180.0
)

var (
	timingMarkerRe = regexp.MustCompile(`\[[\d:.\- ]+\]`)
	boldRe         = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe       = regexp.MustCompile(`\*(.*?)\*`)
	codeRe         = regexp.MustCompile("`(.*?)`")
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// CleanText strips timing markers and markdown so engines read plain prose.
func CleanText(text string) string {
	text = timingMarkerRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = codeRe.ReplaceAllString(text, "$1")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if text != "" && !strings.HasSuffix(text, ".") {
		text += "."
	}
	return text
}

// New constructs a Synthesizer with the engine order espeak, say, festival,
// edge-tts, silent. Engine availability is re-checked on every job.
func New(cfg *config.Config, logger *slog.Logger) *Synthesizer {
	timeout := time.Duration(cfg.Speech.RequestTimeout) * time.Second
	ffmpeg := cfg.FFmpegBinary()

	cascade := provider.New[Request, string]("speech", logger,
		provider.Descriptor[Request, string]{
			Name:      "espeak",
			Available: requireBinaries("espeak"),
			Run: func(ctx context.Context, req Request) (string, error) {
				return runEngine(ctx, req.OutputPath, "espeak",
					"-v", cfg.Speech.EspeakVoice,
					"-s", strconv.Itoa(cfg.Speech.EspeakSpeed),
					"-a", "80",
					"-w", req.OutputPath,
					req.Text)
			},
			Timeout: timeout,
		},
		provider.Descriptor[Request, string]{
			Name:      "say",
			Available: requireBinaries("say", ffmpeg),
			Run: func(ctx context.Context, req Request) (string, error) {
				return runSay(ctx, ffmpeg, req)
			},
			Timeout: timeout,
		},
		provider.Descriptor[Request, string]{
			Name:      "festival",
			Available: requireBinaries("text2wave"),
			Run: func(ctx context.Context, req Request) (string, error) {
				return runFestival(ctx, req)
			},
			Timeout: timeout,
		},
		provider.Descriptor[Request, string]{
			Name:      "edge-tts",
			Available: requireBinaries("edge-tts", ffmpeg),
			Run: func(ctx context.Context, req Request) (string, error) {
				return runEdgeTTS(ctx, ffmpeg, cfg.Speech.EdgeVoice, req)
			},
			Timeout: timeout,
		},
		provider.Descriptor[Request, string]{
			Name: "silent",
			Run: func(_ context.Context, req Request) (string, error) {
				seconds := min(float64(len(strings.Fields(req.Text)))*silentSecondsPerWord, silentMaxSeconds)
				if seconds <= 0 {
					seconds = 1
				}
				if err := WriteSilentWAV(req.OutputPath, seconds); err != nil {
					return "", err
				}
				return req.OutputPath, nil
			},
		},
	)

	return &Synthesizer{
		cascade: cascade,
		logger:  logging.WithComponent(logger, "speech"),
	}
}

// Synthesize writes narration audio for the script to outputPath.
func (s *Synthesizer) Synthesize(ctx context.Context, script, outputPath string) (Result, error) {
	text := CleanText(script)
	if text == "" {
		return Result{}, services.Wrap(services.ErrValidation, "speech", "synthesize", "script is empty", nil)
	}

	result, err := s.cascade.Execute(ctx, Request{Text: text, OutputPath: outputPath})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("audio synthesized",
		logging.String(logging.FieldProvider, result.Provider),
		logging.String("path", result.Artifact))
	return Result{Path: result.Artifact, Provider: result.Provider}, nil
}

func requireBinaries(names ...string) func(context.Context, Request) error {
	return func(context.Context, Request) error {
		for _, name := range names {
			if _, err := exec.LookPath(name); err != nil {
				return fmt.Errorf("binary %q not found", name)
			}
		}
		return nil
	}
}

// runEngine executes a command expected to create outputPath itself.
func runEngine(ctx context.Context, outputPath, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "speech", name, strings.TrimSpace(string(output)), err)
	}
	return verifyOutput(outputPath, name)
}

func runSay(ctx context.Context, ffmpeg string, req Request) (string, error) {
	aiffPath := strings.TrimSuffix(req.OutputPath, filepath.Ext(req.OutputPath)) + ".aiff"
	defer os.Remove(aiffPath)

	if _, err := runEngine(ctx, aiffPath, "say",
		"-v", "Alex",
		"-r", "180",
		"-o", aiffPath,
		req.Text); err != nil {
		return "", err
	}
	return runEngine(ctx, req.OutputPath, ffmpeg, "-i", aiffPath, "-y", req.OutputPath)
}

func runFestival(ctx context.Context, req Request) (string, error) {
	textPath := strings.TrimSuffix(req.OutputPath, filepath.Ext(req.OutputPath)) + ".txt"
	if err := os.WriteFile(textPath, []byte(req.Text), 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "speech", "festival", "write text file", err)
	}
	defer os.Remove(textPath)

	return runEngine(ctx, req.OutputPath, "text2wave", textPath, "-o", req.OutputPath)
}

func runEdgeTTS(ctx context.Context, ffmpeg, voice string, req Request) (string, error) {
	mp3Path := strings.TrimSuffix(req.OutputPath, filepath.Ext(req.OutputPath)) + ".mp3"
	defer os.Remove(mp3Path)

	if _, err := runEngine(ctx, mp3Path, "edge-tts",
		"--text", req.Text,
		"--write-media", mp3Path,
		"--voice", voice); err != nil {
		return "", err
	}
	return runEngine(ctx, req.OutputPath, ffmpeg,
		"-i", mp3Path, "-ar", "44100", "-ac", "1", "-y", req.OutputPath)
}

func verifyOutput(path, engine string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "speech", engine, "no output produced", err)
	}
	if info.Size() == 0 {
		return "", services.Wrap(services.ErrExternalTool, "speech", engine, "output file is empty", nil)
	}
	return path, nil
}
