// Package mux reconciles narration audio with rendered video and produces
// the final output file. Merging is best effort: when audio is missing or
// every ffmpeg invocation fails, the video is delivered without narration
// rather than failing the job.
package mux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reporeel/internal/config"
	"reporeel/internal/logging"
	"reporeel/internal/media/ffprobe"
	"reporeel/internal/services"
)

// ErrInputMissing marks the one merge failure that stops a job: the
// rendered video file does not exist.
var ErrInputMissing = errors.New("merge input missing")

// ProbeFunc reports the duration, in seconds, of a media file.
type ProbeFunc func(ctx context.Context, path string) (float64, error)

// RunFunc executes ffmpeg with the given arguments.
type RunFunc func(ctx context.Context, args ...string) error

// Result reports where the output landed and how it was produced.
type Result struct {
	Path     string
	Strategy Strategy
	// Merged is false when the video was delivered without narration.
	Merged bool
}

// Merger combines an audio and a video stream into a single file.
type Merger struct {
	probe        ProbeFunc
	run          RunFunc
	logger       *slog.Logger
	probeTimeout time.Duration
	mergeTimeout time.Duration
}

// Option customizes Merger construction.
type Option func(*Merger)

// WithProbe overrides the duration prober.
func WithProbe(probe ProbeFunc) Option {
	return func(m *Merger) { m.probe = probe }
}

// WithRunner overrides the ffmpeg runner.
func WithRunner(run RunFunc) Option {
	return func(m *Merger) { m.run = run }
}

// New constructs a Merger backed by the configured ffmpeg and ffprobe
// binaries.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Merger {
	ffmpegBinary := cfg.FFmpegBinary()
	ffprobeBinary := cfg.FFprobeBinary()

	merger := &Merger{
		logger:       logging.WithComponent(logger, "mux"),
		probeTimeout: time.Duration(cfg.Merge.ProbeTimeout) * time.Second,
		mergeTimeout: time.Duration(cfg.Merge.MergeTimeout) * time.Second,
	}
	merger.probe = func(ctx context.Context, path string) (float64, error) {
		return ffprobe.Duration(ctx, ffprobeBinary, path)
	}
	merger.run = func(ctx context.Context, args ...string) error {
		cmd := exec.CommandContext(ctx, ffmpegBinary, args...)
		if output, err := cmd.CombinedOutput(); err != nil {
			return services.Wrap(services.ErrExternalTool, "mux", "ffmpeg", truncateOutput(output), err)
		}
		return nil
	}
	for _, opt := range opts {
		opt(merger)
	}
	return merger
}

// Merge combines videoPath and audioPath into outputPath. The only hard
// failure is a missing video file; every other problem degrades to returning
// the video as-is.
func (m *Merger) Merge(ctx context.Context, videoPath, audioPath, outputPath string) (Result, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return Result{}, services.Wrap(ErrInputMissing, "mux", "merge", "video file missing", err)
	}
	if audioPath == "" {
		m.logger.Warn("no audio track, delivering video only")
		return Result{Path: videoPath, Strategy: StrategyMux}, nil
	}
	if _, err := os.Stat(audioPath); err != nil {
		m.logger.Warn("audio file missing, delivering video only", logging.String("path", audioPath))
		return Result{Path: videoPath, Strategy: StrategyMux}, nil
	}

	videoDuration, err := m.probeDuration(ctx, videoPath)
	if err != nil {
		m.logger.Warn("video probe failed, attempting direct mux", logging.Error(err))
		return m.finish(ctx, videoPath, audioPath, outputPath, Decision{Strategy: StrategyMux})
	}
	audioDuration, err := m.probeDuration(ctx, audioPath)
	if err != nil {
		m.logger.Warn("audio probe failed, attempting direct mux", logging.Error(err))
		return m.finish(ctx, videoPath, audioPath, outputPath, Decision{Strategy: StrategyMux})
	}

	decision := Decide(videoDuration, audioDuration)
	m.logger.Info("merge strategy chosen",
		logging.String("strategy", string(decision.Strategy)),
		logging.Float64("video_duration", videoDuration),
		logging.Float64("audio_duration", audioDuration))

	return m.finish(ctx, videoPath, audioPath, outputPath, decision)
}

// finish executes the chosen strategy, degrading toward a direct mux and
// finally the bare video when ffmpeg refuses to cooperate.
func (m *Merger) finish(ctx context.Context, videoPath, audioPath, outputPath string, decision Decision) (Result, error) {
	err := m.execute(ctx, videoPath, audioPath, outputPath, decision)
	if err != nil && decision.Strategy != StrategyMux {
		m.logger.Warn("merge strategy failed, retrying with direct mux",
			logging.String("strategy", string(decision.Strategy)),
			logging.Error(err))
		decision = Decision{Strategy: StrategyMux}
		err = m.execute(ctx, videoPath, audioPath, outputPath, decision)
	}
	if err != nil {
		m.logger.Warn("merge failed, delivering video only", logging.Error(err))
		return Result{Path: videoPath, Strategy: decision.Strategy}, nil
	}

	if _, verifyErr := m.probeDuration(ctx, outputPath); verifyErr != nil {
		m.logger.Warn("merged output failed verification, delivering video only", logging.Error(verifyErr))
		return Result{Path: videoPath, Strategy: decision.Strategy}, nil
	}
	return Result{Path: outputPath, Strategy: decision.Strategy, Merged: true}, nil
}

func (m *Merger) execute(ctx context.Context, videoPath, audioPath, outputPath string, decision Decision) error {
	if m.mergeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.mergeTimeout)
		defer cancel()
	}
	return m.run(ctx, mergeArgs(videoPath, audioPath, outputPath, decision)...)
}

func (m *Merger) probeDuration(ctx context.Context, path string) (float64, error) {
	if m.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.probeTimeout)
		defer cancel()
	}
	return m.probe(ctx, path)
}

// mergeArgs builds the ffmpeg argument list for a decision.
func mergeArgs(videoPath, audioPath, outputPath string, decision Decision) []string {
	switch decision.Strategy {
	case StrategyAudioLoop:
		return []string{
			"-i", videoPath,
			"-stream_loop", "-1",
			"-i", audioPath,
			"-c:v", "copy",
			"-c:a", "aac",
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-t", formatSeconds(decision.TargetDuration),
			"-avoid_negative_ts", "make_zero",
			"-y", outputPath,
		}
	case StrategyTimescale:
		return []string{
			"-i", videoPath,
			"-i", audioPath,
			"-filter_complex", fmt.Sprintf("[0:v]setpts=PTS/%s[v]", formatSeconds(decision.SpeedFactor)),
			"-map", "[v]",
			"-map", "1:a:0",
			"-c:a", "aac",
			"-avoid_negative_ts", "make_zero",
			"-y", outputPath,
		}
	default:
		return []string{
			"-i", videoPath,
			"-i", audioPath,
			"-c:v", "copy",
			"-c:a", "aac",
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-shortest",
			"-avoid_negative_ts", "make_zero",
			"-y", outputPath,
		}
	}
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func truncateOutput(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > 500 {
		text = text[:500] + "..."
	}
	return text
}
