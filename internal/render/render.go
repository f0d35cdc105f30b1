// Package render produces the visual track for a narration plan using
// ffmpeg synthetic sources.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reporeel/internal/analysis"
	"reporeel/internal/config"
	"reporeel/internal/logging"
	"reporeel/internal/scenes"
	"reporeel/internal/services"
)

// Renderer turns a scene plan into a video file.
type Renderer interface {
	Render(ctx context.Context, plan scenes.Plan, report *analysis.Report, outputPath string) (string, error)
}

// RunFunc executes ffmpeg with the given arguments.
type RunFunc func(ctx context.Context, args ...string) error

// FFmpegRenderer renders one color clip per scene and concatenates them.
// When per-scene rendering fails it degrades to a single title card so the
// job still produces a watchable file.
type FFmpegRenderer struct {
	run     func(ctx context.Context, args ...string) error
	logger  *slog.Logger
	width   int
	height  int
	fps     int
	timeout time.Duration
}

// Option customizes FFmpegRenderer construction.
type Option func(*FFmpegRenderer)

// WithRunner overrides the ffmpeg runner.
func WithRunner(run RunFunc) Option {
	return func(r *FFmpegRenderer) { r.run = run }
}

// New constructs an FFmpegRenderer from the render configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *FFmpegRenderer {
	binary := cfg.FFmpegBinary()
	renderer := &FFmpegRenderer{
		logger:  logging.WithComponent(logger, "render"),
		width:   cfg.Render.Width,
		height:  cfg.Render.Height,
		fps:     cfg.Render.FPS,
		timeout: time.Duration(cfg.Render.RequestTimeout) * time.Second,
	}
	renderer.run = func(ctx context.Context, args ...string) error {
		cmd := exec.CommandContext(ctx, binary, args...)
		if output, err := cmd.CombinedOutput(); err != nil {
			return services.Wrap(services.ErrExternalTool, "render", "ffmpeg", trimOutput(output), err)
		}
		return nil
	}
	for _, opt := range opts {
		opt(renderer)
	}
	return renderer
}

const fallbackMaxSeconds = 180.0

// Render writes the plan's video to outputPath. Scene failures degrade to a
// single title card; only a failed title card surfaces an error.
func (r *FFmpegRenderer) Render(ctx context.Context, plan scenes.Plan, report *analysis.Report, outputPath string) (string, error) {
	if len(plan.Scenes) == 0 {
		return "", services.Wrap(services.ErrValidation, "render", "render", "scene plan is empty", nil)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	path, err := r.renderScenes(ctx, plan, outputPath)
	if err == nil {
		r.logger.Info("video rendered",
			logging.Int("scenes", len(plan.Scenes)),
			logging.Float64("duration", plan.TotalDuration))
		return path, nil
	}

	r.logger.Warn("scene rendering failed, producing title card", logging.Error(err))
	return r.renderFallback(ctx, plan, report, outputPath)
}

func (r *FFmpegRenderer) renderScenes(ctx context.Context, plan scenes.Plan, outputPath string) (string, error) {
	clipDir, err := os.MkdirTemp(filepath.Dir(outputPath), "clips-")
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "render", "render", "create clip directory", err)
	}
	defer os.RemoveAll(clipDir)

	var list strings.Builder
	for i, scene := range plan.Scenes {
		clipPath := filepath.Join(clipDir, fmt.Sprintf("scene_%03d.mp4", i))
		if err := r.run(ctx, r.sceneArgs(scene, clipPath)...); err != nil {
			return "", fmt.Errorf("scene %d: %w", i, err)
		}
		fmt.Fprintf(&list, "file '%s'\n", clipPath)
	}

	listPath := filepath.Join(clipDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "render", "render", "write concat list", err)
	}

	if err := r.run(ctx,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", outputPath,
	); err != nil {
		return "", fmt.Errorf("concat: %w", err)
	}
	return verifyFile(outputPath)
}

// sceneArgs builds one color clip with the scene heading drawn centered.
func (r *FFmpegRenderer) sceneArgs(scene scenes.Scene, clipPath string) []string {
	source := fmt.Sprintf("color=c=%s:size=%dx%d:duration=%s:rate=%d",
		colorName(scene.Color), r.width, r.height, formatSeconds(scene.Duration), r.fps)
	drawtext := fmt.Sprintf(
		"drawtext=text='%s':fontsize=60:fontcolor=white:x=(w-text_w)/2:y=(h-text_h)/2",
		escapeDrawtext(headingFor(scene)))
	return []string{
		"-f", "lavfi",
		"-i", source,
		"-vf", drawtext,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "25",
		"-pix_fmt", "yuv420p",
		"-y", clipPath,
	}
}

// renderFallback produces a single blue card with the repository name.
func (r *FFmpegRenderer) renderFallback(ctx context.Context, plan scenes.Plan, report *analysis.Report, outputPath string) (string, error) {
	duration := min(plan.TotalDuration, fallbackMaxSeconds)
	name := "Repository"
	if report != nil && report.RepositoryName != "" {
		name = report.RepositoryName
	}

	source := fmt.Sprintf("color=c=blue:size=%dx%d:duration=%s", r.width, r.height, formatSeconds(duration))
	drawtext := fmt.Sprintf(
		"drawtext=text='%s':fontsize=60:fontcolor=white:x=(w-text_w)/2:y=(h-text_h)/2",
		escapeDrawtext(name))
	err := r.run(ctx,
		"-f", "lavfi",
		"-i", source,
		"-vf", drawtext,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-y", outputPath,
	)
	if err != nil {
		return "", fmt.Errorf("fallback render: %w", err)
	}
	return verifyFile(outputPath)
}

// headingFor maps a scene to the text drawn on its card.
func headingFor(scene scenes.Scene) string {
	switch scene.Type {
	case scenes.TypeFeatures:
		return "Key Features"
	case scenes.TypeTechnology:
		return "Technology Stack"
	case scenes.TypeCode:
		return "Implementation"
	case scenes.TypeConclusion:
		return "Thank You!"
	default:
		return scene.Title
	}
}

// colorName maps the palette hex to ffmpeg color syntax.
func colorName(hex string) string {
	if strings.HasPrefix(hex, "#") {
		return "0x" + strings.TrimPrefix(hex, "#")
	}
	if hex == "" {
		return "blue"
	}
	return hex
}

// escapeDrawtext protects characters the drawtext filter treats specially.
func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
		`,`, `\,`,
	)
	return replacer.Replace(text)
}

func verifyFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "render", "ffmpeg", "no output produced", err)
	}
	if info.Size() == 0 {
		return "", services.Wrap(services.ErrExternalTool, "render", "ffmpeg", "output file is empty", nil)
	}
	return path, nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func trimOutput(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > 500 {
		text = text[:500] + "..."
	}
	return text
}
