package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reporeel/internal/config"
)

const userAgent = "Reporeel-Go/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyJobQueued(ctx context.Context, repoName string) error
	NotifyVideoReady(ctx context.Context, repoName, outputPath string) error
	NotifyJobFailed(ctx context.Context, repoName string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		completion: cfg.Notifications.Completion,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	completion bool
	errors     bool
}

func (n *ntfyService) NotifyJobQueued(ctx context.Context, repoName string) error {
	repoName = strings.TrimSpace(repoName)
	data := payload{
		title:   "Reporeel - Job Queued",
		message: fmt.Sprintf("Queued conversion: %s", repoName),
		tags:    []string{"reporeel", "job", "queued"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVideoReady(ctx context.Context, repoName, outputPath string) error {
	if !n.completion {
		return nil
	}
	repoName = strings.TrimSpace(repoName)
	outputPath = strings.TrimSpace(outputPath)
	message := fmt.Sprintf("Video ready: %s", repoName)
	if outputPath != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, outputPath)
	}
	data := payload{
		title:    "Reporeel - Complete",
		message:  message,
		tags:     []string{"reporeel", "job", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, repoName string, err error) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Conversion failed")
	if repoName = strings.TrimSpace(repoName); repoName != "" {
		builder.WriteString(" for ")
		builder.WriteString(repoName)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reporeel - Error",
		message:  builder.String(),
		tags:     []string{"reporeel", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reporeel - Test",
		message:  "Notification system test",
		tags:     []string{"reporeel", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobQueued(context.Context, string) error          { return nil }
func (noopService) NotifyVideoReady(context.Context, string, string) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, error) error   { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
