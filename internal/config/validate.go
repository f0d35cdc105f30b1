package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// normalize expands paths and applies environment fallbacks for credentials.
func (c *Config) normalize() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	if c.Script.GroqAPIKey == "" {
		c.Script.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	}
	if c.Script.OpenAIAPIKey == "" {
		c.Script.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Script.AnthropicAPIKey == "" {
		c.Script.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.Script.TogetherAPIKey == "" {
		c.Script.TogetherAPIKey = os.Getenv("TOGETHER_API_KEY")
	}
	if c.Paths.APIToken == "" {
		c.Paths.APIToken = os.Getenv("REPOREEL_API_TOKEN")
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"analysis.request_timeout":      c.Analysis.RequestTimeout,
		"script.request_timeout":        c.Script.RequestTimeout,
		"speech.request_timeout":        c.Speech.RequestTimeout,
		"render.request_timeout":        c.Render.RequestTimeout,
		"merge.probe_timeout":           c.Merge.ProbeTimeout,
		"merge.merge_timeout":           c.Merge.MergeTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateAnalysis() error {
	if len(c.Analysis.Branches) == 0 {
		return errors.New("analysis.branches must include at least one branch name")
	}
	if c.Analysis.MaxCodeFiles <= 0 {
		return errors.New("analysis.max_code_files must be positive")
	}
	if c.Analysis.MaxContentBytes <= 0 {
		return errors.New("analysis.max_content_bytes must be positive")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.New("render.width and render.height must be positive")
	}
	if c.Render.FPS <= 0 {
		return errors.New("render.fps must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.WorkerCount <= 0 {
		return errors.New("workflow.worker_count must be positive")
	}
	if c.Workflow.QueueCapacity <= 0 {
		return errors.New("workflow.queue_capacity must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
