// Package scriptgen turns a repository analysis report into a narration
// script, cascading over hosted chat providers before a built-in template.
package scriptgen

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reporeel/internal/analysis"
	"reporeel/internal/config"
	"reporeel/internal/logging"
	"reporeel/internal/provider"
	"reporeel/internal/services"
)

// Request carries the prompt and the report it was built from so the
// template fallback can work without re-deriving anything.
type Request struct {
	Prompt string
	Report *analysis.Report
}

// Result is the generated script and the provider that produced it.
type Result struct {
	Script   string
	Provider string
}

// Generator produces narration scripts.
type Generator struct {
	cascade *provider.Cascade[Request, string]
	logger  *slog.Logger
}

// Option customizes a Generator.
type Option func(*endpoints)

type endpoints struct {
	groq      string
	openAI    string
	anthropic string
	together  string
	client    *http.Client
}

// WithEndpoints overrides the provider API endpoints, used by tests.
func WithEndpoints(groq, openAI, anthropic, together string) Option {
	return func(e *endpoints) {
		if groq != "" {
			e.groq = groq
		}
		if openAI != "" {
			e.openAI = openAI
		}
		if anthropic != "" {
			e.anthropic = anthropic
		}
		if together != "" {
			e.together = together
		}
	}
}

// WithHTTPClient overrides the HTTP client shared by the chat providers.
func WithHTTPClient(client *http.Client) Option {
	return func(e *endpoints) {
		if client != nil {
			e.client = client
		}
	}
}

// New constructs a Generator with the provider order groq, openai,
// anthropic, together, template. Providers without an API key are skipped
// at run time.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Generator {
	eps := endpoints{
		groq:      "https://api.groq.com/openai/v1/chat/completions",
		openAI:    "https://api.openai.com/v1/chat/completions",
		anthropic: "https://api.anthropic.com/v1/messages",
		together:  "https://api.together.xyz/v1/chat/completions",
		client:    &http.Client{Timeout: time.Duration(cfg.Script.RequestTimeout) * time.Second},
	}
	for _, opt := range opts {
		opt(&eps)
	}

	timeout := time.Duration(cfg.Script.RequestTimeout) * time.Second
	script := cfg.Script

	groq := &openAIChatClient{
		endpoint:  eps.groq,
		apiKey:    script.GroqAPIKey,
		model:     script.GroqModel,
		maxTokens: script.MaxTokens,
		client:    eps.client,
	}
	openAI := &openAIChatClient{
		endpoint:  eps.openAI,
		apiKey:    script.OpenAIAPIKey,
		model:     script.OpenAIModel,
		maxTokens: script.MaxTokens,
		client:    eps.client,
	}
	anthropic := &anthropicClient{
		endpoint:  eps.anthropic,
		apiKey:    script.AnthropicAPIKey,
		model:     script.AnthropicModel,
		maxTokens: script.MaxTokens,
		client:    eps.client,
	}
	// Together speaks the OpenAI chat-completion protocol.
	together := &openAIChatClient{
		endpoint:  eps.together,
		apiKey:    script.TogetherAPIKey,
		model:     script.TogetherModel,
		maxTokens: script.MaxTokens,
		client:    eps.client,
	}

	cascade := provider.New[Request, string]("narration", logger,
		provider.Descriptor[Request, string]{
			Name:      "groq",
			Available: requireKey(script.GroqAPIKey, "groq"),
			Run: func(ctx context.Context, req Request) (string, error) {
				return groq.Generate(ctx, req.Prompt)
			},
			Timeout: timeout,
		},
		provider.Descriptor[Request, string]{
			Name:      "openai",
			Available: requireKey(script.OpenAIAPIKey, "openai"),
			Run: func(ctx context.Context, req Request) (string, error) {
				return openAI.Generate(ctx, req.Prompt)
			},
			Timeout: timeout,
		},
		provider.Descriptor[Request, string]{
			Name:      "anthropic",
			Available: requireKey(script.AnthropicAPIKey, "anthropic"),
			Run: func(ctx context.Context, req Request) (string, error) {
				return anthropic.Generate(ctx, req.Prompt)
			},
			Timeout: timeout,
		},
		provider.Descriptor[Request, string]{
			Name:      "together",
			Available: requireKey(script.TogetherAPIKey, "together"),
			Run: func(ctx context.Context, req Request) (string, error) {
				return together.Generate(ctx, req.Prompt)
			},
			Timeout: timeout,
		},
		provider.Descriptor[Request, string]{
			Name: "template",
			Run: func(_ context.Context, req Request) (string, error) {
				return TemplateScript(req.Report), nil
			},
		},
	)

	return &Generator{
		cascade: cascade,
		logger:  logging.WithComponent(logger, "scriptgen"),
	}
}

// Generate produces a narration script for the analyzed repository.
func (g *Generator) Generate(ctx context.Context, report *analysis.Report) (Result, error) {
	req := Request{Prompt: BuildPrompt(report), Report: report}

	result, err := g.cascade.Execute(ctx, req)
	if err != nil {
		return Result{}, err
	}

	script := strings.TrimSpace(result.Artifact)
	if script == "" {
		return Result{}, services.Wrap(services.ErrTransient, "script", "generate", "provider returned empty script", nil)
	}

	g.logger.Info("script generated",
		logging.String(logging.FieldProvider, result.Provider),
		logging.Int("words", len(strings.Fields(script))))
	return Result{Script: script, Provider: result.Provider}, nil
}

func requireKey(key, name string) func(context.Context, Request) error {
	return func(context.Context, Request) error {
		if strings.TrimSpace(key) == "" {
			return services.Wrap(services.ErrConfiguration, "script", name, "api key not configured", nil)
		}
		return nil
	}
}
