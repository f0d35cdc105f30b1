package scriptgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"reporeel/internal/services"
)

const anthropicVersion = "2023-06-01"

// chatMessage is the shared request message shape across all providers.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIChatClient speaks the OpenAI-compatible chat completions protocol,
// which both OpenAI and Groq expose.
type openAIChatClient struct {
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

type openAIChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload := openAIChatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: 0.7,
	}

	body, err := postJSON(ctx, c.client, c.endpoint, payload, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return "", err
	}

	var decoded openAIChatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrTransient, "script", "decode response", "", err)
	}
	if len(decoded.Choices) == 0 {
		return "", services.Wrap(services.ErrTransient, "script", "decode response", "empty choices", nil)
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// anthropicClient speaks the Anthropic messages protocol.
type anthropicClient struct {
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *anthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	}

	body, err := postJSON(ctx, c.client, c.endpoint, payload, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	})
	if err != nil {
		return "", err
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrTransient, "script", "decode response", "", err)
	}
	if len(decoded.Content) == 0 {
		return "", services.Wrap(services.ErrTransient, "script", "decode response", "empty content", nil)
	}
	return strings.TrimSpace(decoded.Content[0].Text), nil
}

func postJSON(ctx context.Context, client *http.Client, endpoint string, payload any, headers map[string]string) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "script", "encode request", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "script", "build request", "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "script", "http request", "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "script", "read response", "", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "script", "http request",
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncateBody(body)), nil)
	}
	return body, nil
}

func truncateBody(body []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit]
	}
	return text
}
