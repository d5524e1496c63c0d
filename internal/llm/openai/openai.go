// Package openai answers prompts with an OpenAI-compatible chat-completion endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"docqa/internal/logger"
)

// ErrNoChoices is returned when the completion carries no choices.
var ErrNoChoices = errors.New("chat completion returned no choices")

// Config configures the chat-completion client.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// Generator sends a prompt as a single user message and returns the answer text.
type Generator struct {
	api         openai.Client
	model       string
	temperature float64
}

// NewGenerator creates a generator reading its API key from cfg.APIKeyEnv.
func NewGenerator(cfg Config) (*Generator, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Generator{
		api: openai.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL(cfg.BaseURL),
			option.WithRequestTimeout(cfg.Timeout),
			option.WithMaxRetries(cfg.MaxRetries),
		),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Model returns the chat model name.
func (g *Generator) Model() string { return g.model }

// Generate returns choices[0].message.content of the completion for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	logger.Debug("chat completion: model=%s prompt=%d bytes", g.model, len(prompt))
	resp, err := g.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(g.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
