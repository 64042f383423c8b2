// Package llm wraps github.com/mozilla-ai/any-llm-go behind the single
// completion call Lorekeep needs. The provider is chosen by configuration;
// everything above this package talks to the Client interface, which keeps
// AI collaborators mockable in tests.
package llm

import (
	"context"
	"fmt"
	"strings"

	anyllm "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	"github.com/mozilla-ai/any-llm-go/providers/openai"
)

// Client is the completion contract used by Lorekeep services.
type Client interface {
	// Complete sends one system+user prompt pair and returns the model's
	// text response.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Options configures a client.
type Options struct {
	// Provider is one of: openai, anthropic, gemini, mistral, ollama.
	Provider string

	// Model is the provider-specific model name.
	Model string

	// APIKey overrides the provider's environment variable lookup.
	// Ignored for ollama.
	APIKey string

	// BaseURL overrides the provider endpoint (ollama server address,
	// OpenAI-compatible proxies).
	BaseURL string

	// MaxTokens caps the completion length when > 0.
	MaxTokens int

	// Temperature is passed through when > 0.
	Temperature float64
}

// client implements Client on an any-llm-go backend.
type client struct {
	backend anyllm.Provider
	opts    Options
}

// New creates a Client for the configured provider.
func New(opts Options) (Client, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("llm: model must not be empty")
	}

	var libOpts []anyllm.Option
	if opts.APIKey != "" {
		libOpts = append(libOpts, anyllm.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		libOpts = append(libOpts, anyllm.WithBaseURL(opts.BaseURL))
	}

	var (
		backend anyllm.Provider
		err     error
	)
	switch strings.ToLower(opts.Provider) {
	case "openai":
		backend, err = openai.New(libOpts...)
	case "anthropic":
		backend, err = anthropic.New(libOpts...)
	case "gemini":
		backend, err = gemini.New(libOpts...)
	case "mistral":
		backend, err = mistral.New(libOpts...)
	case "ollama":
		backend, err = ollama.New(libOpts...)
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q; supported: openai, anthropic, gemini, mistral, ollama", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("llm: create %q backend: %w", opts.Provider, err)
	}

	return &client{backend: backend, opts: opts}, nil
}

// Complete implements Client.
func (c *client) Complete(ctx context.Context, system, prompt string) (string, error) {
	var messages []anyllm.Message
	if system != "" {
		messages = append(messages, anyllm.Message{Role: anyllm.RoleSystem, Content: system})
	}
	messages = append(messages, anyllm.Message{Role: anyllm.RoleUser, Content: prompt})

	params := anyllm.CompletionParams{
		Model:    c.opts.Model,
		Messages: messages,
	}
	if c.opts.MaxTokens > 0 {
		mt := c.opts.MaxTokens
		params.MaxTokens = &mt
	}
	if c.opts.Temperature > 0 {
		t := c.opts.Temperature
		params.Temperature = &t
	}

	resp, err := c.backend.Completion(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}
