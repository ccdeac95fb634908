package providers

import (
	"context"
	"fmt"
)

// Request contains the data sent to an LLM.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Response contains the raw reply from an LLM.
type Response struct {
	Content    string
	TokensUsed int
}

// Provider is the backend abstraction.
type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Name() string
}

const defaultMaxTokens = 4096

// New creates a provider by name.
func New(provider, model string) (Provider, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model)
	case "openai":
		return NewOpenAI(model)
	case "gemini", "google":
		return NewGemini(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4.1-mini"
	case "gemini", "google":
		return "gemini-2.5-flash"
	case "ollama", "lmstudio":
		return "qwen2.5-coder"
	default:
		return "claude-sonnet-4-6"
	}
}

const systemPrompt = "You are a code reviewer. You reply with a single JSON object and nothing else."

// Completer adapts a Provider to the single-prompt completion call used by
// the semantic reviewer.
type Completer struct {
	Provider    Provider
	MaxTokens   int
	Temperature float64
}

// Complete sends prompt as the user message and returns the reply text.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Provider.Generate(ctx, Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Provider.Name(), err)
	}
	return resp.Content, nil
}
