package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI implements Provider on the Chat Completions API.
type OpenAI struct {
	model  string
	client *openai.Client
}

// NewOpenAI creates a new OpenAI provider. TALLY_OPENAI_BASE_URL points it
// at a compatible gateway.
func NewOpenAI(model string) (*OpenAI, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, &authError{message: "OPENAI_API_KEY environment variable is not set"}
	}
	return newOpenAI(key, model, os.Getenv("TALLY_OPENAI_BASE_URL")), nil
}

func newOpenAI(key, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	return &OpenAI{model: model, client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	}

	var resp Response
	err := retryWithBackoff(ctx, 3, func() error {
		result, err := o.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return classifyOpenAIError(err)
		}
		if len(result.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		if result.Choices[0].Message.Content == "" {
			return fmt.Errorf("empty text content in API response")
		}
		resp = Response{
			Content:    result.Choices[0].Message.Content,
			TokensUsed: result.Usage.TotalTokens,
		}
		return nil
	})

	return resp, err
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if classified := classifyStatus(apiErr.HTTPStatusCode, apiErr.Message); classified != nil {
			return classified
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if classified := classifyStatus(reqErr.HTTPStatusCode, reqErr.Error()); classified != nil {
			return classified
		}
	}
	return fmt.Errorf("chat completion: %w", err)
}
