package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"fortio.org/safecast"
	"google.golang.org/genai"
)

// Gemini implements Provider for Google's Gemini API.
type Gemini struct {
	model  string
	client *genai.Client
}

// NewGemini creates a new Gemini provider.
func NewGemini(model string) (*Gemini, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key == "" {
		return nil, &authError{message: "GEMINI_API_KEY (or GOOGLE_API_KEY) environment variable is not set"}
	}
	return newGemini(context.Background(), key, model, "")
}

func newGemini(ctx context.Context, key, model, baseURL string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: 120 * time.Second},
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &Gemini{model: model, client: client}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Generate(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	limit, err := safecast.Conv[int32](maxTokens)
	if err != nil {
		return Response{}, fmt.Errorf("max tokens: %w", err)
	}
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: limit}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}

	var resp Response
	err = retryWithBackoff(ctx, 3, func() error {
		result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.UserPrompt), cfg)
		if err != nil {
			return classifyGeminiError(err)
		}
		if len(result.Candidates) == 0 {
			return fmt.Errorf("no content in response")
		}
		text := result.Text()
		if text == "" {
			return fmt.Errorf("no content in response")
		}
		resp = Response{Content: text}
		if result.UsageMetadata != nil {
			resp.TokensUsed = int(result.UsageMetadata.TotalTokenCount)
		}
		return nil
	})

	return resp, err
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if classified := classifyStatus(apiErr.Code, apiErr.Message); classified != nil {
			return classified
		}
	}
	return fmt.Errorf("generate content: %w", err)
}
