package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAnthropic(url string) *Anthropic {
	return &Anthropic{apiKey: "test-key", model: "claude-sonnet-4-6", url: url, client: http.DefaultClient}
}

func TestAnthropic_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Missing API key header")
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Error("Missing anthropic-version header")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.MaxTokens != defaultMaxTokens {
			t.Errorf("MaxTokens = %d, want %d", req.MaxTokens, defaultMaxTokens)
		}
		if req.System != "sys" || len(req.Messages) != 1 || req.Messages[0].Content != "user" {
			t.Errorf("unexpected request: %+v", req)
		}

		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicBlock{
				{Type: "text", Text: `{"issues":`},
				{Type: "tool_use"},
				{Type: "text", Text: `[]}`},
			},
			Usage: anthropicUsage{InputTokens: 100, OutputTokens: 10},
		})
	}))
	defer server.Close()

	resp, err := newTestAnthropic(server.URL).Generate(context.Background(), Request{SystemPrompt: "sys", UserPrompt: "user"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content != `{"issues":[]}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 110 {
		t.Errorf("TokensUsed = %d, want 110", resp.TokensUsed)
	}
}

func TestAnthropic_AuthErrorNotRetried(t *testing.T) {
	fastRetries(t)
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	_, err := newTestAnthropic(server.URL).Generate(context.Background(), Request{UserPrompt: "x"})
	if !IsAuthError(err) {
		t.Fatalf("Expected auth error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestAnthropic_ServerErrorRetried(t *testing.T) {
	fastRetries(t)
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicBlock{{Type: "text", Text: "ok"}}})
	}))
	defer server.Close()

	resp, err := newTestAnthropic(server.URL).Generate(context.Background(), Request{UserPrompt: "x"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content != "ok" || attempts != 3 {
		t.Errorf("Content = %q after %d attempts", resp.Content, attempts)
	}
}

func TestAnthropic_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[],"usage":{}}`))
	}))
	defer server.Close()

	if _, err := newTestAnthropic(server.URL).Generate(context.Background(), Request{UserPrompt: "x"}); err == nil {
		t.Error("Expected error for empty content")
	}
}

func TestNewAnthropic_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewAnthropic("m")
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got %v", err)
	}
}
