package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New("unknown", "model"); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNew_Aliases(t *testing.T) {
	for _, name := range []string{"ollama", "lmstudio"} {
		p, err := New(name, "m")
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}
		if p.Name() != "ollama" {
			t.Errorf("New(%q).Name() = %q", name, p.Name())
		}
	}

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	_, err := New("google", "gemini-2.5-flash")
	if err == nil || strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("'google' should resolve to gemini, got %v", err)
	}
}

func TestDefaultModel(t *testing.T) {
	for _, p := range []string{"anthropic", "openai", "gemini", "ollama"} {
		if DefaultModel(p) == "" {
			t.Errorf("DefaultModel(%q) is empty", p)
		}
	}
}

type stubProvider struct {
	resp Response
	err  error
	req  Request
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(_ context.Context, req Request) (Response, error) {
	s.req = req
	return s.resp, s.err
}

func TestCompleter(t *testing.T) {
	stub := &stubProvider{resp: Response{Content: "reply"}}
	c := &Completer{Provider: stub, MaxTokens: 512}

	got, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if got != "reply" {
		t.Errorf("Complete = %q", got)
	}
	if stub.req.UserPrompt != "prompt" || stub.req.MaxTokens != 512 || stub.req.SystemPrompt == "" {
		t.Errorf("request = %+v", stub.req)
	}

	stub.err = &authError{message: "nope"}
	_, err = c.Complete(context.Background(), "prompt")
	if !IsAuthError(err) || !strings.HasPrefix(err.Error(), "stub: ") {
		t.Errorf("Complete error = %v", err)
	}
}

func TestClassifyStatus(t *testing.T) {
	if classifyStatus(200, "") != nil {
		t.Error("200 should not be an error")
	}
	if !isRetryable(classifyStatus(429, "")) {
		t.Error("429 should be retryable")
	}
	if !isRetryable(classifyStatus(503, "")) {
		t.Error("503 should be retryable")
	}
	if !IsAuthError(classifyStatus(403, "denied")) {
		t.Error("403 should be an auth error")
	}
	err := classifyStatus(400, "bad request")
	if err == nil || isRetryable(err) || IsAuthError(err) {
		t.Errorf("400 = %v", err)
	}
}

func TestIsAuthError_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", &authError{message: "x"})
	if !IsAuthError(err) {
		t.Error("wrapped auth error not detected")
	}
	if IsAuthError(errors.New("plain")) {
		t.Error("plain error reported as auth error")
	}
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retryWithBackoff(ctx, 3, func() error {
		calls++
		cancel()
		return &rateLimitError{}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, func() error {
		calls++
		return errors.New("fatal")
	})
	if err == nil || calls != 1 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	fastRetries(t)
	calls := 0
	err := retryWithBackoff(context.Background(), 2, func() error {
		calls++
		return &serverError{statusCode: 500}
	})
	if !isRetryable(err) || calls != 3 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}
