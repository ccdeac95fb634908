// Package providers implements the text-completion backends behind the
// semantic reviewer.
//
// Supported providers: Anthropic (Claude), OpenAI (GPT), Google (Gemini), and
// Ollama / LM Studio for local models. Anthropic and Ollama speak HTTP
// directly; OpenAI uses github.com/sashabaranov/go-openai and Gemini uses
// google.golang.org/genai.
//
// All providers share a retry helper with exponential back-off for rate
// limits and server errors. Authentication failures are never retried.
//
// Use [New] to obtain a Provider by name and model, and wrap it in a
// [Completer] to plug it into the semantic reviewer.
package providers
