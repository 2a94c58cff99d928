package inference

import (
	"context"
	"fmt"
	"time"
)

// Request is one completion call to the model backend. At most one image
// may be attached; JSONMode asks the backend to constrain its output to a
// single JSON object.
type Request struct {
	Prompt        string
	Images        [][]byte
	JSONMode      bool
	Temperature   float64
	ContextWindow int
}

// Client is the model-serving backend consumed by the context builder and
// the caption workers. Implementations must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// inference service provider
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// inference options
type Options struct {
	Model   string
	BaseURL string        // OpenAI-compatible endpoint override (Ollama)
	Timeout time.Duration // per-call timeout (default 2 minutes)
}

const defaultCallTimeout = 2 * time.Minute

// default Ollama OpenAI-compatible endpoint
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

func (o Options) callTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return defaultCallTimeout
}

// creates a Client based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Client, error) {
	switch provider {
	case ProviderOllama:
		if opts.BaseURL == "" {
			opts.BaseURL = DefaultOllamaBaseURL
		}
		if opts.Model == "" {
			opts.Model = "gemma3:4b"
		}
		// Ollama ignores the API key but the client requires one
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIClient(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicClient(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported inference provider: %s", provider)
	}
}
