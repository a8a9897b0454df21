package service

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Provider constants for AI completion backends.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LLMConfig holds provider client configuration.
type LLMConfig struct {
	Provider string // "openai" or "anthropic"
	APIKey   string // Required: API key for the provider
	BaseURL  string // Optional: custom API endpoint
	Model    string // Model name
}

// AnalysisRequest contains the prompt pair for a single completion call.
type AnalysisRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  *float64 // nil = model default
}

// AnalysisResult is the raw completion from one provider.
type AnalysisResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// LLMClient is a single AI completion backend.
type LLMClient interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
	Provider() string
	Model() string
}

// NewLLMClient creates an LLMClient for the configured provider.
func NewLLMClient(cfg LLMConfig) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// GenerateSchema generates a JSON schema from a response type, used for
// structured completion output.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// Temp returns a pointer to a temperature value.
func Temp(t float64) *float64 {
	return &t
}
