package recipe

import (
	"context"
	"net/http"
)

// ProviderType represents the type of AI provider
type ProviderType string

const (
	ProviderGroq     ProviderType = "groq"
	ProviderCerebras ProviderType = "cerebras"
	ProviderOpenAI   ProviderType = "openai"
)

// Provider sends one prompt pair to a text generation service and returns
// the raw completion text.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options tune a chat completion provider. Zero values fall back to the
// provider's defaults.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// JSONMode asks the service for a JSON object response.
	JSONMode bool
	// BaseURL overrides the API root, e.g. "https://api.openai.com/v1".
	BaseURL    string
	HTTPClient *http.Client
}
