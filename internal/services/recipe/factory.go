package recipe

import (
	"fmt"

	"github.com/socialchef/larder/internal/config"
	"github.com/socialchef/larder/internal/httpclient"
	"github.com/socialchef/larder/internal/services/ai"
)

// NewProvider creates the provider selected in cfg.Generation, wrapped in a
// FallbackProvider when fallback is enabled.
func NewProvider(cfg *config.Config) (Provider, error) {
	g := cfg.Generation
	opts := Options{
		Model:       g.Model,
		BaseURL:     g.BaseURL,
		MaxTokens:   g.MaxTokens,
		Temperature: g.SamplingTemperature(),
		JSONMode:    g.OutputFormat == ai.FormatJSON,
		HTTPClient:  httpclient.NewInstrumentedClient(g.Timeout),
	}

	primary, err := newNamedProvider(g.Provider, cfg.APIKey(g.Provider), opts)
	if err != nil {
		return nil, err
	}
	if !g.FallbackEnabled || g.FallbackProvider == g.Provider {
		return primary, nil
	}

	// The configured model and base URL belong to the primary service.
	fallbackOpts := opts
	fallbackOpts.Model = ""
	fallbackOpts.BaseURL = ""
	secondary, err := newNamedProvider(g.FallbackProvider, cfg.APIKey(g.FallbackProvider), fallbackOpts)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}

	return NewFallbackProvider(primary, secondary, g.Provider, g.FallbackProvider), nil
}

func newNamedProvider(name, apiKey string, opts Options) (Provider, error) {
	switch ProviderType(name) {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, opts), nil
	case ProviderGroq:
		return NewGroqProvider(apiKey, opts), nil
	case ProviderCerebras:
		return NewCerebrasProvider(apiKey, opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
