package recipe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/socialchef/larder/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FallbackProvider implements Provider with fallback logic
type FallbackProvider struct {
	primary       Provider
	secondary     Provider
	primaryName   string
	secondaryName string
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(primary, secondary Provider, primaryName, secondaryName string) *FallbackProvider {
	return &FallbackProvider{
		primary:       primary,
		secondary:     secondary,
		primaryName:   primaryName,
		secondaryName: secondaryName,
	}
}

// Complete tries the primary provider first and falls back to the secondary
// on errors another service could plausibly avoid.
func (f *FallbackProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	text, err := f.primary.Complete(ctx, systemPrompt, userPrompt)
	if err == nil {
		return text, nil
	}

	providerErr := ClassifyError(err, f.primaryName)
	if !IsRetryableError(err) {
		slog.InfoContext(ctx, "Primary provider failed with non-retryable error, not attempting fallback",
			"provider", f.primaryName,
			"error_type", providerErr.Type,
			"error", err.Error())
		return "", err
	}

	slog.InfoContext(ctx, "Primary provider failed with retryable error, attempting fallback",
		"provider", f.primaryName,
		"fallback_provider", f.secondaryName,
		"error_type", providerErr.Type,
		"error", err.Error())

	metrics.ProviderFallbackTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from_provider", f.primaryName),
		attribute.String("to_provider", f.secondaryName),
		attribute.String("reason", providerErr.Type),
	))

	text, fallbackErr := f.secondary.Complete(ctx, systemPrompt, userPrompt)
	if fallbackErr == nil {
		slog.InfoContext(ctx, "Fallback provider succeeded",
			"fallback_provider", f.secondaryName,
			"primary_error_type", providerErr.Type)
		return text, nil
	}

	slog.ErrorContext(ctx, "Both primary and secondary providers failed",
		"primary_error_type", providerErr.Type,
		"primary_error", err.Error(),
		"fallback_error_type", ClassifyError(fallbackErr, f.secondaryName).Type,
		"fallback_error", fallbackErr.Error())

	return "", fmt.Errorf("%s failed after %s failed (%v): %w", f.secondaryName, f.primaryName, err, fallbackErr)
}
