package metrics

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	noopMeter = noop.NewMeterProvider().Meter("larder/business")

	// Generation metrics
	GenerationRequestsTotal, _ = noopMeter.Int64Counter("generation.requests.total")
	GenerationDuration, _      = noopMeter.Float64Histogram("generation.duration")

	// Extraction metrics
	RecipesExtractedTotal, _ = noopMeter.Int64Counter("recipes.extracted.total")
	RecipesDegradedTotal, _  = noopMeter.Int64Counter("recipes.degraded.total")

	// Cache metrics
	CacheLookupsTotal, _ = noopMeter.Int64Counter("cache.lookups.total")

	// External API metrics
	ExternalAPICallsTotal, _ = noopMeter.Int64Counter("external.api.calls.total")
	ExternalAPIDuration, _   = noopMeter.Float64Histogram("external.api.duration")

	// Provider fallback metrics
	ProviderFallbackTotal, _ = noopMeter.Int64Counter("provider.fallback.total")
)

// Init swaps the no-op instruments for ones backed by the global meter
// provider. Call it after telemetry.Setup.
func Init() error {
	meter := otel.Meter("larder/business")
	var err error

	GenerationRequestsTotal, err = meter.Int64Counter(
		"generation.requests.total",
		metric.WithDescription("Total number of recipe generation requests by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	GenerationDuration, err = meter.Float64Histogram(
		"generation.duration",
		metric.WithDescription("Duration of a recipe generation, prompt to parsed recipes"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30, 60),
	)
	if err != nil {
		return err
	}

	RecipesExtractedTotal, err = meter.Int64Counter(
		"recipes.extracted.total",
		metric.WithDescription("Total number of recipes recovered from generator output"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	RecipesDegradedTotal, err = meter.Int64Counter(
		"recipes.degraded.total",
		metric.WithDescription("Recipes extracted from blocks missing a section header"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	CacheLookupsTotal, err = meter.Int64Counter(
		"cache.lookups.total",
		metric.WithDescription("Recipe cache lookups by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPICallsTotal, err = meter.Int64Counter(
		"external.api.calls.total",
		metric.WithDescription("Total number of external API calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPIDuration, err = meter.Float64Histogram(
		"external.api.duration",
		metric.WithDescription("Duration of external API calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30),
	)
	if err != nil {
		return err
	}

	ProviderFallbackTotal, err = meter.Int64Counter(
		"provider.fallback.total",
		metric.WithDescription("Total number of provider fallback events"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	return nil
}
