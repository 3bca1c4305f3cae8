package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/socialchef/larder/internal/config"
	apperrors "github.com/socialchef/larder/internal/errors"
	"github.com/socialchef/larder/internal/logger"
	"github.com/socialchef/larder/internal/metrics"
	"github.com/socialchef/larder/internal/services/ai"
	"github.com/socialchef/larder/internal/services/extractor"
	"github.com/socialchef/larder/internal/services/ingredients"
	"github.com/socialchef/larder/internal/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("larder/recipe")

// Cache stores parsed recipes by request fingerprint.
type Cache interface {
	Get(ctx context.Context, fingerprint string) ([]extractor.Recipe, bool)
	Set(ctx context.Context, fingerprint string, recipes []extractor.Recipe)
}

// HistoryRecorder keeps an audit trail of completed generations.
type HistoryRecorder interface {
	Record(ctx context.Context, userID string, items []string, recipes []extractor.Recipe) error
}

type GeneratorConfig struct {
	ProviderName   string
	RecipeCount    int
	MinIngredients int
	OutputFormat   string
	MaxAttempts    int
	Timeout        time.Duration
}

// GeneratorConfigFrom maps the generation block of the service config.
func GeneratorConfigFrom(g config.GenerationConfig) GeneratorConfig {
	return GeneratorConfig{
		ProviderName:   g.Provider,
		RecipeCount:    g.RecipeCount,
		MinIngredients: g.MinIngredients,
		OutputFormat:   g.OutputFormat,
		MaxAttempts:    g.MaxAttempts,
		Timeout:        g.Timeout,
	}
}

type GeneratorOption func(*Generator)

func WithCache(c Cache) GeneratorOption {
	return func(g *Generator) { g.cache = c }
}

func WithHistory(h HistoryRecorder) GeneratorOption {
	return func(g *Generator) { g.history = h }
}

// Generator runs one ingredient list through prompt, provider and extractor.
type Generator struct {
	provider Provider
	cfg      GeneratorConfig
	cache    Cache
	history  HistoryRecorder
}

func NewGenerator(provider Provider, cfg GeneratorConfig, opts ...GeneratorOption) *Generator {
	if cfg.MinIngredients < 1 {
		cfg.MinIngredients = ingredients.MinIngredients
	}
	if cfg.RecipeCount < 1 {
		cfg.RecipeCount = 3
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = ai.FormatText
	}
	g := &Generator{provider: provider, cfg: cfg}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MinIngredients is the smallest list Generate accepts.
func (g *Generator) MinIngredients() int {
	return g.cfg.MinIngredients
}

// Generate asks the provider for recipes using list and parses the answer.
// It returns either every parsed recipe or an error, never a partial result.
func (g *Generator) Generate(ctx context.Context, userID string, list ingredients.List) (recipes []extractor.Recipe, err error) {
	ctx, span := tracer.Start(ctx, "recipe.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("ingredients.count", list.Len()),
		attribute.String("provider", g.cfg.ProviderName),
		attribute.String("output_format", g.cfg.OutputFormat),
	)

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(apperrors.TypeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		attrs := metric.WithAttributes(
			attribute.String("provider", g.cfg.ProviderName),
			attribute.String("outcome", outcome),
		)
		metrics.GenerationRequestsTotal.Add(ctx, 1, attrs)
		metrics.GenerationDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	if !list.CanGenerateWith(g.cfg.MinIngredients) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Enter at least %d ingredients", g.cfg.MinIngredients),
			"TOO_FEW_INGREDIENTS",
			"Separate ingredients with commas.",
		)
	}

	fingerprint := fmt.Sprintf("%s|%s|%d", list.Key(), g.cfg.OutputFormat, g.cfg.RecipeCount)
	if g.cache != nil {
		if cached, ok := g.cache.Get(ctx, fingerprint); ok {
			metrics.CacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "hit")))
			span.SetAttributes(attribute.Bool("cache.hit", true))
			g.record(ctx, userID, list, cached)
			return cached, nil
		}
		metrics.CacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "miss")))
	}

	text, err := g.complete(ctx, list)
	if err != nil {
		return nil, err
	}

	recipes, err = g.parse(ctx, text)
	if err != nil {
		return nil, err
	}

	if g.cache != nil && len(recipes) > 0 {
		g.cache.Set(ctx, fingerprint, recipes)
	}
	g.record(ctx, userID, list, recipes)

	slog.InfoContext(ctx, "Recipes generated",
		"user_id", userID,
		"ingredients", list.Len(),
		"recipes", len(recipes),
		"duration_ms", time.Since(start).Milliseconds(),
		logger.WithTraceContext(ctx))

	return recipes, nil
}

func (g *Generator) complete(ctx context.Context, list ingredients.List) (string, error) {
	systemPrompt := ai.SystemPrompt(g.cfg.OutputFormat)
	userPrompt := ai.BuildRecipePrompt(list.Items(), g.cfg.RecipeCount, g.cfg.OutputFormat)

	policy := utils.GenerationRetryConfig(g.cfg.MaxAttempts, g.cfg.Timeout)
	policy.Retryable = IsTransientError
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		slog.WarnContext(ctx, "Generation attempt failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error_type", ClassifyError(err, g.cfg.ProviderName).Type,
			"error", err.Error())
	}

	text, err := utils.WithRetry(ctx, func(ctx context.Context) (string, error) {
		return g.provider.Complete(ctx, systemPrompt, userPrompt)
	}, policy)
	if err != nil {
		appErr := upstreamError(err)
		slog.ErrorContext(ctx, "Generation request failed",
			"provider", g.cfg.ProviderName,
			"error_code", appErr.Code(),
			"error", err.Error(),
			logger.WithTraceContext(ctx))
		return "", appErr
	}
	return text, nil
}

func (g *Generator) parse(ctx context.Context, text string) ([]extractor.Recipe, error) {
	if g.cfg.OutputFormat == ai.FormatJSON {
		recipes, err := extractor.ParseJSON(text)
		if err != nil {
			slog.ErrorContext(ctx, "Generator returned malformed recipe JSON",
				"error", err.Error(),
				"body_length", len(text))
			return nil, apperrors.NewParseError("generator returned malformed recipe JSON", "MALFORMED_RECIPES", err)
		}
		metrics.RecipesExtractedTotal.Add(ctx, int64(len(recipes)))
		return recipes, nil
	}

	recipes, stats := extractor.ParseWithStats(text)
	metrics.RecipesExtractedTotal.Add(ctx, int64(stats.Blocks))
	if stats.Degraded > 0 {
		metrics.RecipesDegradedTotal.Add(ctx, int64(stats.Degraded))
		slog.WarnContext(ctx, "Some recipe blocks were missing a section header",
			"blocks", stats.Blocks,
			"degraded", stats.Degraded)
	}
	return recipes, nil
}

func (g *Generator) record(ctx context.Context, userID string, list ingredients.List, recipes []extractor.Recipe) {
	if g.history == nil {
		return
	}
	if err := g.history.Record(ctx, userID, list.Items(), recipes); err != nil {
		slog.WarnContext(ctx, "Failed to record generation history",
			"user_id", userID,
			"error", err.Error())
	}
}

// upstreamError maps a provider failure onto the application taxonomy.
func upstreamError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	if errors.Is(err, ErrMalformedResponse) {
		return apperrors.NewParseError("generator response could not be decoded", "MALFORMED_RESPONSE", err)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return apperrors.NewUpstreamError(
			fmt.Sprintf("generator returned status %d", statusErr.StatusCode),
			"UPSTREAM_STATUS",
			err,
		)
	}
	return apperrors.NewUpstreamError("generator request failed", "UPSTREAM_UNAVAILABLE", err)
}
