package integration

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	apperrors "github.com/socialchef/larder/internal/errors"
	"github.com/socialchef/larder/internal/services/ingredients"
	"github.com/socialchef/larder/internal/services/recipe"
	"github.com/socialchef/larder/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generationTask(t *testing.T, payload worker.GenerateRecipesPayload) *asynq.Task {
	t.Helper()
	task, err := worker.NewGenerateRecipesTask("job-1", payload, 5*time.Second)
	require.NoError(t, err)
	return task
}

func TestWorker_GeneratesThroughMux(t *testing.T) {
	up := newUpstream(t, okReply(twoRecipes))
	s := newStack(t, testConfig(up, false))
	mux := worker.NewMux(worker.NewRecipeHandler(s.generator), nil)

	err := mux.ProcessTask(context.Background(), generationTask(t, worker.GenerateRecipesPayload{
		UserID:      "user-1",
		Ingredients: []string{"eggs", " tomato", "rice", ""},
	}))

	require.NoError(t, err)
	assert.EqualValues(t, 1, up.calls.Load())
	require.Len(t, s.history.entries, 1)
	assert.Equal(t, "user-1", s.history.entries[0].UserID)
	assert.Equal(t, parsedRecipes, s.history.entries[0].Recipes)
}

func TestWorker_UpstreamFailure(t *testing.T) {
	up := newUpstream(t, reply{status: http.StatusBadGateway, content: "bad gateway"})
	s := newStack(t, testConfig(up, false))
	mux := worker.NewMux(worker.NewRecipeHandler(s.generator), nil)

	err := mux.ProcessTask(context.Background(), generationTask(t, worker.GenerateRecipesPayload{
		UserID:      "user-1",
		Ingredients: []string{"a", "b", "c"},
	}))

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeUpstream, apperrors.TypeOf(err))
	assert.Empty(t, s.history.entries)
}

func TestWorker_RejectsBadPayload(t *testing.T) {
	up := newUpstream(t, okReply(twoRecipes))
	s := newStack(t, testConfig(up, false))
	mux := worker.NewMux(worker.NewRecipeHandler(s.generator), nil)

	err := mux.ProcessTask(context.Background(), asynq.NewTask(worker.TypeGenerateRecipes, []byte("not json")))

	assert.True(t, errors.Is(err, asynq.SkipRetry))
	assert.Zero(t, up.calls.Load())
}

func TestFallbackProvider_SwitchesOnRateLimit(t *testing.T) {
	primary := newUpstream(t, reply{status: http.StatusTooManyRequests, content: `{"error": "rate limit exceeded"}`})
	secondary := newUpstream(t, okReply(twoRecipes))

	provider := recipe.NewFallbackProvider(
		recipe.NewOpenAIProvider("sk", recipe.Options{BaseURL: primary.URL}),
		recipe.NewGroqProvider("gsk", recipe.Options{BaseURL: secondary.URL}),
		"openai", "groq",
	)
	gen := recipe.NewGenerator(provider, recipe.GeneratorConfig{
		ProviderName:   "openai",
		RecipeCount:    3,
		MinIngredients: 3,
		OutputFormat:   "text",
		MaxAttempts:    1,
		Timeout:        5 * time.Second,
	})

	recipes, err := gen.Generate(context.Background(), "user-1", ingredients.Collect("eggs, tomato, rice"))

	require.NoError(t, err)
	assert.Equal(t, parsedRecipes, recipes)
	assert.EqualValues(t, 1, primary.calls.Load())
	assert.EqualValues(t, 1, secondary.calls.Load())
	assert.Equal(t, "llama-3.3-70b-versatile", secondary.lastRequest(t)["model"])
}

func TestFallbackProvider_KeepsClientErrors(t *testing.T) {
	primary := newUpstream(t, reply{status: http.StatusBadRequest, content: `{"error": "bad request"}`})
	secondary := newUpstream(t, okReply(twoRecipes))

	provider := recipe.NewFallbackProvider(
		recipe.NewOpenAIProvider("sk", recipe.Options{BaseURL: primary.URL}),
		recipe.NewGroqProvider("gsk", recipe.Options{BaseURL: secondary.URL}),
		"openai", "groq",
	)

	_, err := provider.Complete(context.Background(), "system", "user")

	require.Error(t, err)
	assert.Zero(t, secondary.calls.Load())
}
