package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	apperrors "github.com/socialchef/larder/internal/errors"
	"github.com/socialchef/larder/internal/logger"
	"github.com/socialchef/larder/internal/services/extractor"
	"github.com/socialchef/larder/internal/services/ingredients"
)

// Generator produces recipes for an ingredient list.
type Generator interface {
	Generate(ctx context.Context, userID string, list ingredients.List) ([]extractor.Recipe, error)
}

// JobResult is written to the task result on completion and on failure.
type JobResult struct {
	Recipes []extractor.Recipe `json:"recipes,omitempty"`
	Error   string             `json:"error,omitempty"`
	Code    string             `json:"code,omitempty"`
}

type RecipeHandler struct {
	generator Generator
}

func NewRecipeHandler(generator Generator) *RecipeHandler {
	return &RecipeHandler{generator: generator}
}

func (h *RecipeHandler) HandleGenerateRecipes(ctx context.Context, t *asynq.Task) error {
	var payload GenerateRecipesPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	list := ingredients.FromSlice(payload.Ingredients)
	slog.InfoContext(ctx, "Generating recipes",
		"user_id", payload.UserID,
		"ingredients", list.Len(),
		logger.WithTraceContext(ctx))

	recipes, err := h.generator.Generate(ctx, payload.UserID, list)
	if err != nil {
		code := string(apperrors.TypeOf(err))
		if appErr, ok := apperrors.As(err); ok && appErr.Code() != "" {
			code = appErr.Code()
		}
		writeResult(ctx, t, JobResult{Error: apperrors.UserMessage(err), Code: code})
		return fmt.Errorf("generate recipes: %w", err)
	}

	writeResult(ctx, t, JobResult{Recipes: recipes})
	return nil
}

func writeResult(ctx context.Context, t *asynq.Task, result JobResult) {
	w := t.ResultWriter()
	if w == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode job result", "error", err)
		return
	}
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "Failed to write job result", "task_id", w.TaskID(), "error", err)
	}
}

func decodeResult(data []byte) *JobResult {
	if len(data) == 0 {
		return nil
	}
	var result JobResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return &result
}
