package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// NewServer creates a new Asynq server for processing tasks
func NewServer(redisURL string, concurrency int) (*asynq.Server, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		concurrency = 10
	}

	return asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{QueueRecipes: 1},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
				taskID, _ := asynq.GetTaskID(ctx)
				slog.ErrorContext(ctx, "Task failed", "task_type", t.Type(), "task_id", taskID, "error", err)
			}),
		},
	), nil
}

// NewMux routes generation tasks to handler behind the tracing, error
// reporting and metrics middlewares.
func NewMux(handler *RecipeHandler, m *WorkerMetrics) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(OTelMiddleware, SentryMiddleware, m.Middleware)
	mux.HandleFunc(TypeGenerateRecipes, handler.HandleGenerateRecipes)
	return mux
}
