package worker

import (
	"context"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	apperrors "github.com/socialchef/larder/internal/errors"
	appsentry "github.com/socialchef/larder/internal/sentry"
)

// SentryMiddleware reports failed tasks to Sentry. Validation failures are
// expected outcomes and are not reported.
func SentryMiddleware(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		taskID, _ := asynq.GetTaskID(ctx)
		queueName, _ := asynq.GetQueueName(ctx)
		retryCount, _ := asynq.GetRetryCount(ctx)

		hub := sentry.CurrentHub().Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("task_type", t.Type())
			scope.SetTag("task_id", taskID)
			scope.SetTag("queue", queueName)
			scope.SetTag("retry_count", strconv.Itoa(retryCount))
		})
		ctx = sentry.SetHubOnContext(ctx, hub)

		err := h.ProcessTask(ctx, t)
		if err != nil && appsentry.Reportable(err) {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("error_type", string(apperrors.TypeOf(err)))
				hub.CaptureException(err)
			})
		}
		return err
	})
}
