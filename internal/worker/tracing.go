package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/socialchef/larder/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelMiddleware opens a consumer span per task.
func OTelMiddleware(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		taskID, _ := asynq.GetTaskID(ctx)
		queueName, _ := asynq.GetQueueName(ctx)
		retryCount, _ := asynq.GetRetryCount(ctx)

		ctx, span := telemetry.Tracer("worker").Start(ctx, fmt.Sprintf("job:%s", t.Type()),
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("job.id", taskID),
				attribute.String("job.type", t.Type()),
				attribute.String("job.queue", queueName),
				attribute.Int("job.retry_count", retryCount),
				attribute.Int("job.payload_bytes", len(t.Payload())),
			),
		)
		defer span.End()

		if err := h.ProcessTask(ctx, t); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	})
}
