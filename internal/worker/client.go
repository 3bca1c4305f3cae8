package worker

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	apperrors "github.com/socialchef/larder/internal/errors"
)

// ParseRedisURL parses a Redis URL and returns asynq.RedisClientOpt
func ParseRedisURL(redisURL string) (asynq.RedisClientOpt, error) {
	// Handle plain host:port format
	if !strings.HasPrefix(redisURL, "redis://") && !strings.HasPrefix(redisURL, "rediss://") {
		return asynq.RedisClientOpt{Addr: redisURL}, nil
	}

	u, err := url.Parse(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	opt := asynq.RedisClientOpt{
		Addr: u.Host,
	}

	if u.User != nil {
		opt.Username = u.User.Username()
		if password, ok := u.User.Password(); ok {
			opt.Password = password
		}
	}

	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return asynq.RedisClientOpt{}, fmt.Errorf("invalid redis db %q: %w", db, err)
		}
		opt.DB = n
	}

	// For rediss:// (TLS), we need to set TLS config
	if u.Scheme == "rediss" {
		opt.TLSConfig = &tls.Config{ServerName: u.Hostname()}
	}

	return opt, nil
}

// Job states reported to API clients.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// JobStatus is the client-facing view of a generation job.
type JobStatus struct {
	ID     string     `json:"job_id"`
	State  string     `json:"state"`
	Result *JobResult `json:"result,omitempty"`
	// UserID is the job's owner, taken from the task payload.
	UserID string `json:"-"`
}

// Queue enqueues generation jobs and reports on them.
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	timeout   time.Duration
}

func NewQueue(redisURL string, timeout time.Duration) (*Queue, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &Queue{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		timeout:   timeout,
	}, nil
}

// Enqueue schedules a generation and returns its job id.
func (q *Queue) Enqueue(ctx context.Context, payload GenerateRecipesPayload) (string, error) {
	jobID := uuid.NewString()
	task, err := NewGenerateRecipesTask(jobID, payload, q.timeout)
	if err != nil {
		return "", err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TypeGenerateRecipes, err)
	}
	return jobID, nil
}

// JobNotFound is returned for unknown or expired jobs and for jobs owned by
// someone else.
func JobNotFound() error {
	return apperrors.NewNotFoundError("Job not found", "JOB_NOT_FOUND", "Jobs expire one hour after they finish.")
}

// Status looks up a job. Unknown or expired ids are a NOT_FOUND AppError.
func (q *Queue) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	info, err := q.inspector.GetTaskInfo(QueueRecipes, jobID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil, JobNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("inspect job %s: %w", jobID, err)
	}
	return statusFromInfo(info), nil
}

func (q *Queue) Close() error {
	return errors.Join(q.client.Close(), q.inspector.Close())
}

func statusFromInfo(info *asynq.TaskInfo) *JobStatus {
	status := &JobStatus{ID: info.ID}
	var payload GenerateRecipesPayload
	if err := json.Unmarshal(info.Payload, &payload); err == nil {
		status.UserID = payload.UserID
	}
	switch info.State {
	case asynq.TaskStateActive:
		status.State = JobRunning
	case asynq.TaskStateCompleted:
		status.State = JobCompleted
		status.Result = decodeResult(info.Result)
	case asynq.TaskStateArchived:
		status.State = JobFailed
		status.Result = decodeResult(info.Result)
		if status.Result == nil || status.Result.Error == "" {
			status.Result = &JobResult{Error: apperrors.MessageGenerationFailed, Code: string(apperrors.ErrorTypeInternal)}
		}
	default:
		status.State = JobPending
	}
	return status
}
