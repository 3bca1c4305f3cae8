package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeGenerateRecipes = "generate:recipes"
)

const (
	// QueueRecipes is the queue generation jobs run on.
	QueueRecipes = "recipes"
	// ResultRetention is how long finished jobs stay queryable.
	ResultRetention = time.Hour
)

// GenerateRecipesPayload is the payload for recipe generation tasks
type GenerateRecipesPayload struct {
	UserID      string   `json:"user_id"`
	Ingredients []string `json:"ingredients"`
}

// NewGenerateRecipesTask creates a generation task under jobID. Jobs are not
// retried by the queue; the generator applies its own retry policy.
func NewGenerateRecipesTask(jobID string, payload GenerateRecipesPayload, timeout time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{
		asynq.TaskID(jobID),
		asynq.Queue(QueueRecipes),
		asynq.MaxRetry(0),
		asynq.Retention(ResultRetention),
	}
	if timeout > 0 {
		opts = append(opts, asynq.Timeout(timeout))
	}
	return asynq.NewTask(TypeGenerateRecipes, data, opts...), nil
}
