package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/socialchef/larder/internal/config"
	"github.com/socialchef/larder/internal/db"
	apperrors "github.com/socialchef/larder/internal/errors"
	"github.com/socialchef/larder/internal/logger"
	"github.com/socialchef/larder/internal/middleware"
	"github.com/socialchef/larder/internal/services/extractor"
	"github.com/socialchef/larder/internal/services/ingredients"
	"github.com/socialchef/larder/internal/session"
	"github.com/socialchef/larder/internal/worker"
)

// Generator produces recipes synchronously.
type Generator interface {
	Generate(ctx context.Context, userID string, list ingredients.List) ([]extractor.Recipe, error)
	MinIngredients() int
}

// JobQueue runs generations in the background.
type JobQueue interface {
	Enqueue(ctx context.Context, payload worker.GenerateRecipesPayload) (string, error)
	Status(ctx context.Context, jobID string) (*worker.JobStatus, error)
}

// HistoryLister reads past generations.
type HistoryLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]db.HistoryEntry, error)
}

type Server struct {
	cfg       *config.Config
	generator Generator
	sessions  *session.Registry
	queue     JobQueue
	history   HistoryLister
}

// NewServer wires the HTTP handlers. queue and history may be nil; the job
// endpoints then answer 503 and history is always empty.
func NewServer(cfg *config.Config, generator Generator, queue JobQueue, history HistoryLister) *Server {
	return &Server{
		cfg:       cfg,
		generator: generator,
		sessions:  session.NewRegistry(generator.MinIngredients(), cfg.Sessions.MaxSessions, cfg.Sessions.IdleTTL),
		queue:     queue,
		history:   history,
	}
}

// GenerateRequest accepts either a comma separated string or a list.
type GenerateRequest struct {
	Ingredients string   `json:"ingredients"`
	Items       []string `json:"items"`
}

func (r GenerateRequest) list() ingredients.List {
	if len(r.Items) > 0 {
		return ingredients.FromSlice(r.Items)
	}
	return ingredients.Collect(r.Ingredients)
}

type RecipesResponse struct {
	Recipes []extractor.Recipe `json:"recipes"`
}

type JobCreatedResponse struct {
	JobID string `json:"job_id"`
}

type HistoryResponse struct {
	Entries []db.HistoryEntry `json:"entries"`
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) HandleGenerateRecipes(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, unauthorized())
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, invalidBody(err))
		return
	}

	recipes, err := s.generator.Generate(r.Context(), userID, req.list())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RecipesResponse{Recipes: recipes})
}

func (s *Server) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, unauthorized())
		return
	}
	if s.queue == nil {
		writeError(w, r, queueDisabled())
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, invalidBody(err))
		return
	}

	list := req.list()
	if !list.CanGenerateWith(s.generator.MinIngredients()) {
		writeError(w, r, tooFewIngredients(s.generator.MinIngredients()))
		return
	}

	jobID, err := s.queue.Enqueue(r.Context(), worker.GenerateRecipesPayload{
		UserID:      userID,
		Ingredients: list.Items(),
	})
	if err != nil {
		writeError(w, r, apperrors.NewInternalError("Failed to enqueue job", "ENQUEUE_FAILED", err))
		return
	}

	slog.InfoContext(r.Context(), "Generation job queued",
		"job_id", jobID,
		"user_id", userID,
		"ingredients", list.Len(),
		logger.WithTraceContext(r.Context()))

	writeJSON(w, http.StatusAccepted, JobCreatedResponse{JobID: jobID})
}

// HandleJobStatus reports a job to its owner. Other callers get the same 404
// as for an unknown id.
func (s *Server) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, unauthorized())
		return
	}
	if s.queue == nil {
		writeError(w, r, queueDisabled())
		return
	}

	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		writeError(w, r, apperrors.NewValidationError("Job id is required", "MISSING_JOB_ID", ""))
		return
	}

	status, err := s.queue.Status(r.Context(), jobID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if status.UserID != userID {
		slog.WarnContext(r.Context(), "Job status requested by another user",
			"job_id", jobID,
			"user_id", userID)
		writeError(w, r, worker.JobNotFound())
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, r, unauthorized())
		return
	}

	resp := HistoryResponse{Entries: []db.HistoryEntry{}}
	if s.history == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	limit := db.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, apperrors.NewValidationError("limit must be a positive integer", "INVALID_LIMIT", ""))
			return
		}
		limit = n
	}

	entries, err := s.history.ListByUser(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, apperrors.NewInternalError("Failed to load history", "HISTORY_FAILED", err))
		return
	}
	if entries != nil {
		resp.Entries = entries
	}
	writeJSON(w, http.StatusOK, resp)
}
