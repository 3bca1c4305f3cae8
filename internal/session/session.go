// Package session holds per-user interactive state: the ingredient input, the
// generation phase and the latest results.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	apperrors "github.com/socialchef/larder/internal/errors"
	"github.com/socialchef/larder/internal/services/extractor"
	"github.com/socialchef/larder/internal/services/ingredients"
)

// HistorySize bounds the remembered ingredient lists per session.
const HistorySize = 10

type Phase string

const (
	PhaseEditing Phase = "editing"
	PhaseLoading Phase = "loading"
	PhaseResults Phase = "results"
	PhaseFailed  Phase = "failed"
)

var (
	ErrNotReady = errors.New("session: not enough ingredients to generate")
	ErrBusy     = errors.New("session: generation already in progress")
)

// Generator produces recipes for an ingredient list.
type Generator interface {
	Generate(ctx context.Context, userID string, list ingredients.List) ([]extractor.Recipe, error)
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	Input       string             `json:"input"`
	Ingredients []string           `json:"ingredients"`
	Phase       Phase              `json:"phase"`
	CanGenerate bool               `json:"can_generate"`
	Recipes     []extractor.Recipe `json:"recipes"`
	Error       string             `json:"error,omitempty"`
	History     [][]string         `json:"history"`
}

type Session struct {
	mu      sync.Mutex
	userID  string
	min     int
	input   string
	list    ingredients.List
	phase   Phase
	recipes []extractor.Recipe
	errMsg  string
	history [][]string
	// run identifies the current generation; results from older runs are dropped.
	run uint64
}

func New(userID string, minIngredients int) *Session {
	if minIngredients < 1 {
		minIngredients = ingredients.MinIngredients
	}
	return &Session{userID: userID, min: minIngredients, phase: PhaseEditing}
}

// SetInput replaces the raw input and re-collects the ingredient list.
// A failed session returns to editing.
func (s *Session) SetInput(text string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input = text
	s.list = ingredients.Collect(text)
	if s.phase == PhaseFailed {
		s.phase = PhaseEditing
		s.errMsg = ""
	}
	return s.snapshotLocked()
}

// Generate runs one generation for the current list. It returns ErrNotReady
// below the minimum and ErrBusy while another generation is running. The
// returned error is the generator's; the snapshot carries the user message.
func (s *Session) Generate(ctx context.Context, gen Generator) (Snapshot, error) {
	list, run, err := s.begin()
	if err != nil {
		return s.Snapshot(), err
	}

	recipes, genErr := gen.Generate(ctx, s.userID, list)
	s.finish(run, recipes, genErr)
	return s.Snapshot(), genErr
}

func (s *Session) begin() (ingredients.List, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseLoading {
		return ingredients.List{}, 0, ErrBusy
	}
	if !s.list.CanGenerateWith(s.min) {
		return ingredients.List{}, 0, ErrNotReady
	}

	s.run++
	s.phase = PhaseLoading
	s.errMsg = ""
	s.remember(s.list.Items())
	return s.list, s.run, nil
}

func (s *Session) finish(run uint64, recipes []extractor.Recipe, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run != s.run || s.phase != PhaseLoading {
		return
	}
	if err != nil {
		s.phase = PhaseFailed
		s.recipes = nil
		s.errMsg = apperrors.UserMessage(err)
		return
	}
	s.phase = PhaseResults
	s.recipes = recipes
}

// Back clears results and returns to editing. The input is kept. A running
// generation is abandoned and its result discarded.
func (s *Session) Back() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.run++
	s.phase = PhaseEditing
	s.recipes = nil
	s.errMsg = ""
	return s.snapshotLocked()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	recipes := make([]extractor.Recipe, len(s.recipes))
	copy(recipes, s.recipes)
	history := make([][]string, len(s.history))
	for i, h := range s.history {
		history[i] = append([]string(nil), h...)
	}
	return Snapshot{
		Input:       s.input,
		Ingredients: s.list.Items(),
		Phase:       s.phase,
		CanGenerate: s.phase != PhaseLoading && s.list.CanGenerateWith(s.min),
		Recipes:     recipes,
		Error:       s.errMsg,
		History:     history,
	}
}

// remember pushes items onto the history, newest first, skipping an exact
// repeat of the newest entry.
func (s *Session) remember(items []string) {
	if len(s.history) > 0 && slices.Equal(s.history[0], items) {
		return
	}
	s.history = append([][]string{items}, s.history...)
	if len(s.history) > HistorySize {
		s.history = s.history[:HistorySize]
	}
}
