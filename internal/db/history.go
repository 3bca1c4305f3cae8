package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/socialchef/larder/internal/services/extractor"
)

// DefaultHistoryLimit bounds ListByUser when the caller passes no limit.
const DefaultHistoryLimit = 20

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS generation_history (
	id          UUID PRIMARY KEY,
	user_id     TEXT NOT NULL,
	ingredients TEXT[] NOT NULL,
	recipes     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS generation_history_user_created_idx
	ON generation_history (user_id, created_at DESC);`

const insertHistory = `
INSERT INTO generation_history (id, user_id, ingredients, recipes, created_at)
VALUES ($1, $2, $3, $4, $5)`

const listHistoryByUser = `
SELECT id, user_id, ingredients, recipes, created_at
FROM generation_history
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

// HistoryEntry is one completed generation.
type HistoryEntry struct {
	ID          uuid.UUID          `json:"id"`
	UserID      string             `json:"user_id"`
	Ingredients []string           `json:"ingredients"`
	Recipes     []extractor.Recipe `json:"recipes"`
	CreatedAt   time.Time          `json:"created_at"`
}

// HistoryStore persists the generation audit trail in Postgres.
type HistoryStore struct {
	db  DBTX
	now func() time.Time
}

func NewHistoryStore(db DBTX) *HistoryStore {
	return &HistoryStore{db: db, now: time.Now}
}

// Migrate creates the history table if it does not exist.
func (s *HistoryStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("migrate generation_history: %w", err)
	}
	return nil
}

func (s *HistoryStore) Record(ctx context.Context, userID string, items []string, recipes []extractor.Recipe) error {
	if recipes == nil {
		recipes = []extractor.Recipe{}
	}
	payload, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("encode recipes: %w", err)
	}

	if _, err := s.db.Exec(ctx, insertHistory, uuid.New(), userID, items, payload, s.now().UTC()); err != nil {
		return fmt.Errorf("insert generation_history: %w", err)
	}
	return nil
}

// ListByUser returns the newest entries for userID first.
func (s *HistoryStore) ListByUser(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.db.Query(ctx, listHistoryByUser, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query generation_history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var (
			e       HistoryEntry
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Ingredients, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation_history: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Recipes); err != nil {
			return nil, fmt.Errorf("decode recipes for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generation_history: %w", err)
	}
	return entries, nil
}
