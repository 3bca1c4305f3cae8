// Package integration runs the HTTP API and the worker handler against a fake
// chat completions service, with in-memory cache and history.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/socialchef/larder/internal/api"
	"github.com/socialchef/larder/internal/config"
	"github.com/socialchef/larder/internal/db"
	"github.com/socialchef/larder/internal/services/extractor"
	"github.com/socialchef/larder/internal/services/recipe"
	"github.com/stretchr/testify/require"
)

const (
	testSecret      = "test-jwt-secret"
	testSupabaseURL = "https://test.supabase.co"
)

const twoRecipes = `1. Veggie Omelette
Ingredients:
- 3 eggs
- 1 tomato, diced
Instructions:
1. Whisk the eggs.
2. Cook with the tomato.

2. Tomato Rice
Ingredients:
- 1 cup rice
- 2 tomatoes
Instructions:
1. Cook the rice.
2. Stir in the tomatoes.`

var parsedRecipes = []extractor.Recipe{
	{
		Name:         "Veggie Omelette",
		Ingredients:  []string{"3 eggs", "1 tomato, diced"},
		Instructions: []string{"Whisk the eggs.", "Cook with the tomato."},
	},
	{
		Name:         "Tomato Rice",
		Ingredients:  []string{"1 cup rice", "2 tomatoes"},
		Instructions: []string{"Cook the rice.", "Stir in the tomatoes."},
	},
}

// reply is one canned answer from the fake upstream. Content is wrapped in a
// chat completion envelope unless raw is set or the status is not 200.
type reply struct {
	status  int
	content string
	raw     bool
}

func okReply(content string) reply { return reply{status: http.StatusOK, content: content} }

// upstream is a fake OpenAI-compatible chat completions endpoint.
type upstream struct {
	*httptest.Server
	calls    atomic.Int32
	mu       sync.Mutex
	requests []map[string]any
}

// newUpstream answers the nth request with replies[n]; the last reply repeats.
func newUpstream(t *testing.T, replies ...reply) *upstream {
	t.Helper()
	require.NotEmpty(t, replies)
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(u.calls.Add(1)) - 1
		rep := replies[min(n, len(replies)-1)]

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			u.mu.Lock()
			u.requests = append(u.requests, req)
			u.mu.Unlock()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rep.status)
		if rep.raw || rep.status != http.StatusOK {
			w.Write([]byte(rep.content))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]string{"role": "assistant", "content": rep.content},
			}},
		})
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) lastRequest(t *testing.T) map[string]any {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	require.NotEmpty(t, u.requests)
	return u.requests[len(u.requests)-1]
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]extractor.Recipe
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]extractor.Recipe{}}
}

func (c *memoryCache) Get(ctx context.Context, fingerprint string) ([]extractor.Recipe, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[fingerprint]
	return r, ok
}

func (c *memoryCache) Set(ctx context.Context, fingerprint string, recipes []extractor.Recipe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = recipes
}

// memoryHistory records generations and serves them back newest first.
type memoryHistory struct {
	mu      sync.Mutex
	entries []db.HistoryEntry
}

func (h *memoryHistory) Record(ctx context.Context, userID string, items []string, recipes []extractor.Recipe) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry := db.HistoryEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Ingredients: items,
		Recipes:     recipes,
		CreatedAt:   time.Now(),
	}
	h.entries = append([]db.HistoryEntry{entry}, h.entries...)
	return nil
}

func (h *memoryHistory) ListByUser(ctx context.Context, userID string, limit int) ([]db.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []db.HistoryEntry
	for _, e := range h.entries {
		if e.UserID == userID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func testConfig(u *upstream, authEnabled bool) *config.Config {
	cfg := &config.Config{
		ServiceName: "larder",
		OpenAIKey:   "sk-test",
	}
	if authEnabled {
		cfg.SupabaseURL = testSupabaseURL
		cfg.SupabaseJWTSecret = testSecret
	}
	cfg.SetGenerationDefaults()
	cfg.Generation.BaseURL = u.URL + "/v1"
	cfg.Generation.Timeout = 5 * time.Second
	return cfg
}

type stack struct {
	handler   http.Handler
	generator *recipe.Generator
	cache     *memoryCache
	history   *memoryHistory
}

func newStack(t *testing.T, cfg *config.Config) *stack {
	t.Helper()
	provider, err := recipe.NewProvider(cfg)
	require.NoError(t, err)

	s := &stack{cache: newMemoryCache(), history: &memoryHistory{}}
	s.generator = recipe.NewGenerator(provider, recipe.GeneratorConfigFrom(cfg.Generation),
		recipe.WithCache(s.cache),
		recipe.WithHistory(s.history),
	)
	s.handler = api.NewRouter(api.NewServer(cfg, s.generator, nil, s.history))
	return s
}

func createToken(t *testing.T, secret, issuer string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["iss"]; !ok {
		claims["iss"] = issuer + "/auth/v1"
	}
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validToken(t *testing.T, userID string) string {
	return createToken(t, testSecret, testSupabaseURL, jwt.MapClaims{"sub": userID})
}
