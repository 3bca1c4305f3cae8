package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/socialchef/larder/internal/services/extractor"
)

// RecipeCache provides Redis-backed caching for parsed recipes, keyed by the
// normalized ingredient set and request shape.
type RecipeCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRecipeCache creates a new recipe cache with the given Redis client.
func NewRecipeCache(client *redis.Client, ttl time.Duration) *RecipeCache {
	return &RecipeCache{
		client: client,
		prefix: "recipes:",
		ttl:    ttl,
	}
}

// makeKey creates a cache key from a request fingerprint by hashing it.
func (c *RecipeCache) makeKey(fingerprint string) string {
	hash := sha256.Sum256([]byte(fingerprint))
	return fmt.Sprintf("%s%x", c.prefix, hash)
}

// Get returns the cached recipes for fingerprint. Any failure is a miss.
func (c *RecipeCache) Get(ctx context.Context, fingerprint string) ([]extractor.Recipe, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, c.makeKey(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.WarnContext(ctx, "Redis cache get failed", "error", err)
		return nil, false
	}

	var recipes []extractor.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached recipes", "error", err)
		return nil, false
	}

	return recipes, true
}

// Set stores recipes under fingerprint for the cache TTL.
func (c *RecipeCache) Set(ctx context.Context, fingerprint string, recipes []extractor.Recipe) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(recipes)
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal recipes for cache", "error", err)
		return
	}

	if err := c.client.Set(ctx, c.makeKey(fingerprint), data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache set failed", "error", err)
	}
}

// Delete removes the entry for fingerprint.
func (c *RecipeCache) Delete(ctx context.Context, fingerprint string) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, c.makeKey(fingerprint)).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache delete failed", "error", err)
	}
}
