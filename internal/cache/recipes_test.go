package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/socialchef/larder/internal/services/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeCache_NilClient(t *testing.T) {
	c := NewRecipeCache(nil, time.Hour)
	ctx := context.Background()

	c.Set(ctx, "egg,rice|text|3", []extractor.Recipe{{Name: "Fried Rice"}})
	recipes, ok := c.Get(ctx, "egg,rice|text|3")
	assert.False(t, ok)
	assert.Nil(t, recipes)
	c.Delete(ctx, "egg,rice|text|3")
}

func TestRecipeCache_NilReceiver(t *testing.T) {
	var c *RecipeCache
	_, ok := c.Get(context.Background(), "x")
	assert.False(t, ok)
}

func TestRecipeCache_UnreachableRedisIsAMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRecipeCache(client, time.Hour)
	ctx := context.Background()

	require.NotPanics(t, func() {
		c.Set(ctx, "fp", []extractor.Recipe{{Name: "Toast"}})
	})
	_, ok := c.Get(ctx, "fp")
	assert.False(t, ok)
}

func TestRecipeCache_MakeKey(t *testing.T) {
	c := NewRecipeCache(nil, time.Hour)

	a := c.makeKey("egg,rice|text|3")
	b := c.makeKey("egg,rice|text|3")
	other := c.makeKey("egg,rice|json|3")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.True(t, strings.HasPrefix(a, "recipes:"))
	assert.Len(t, a, len("recipes:")+64)
}

func TestNewClient_EmptyURL(t *testing.T) {
	client, err := NewClient(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient(context.Background(), "http://not-redis")
	assert.Error(t, err)
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewClient(ctx, "redis://127.0.0.1:1/0?dial_timeout=50ms&max_retries=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
	assert.Nil(t, client)
}
