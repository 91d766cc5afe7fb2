package redis

import (
	"context"
	"testing"
	"time"

	"github.com/medplus/medplus-client/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func newStore(t *testing.T, client redis.UniversalClient, expiry ExpiryFunc) *TokenStore {
	t.Helper()
	store, err := NewTokenStore(TokenStoreOptions{
		Client: client,
		Prefix: "medplus-test:",
		Key:    "medplus_token",
		Expiry: expiry,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Del(context.Background(), store.Key()).Err() })
	return store
}

func TestNewTokenStore_Validation(t *testing.T) {
	_, err := NewTokenStore(TokenStoreOptions{Key: "k"})
	require.Error(t, err)

	_, err = NewTokenStore(TokenStoreOptions{Client: redis.NewClient(&redis.Options{}), Key: ""})
	require.Error(t, err)
}

func TestTokenStore_SetGetClear(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := newStore(t, client, nil)
	ctx := context.Background()

	_, ok, err := store.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "header.payload.sig"))
	token, ok, err := store.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "header.payload.sig", token)

	assert.Equal(t, int64(1), client.Exists(ctx, "medplus-test:medplus_token").Val())

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clear must be idempotent")

	_, ok, err = store.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenStore_TTLFollowsExpiry(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := newStore(t, client, func(string) (time.Time, bool) {
		return time.Now().Add(10 * time.Minute), true
	})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "tok"))
	ttl := client.TTL(ctx, store.Key()).Val()
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute)
}

func TestTokenStore_RejectsExpiredCredential(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := newStore(t, client, func(string) (time.Time, bool) {
		return time.Now().Add(-time.Minute), true
	})

	err := store.Set(context.Background(), "tok")
	require.ErrorIs(t, err, ErrExpired)
}

func TestTokenStore_UnknownExpiryStoresWithoutTTL(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := newStore(t, client, func(string) (time.Time, bool) { return time.Time{}, false })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "tok"))
	assert.Equal(t, time.Duration(-1), client.TTL(ctx, store.Key()).Val())
}

func TestTokenStore_SetEmpty(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := newStore(t, client, nil)
	require.Error(t, store.Set(context.Background(), ""))
}
