package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"checkout-service/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *repository.RedisIdempotencyStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, repository.NewRedisIdempotencyStore(client, time.Hour, 30*time.Second)
}

func TestBegin_FirstClaimSucceeds(t *testing.T) {
	mr, store := setupRedis(t)

	cached, err := store.Begin(context.Background(), "create", "k1", "fp")
	require.NoError(t, err)
	assert.Nil(t, cached)
	assert.True(t, mr.Exists("idem:checkout:create:k1"))
	assert.Equal(t, 30*time.Second, mr.TTL("idem:checkout:create:k1"))
}

func TestBegin_InProgress(t *testing.T) {
	_, store := setupRedis(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "create", "k1", "fp")
	require.NoError(t, err)

	_, err = store.Begin(ctx, "create", "k1", "fp")
	assert.ErrorIs(t, err, repository.ErrRequestInProgress)
}

func TestComplete_ThenReplay(t *testing.T) {
	mr, store := setupRedis(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "capture", "k2", "fp")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, "capture", "k2", "fp", repository.CachedResponse{
		StatusCode: 201,
		Body:       json.RawMessage(`{"id":"O-1"}`),
	}))
	assert.Equal(t, time.Hour, mr.TTL("idem:checkout:capture:k2"))

	cached, err := store.Begin(ctx, "capture", "k2", "fp")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 201, cached.StatusCode)
	assert.JSONEq(t, `{"id":"O-1"}`, string(cached.Body))
}

func TestBegin_FingerprintMismatch(t *testing.T) {
	_, store := setupRedis(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "create", "k3", "fp-a")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, "create", "k3", "fp-a", repository.CachedResponse{StatusCode: 201}))

	_, err = store.Begin(ctx, "create", "k3", "fp-b")
	assert.ErrorIs(t, err, repository.ErrFingerprintMismatch)
}

func TestRelease_AllowsRetry(t *testing.T) {
	_, store := setupRedis(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "create", "k4", "fp")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "create", "k4"))

	cached, err := store.Begin(ctx, "create", "k4", "fp")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestBegin_ClaimExpires(t *testing.T) {
	mr, store := setupRedis(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "create", "k5", "fp")
	require.NoError(t, err)
	mr.FastForward(31 * time.Second)

	cached, err := store.Begin(ctx, "create", "k5", "fp")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestBegin_ScopesAreIndependent(t *testing.T) {
	_, store := setupRedis(t)
	ctx := context.Background()

	_, err := store.Begin(ctx, "create", "same", "fp")
	require.NoError(t, err)
	_, err = store.Begin(ctx, "capture", "same", "fp")
	assert.NoError(t, err)
}

func TestBegin_RedisDown(t *testing.T) {
	mr, store := setupRedis(t)
	mr.Close()

	_, err := store.Begin(context.Background(), "create", "k6", "fp")
	assert.Error(t, err)
}
