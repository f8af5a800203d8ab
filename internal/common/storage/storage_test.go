// internal/common/storage/storage_test.go
package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"form-digitizer/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupBadger(t *testing.T) *BadgerKV {
	t.Helper()
	kv, err := NewBadger(config.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func setupRedis(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisFromClient(rdb, "test:"), mr
}

func backends(t *testing.T) map[string]KV {
	redisKV, _ := setupRedis(t)
	return map[string]KV{
		"badger": setupBadger(t),
		"redis":  redisKV,
	}
}

// ==========================
// Contract Tests
// ==========================

func TestKV_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, "k", []byte("v1"), 0))

			got, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), got)

			require.NoError(t, kv.Set(ctx, "k", []byte("v2"), 0))
			got, err = kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)

			require.NoError(t, kv.Delete(ctx, "k"))
			_, err = kv.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, kv.Ping(ctx))
		})
	}
}

func TestKV_MissingKey(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get(ctx, "absent")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.NoError(t, kv.Delete(ctx), "deleting nothing is a no-op")
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	kv := setupBadger(t)

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(ctx, kv, "p", payload{Name: "Asha"}, 0))

	var got payload
	require.NoError(t, GetJSON(ctx, kv, "p", &got))
	assert.Equal(t, "Asha", got.Name)

	require.NoError(t, kv.Set(ctx, "broken", []byte("{not json"), 0))
	err := GetJSON(ctx, kv, "broken", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, GetJSON(ctx, kv, "nope", &got), ErrNotFound)
}

func TestRedisKV_PrefixAndTTL(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupRedis(t)

	require.NoError(t, kv.Set(ctx, SessionKey("abc"), []byte("staff"), time.Minute))
	assert.True(t, mr.Exists("test:session:abc"))

	mr.FastForward(2 * time.Minute)
	_, err := kv.Get(ctx, SessionKey("abc"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisKV_ErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	rdb, mock := redismock.NewClientMock()
	kv := NewRedisFromClient(rdb, "")

	mock.ExpectGet("records").SetErr(errors.New("connection reset"))
	_, err := kv.Get(ctx, "records")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")

	mock.ExpectSet("records", []byte("[]"), 0).SetErr(errors.New("READONLY"))
	err = kv.Set(ctx, "records", []byte("[]"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READONLY")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBadgerKV_TTL(t *testing.T) {
	ctx := context.Background()
	kv := setupBadger(t)

	require.NoError(t, kv.Set(ctx, "short", []byte("x"), time.Second))
	got, err := kv.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	require.Eventually(t, func() bool {
		_, err := kv.Get(ctx, "short")
		return errors.Is(err, ErrNotFound)
	}, 5*time.Second, 100*time.Millisecond)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.StorageConfig{Driver: "sqlite"})
	assert.Error(t, err)
}
