package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client), mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestCache(t)

	type payload struct {
		Name string `json:"name"`
	}

	require.NoError(t, svc.Set(ctx, "k", payload{Name: "pune"}, time.Minute))

	var got payload
	require.NoError(t, svc.Get(ctx, "k", &got))
	assert.Equal(t, "pune", got.Name)

	ok, err := svc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, svc.Get(ctx, "k", &got), ErrMiss)

	require.NoError(t, svc.Set(ctx, "k2", 1, 0))
	require.NoError(t, svc.Delete(ctx, "k2"))
	ok, err = svc.Exists(ctx, "k2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNilClient(t *testing.T) {
	svc := NewService(nil)
	assert.False(t, svc.IsAvailable())
	assert.NoError(t, svc.Set(context.Background(), "k", 1, time.Minute))
	assert.Error(t, svc.Get(context.Background(), "k", new(int)))
}
