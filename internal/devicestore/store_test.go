package devicestore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "dev-1", "vote-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "dev-1", "vote-1", "left"))
	require.NoError(t, s.Set(ctx, "dev-2", "vote-1", "right"))

	v, ok, err := s.Get(ctx, "dev-1", "vote-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "left", v)

	v, _, err = s.Get(ctx, "dev-2", "vote-1")
	require.NoError(t, err)
	assert.Equal(t, "right", v, "devices must not share values")

	require.NoError(t, s.Set(ctx, "dev-1", "vote-1", "neutral"))
	v, _, _ = s.Get(ctx, "dev-1", "vote-1")
	assert.Equal(t, "neutral", v)

	swapped, err := s.Swap(ctx, "dev-1", "vote-1", "left", true, "right")
	require.NoError(t, err)
	assert.False(t, swapped, "stale old value")
	swapped, err = s.Swap(ctx, "dev-1", "vote-1", "", false, "right")
	require.NoError(t, err)
	assert.False(t, swapped, "key is already set")
	swapped, err = s.Swap(ctx, "dev-1", "vote-1", "neutral", true, "right")
	require.NoError(t, err)
	assert.True(t, swapped)
	v, _, _ = s.Get(ctx, "dev-1", "vote-1")
	assert.Equal(t, "right", v)

	swapped, err = s.Swap(ctx, "dev-3", "vote-1", "", false, "left")
	require.NoError(t, err)
	assert.True(t, swapped)
	swapped, err = s.Swap(ctx, "dev-3", "vote-1", "", false, "right")
	require.NoError(t, err)
	assert.False(t, swapped)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	addr, err := ctr.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	exerciseStore(t, NewRedis(rdb, time.Hour))
}
