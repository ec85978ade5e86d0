package live

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

func TestRedisRelay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	hub := NewHub(rdb)
	go hub.Run(ctx)

	events, unsubscribe := hub.Subscribe(PostTopic(9))
	defer unsubscribe()

	// the relay subscribes asynchronously; keep publishing until one lands
	deadline := time.After(10 * time.Second)
	for {
		require.NoError(t, hub.Publish(ctx, PostTopic(9), Event{Type: PostUpdated, PostID: 9}))
		select {
		case ev := <-events:
			assert.Equal(t, PostUpdated, ev.Type)
			assert.Equal(t, 9, ev.PostID)
			return
		case <-time.After(200 * time.Millisecond):
		case <-deadline:
			t.Fatal("relayed event not delivered")
		}
	}
}
