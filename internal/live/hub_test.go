package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesTopicSubscribers(t *testing.T) {
	hub := NewHub(nil)
	events, cancel := hub.Subscribe(PostTopic(1))
	defer cancel()
	other, cancelOther := hub.Subscribe(PostTopic(2))
	defer cancelOther()

	require.NoError(t, hub.Publish(context.Background(), PostTopic(1), Event{Type: TallyChanged, PostID: 1}))

	select {
	case ev := <-events:
		assert.Equal(t, TallyChanged, ev.Type)
		assert.Equal(t, 1, ev.PostID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case ev := <-other:
		t.Fatalf("unexpected event on other topic: %+v", ev)
	default:
	}
}

func TestCancelReleasesSubscription(t *testing.T) {
	hub := NewHub(nil)
	topic := PostTopic(7)
	events, cancel := hub.Subscribe(topic)
	require.Equal(t, 1, hub.Subscribers(topic))

	cancel()
	cancel()

	assert.Equal(t, 0, hub.Subscribers(topic))
	_, open := <-events
	assert.False(t, open, "channel should be closed after cancel")

	// publishing after cancel must not panic or deliver
	require.NoError(t, hub.Publish(context.Background(), topic, Event{Type: PostDeleted, PostID: 7}))
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	hub := NewHub(nil)
	_, cancel := hub.Subscribe(PostTopic(3))
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < bufferSize*4; i++ {
			_ = hub.Publish(context.Background(), PostTopic(3), Event{Type: CommentCreated, PostID: 3})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}
}
