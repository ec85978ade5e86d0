// Package live fans out content change events to subscribed viewers.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/pigjjun/board/backend/internal/metrics"
)

const (
	redisChannel = "board.live"
	bufferSize   = 32
)

type Event struct {
	Type   string `json:"type"`
	PostID int    `json:"post_id"`
	Data   any    `json:"data,omitempty"`
}

// Event types.
const (
	TallyChanged    = "tally.changed"
	PostUpdated     = "post.updated"
	PostDeleted     = "post.deleted"
	CommentCreated  = "comment.created"
	CommentUpdated  = "comment.updated"
	CommentDeleted  = "comment.deleted"
	CommentLiked    = "comment.liked"
	AuthorRewritten = "author.rewritten"
)

func PostTopic(postID int) string {
	return fmt.Sprintf("post:%d", postID)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
}

type subscriber struct {
	ch chan Event
}

type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
	rdb  *redis.Client
}

// NewHub returns a hub. With a non-nil Redis client, Publish goes through a
// Redis channel and Run must be running to deliver events locally.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		subs: make(map[string]map[*subscriber]struct{}),
		rdb:  rdb,
	}
}

// Subscribe registers a listener on topic. The returned cancel func releases
// it and closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, bufferSize)}

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*subscriber]struct{})
	}
	h.subs[topic][s] = struct{}{}
	h.mu.Unlock()
	metrics.LiveSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[topic], s)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
			close(s.ch)
			h.mu.Unlock()
			metrics.LiveSubscribers.Dec()
		})
	}
	return s.ch, cancel
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

func (h *Hub) Publish(ctx context.Context, topic string, ev Event) error {
	if h.rdb == nil {
		h.dispatch(topic, ev)
		return nil
	}
	payload, err := json.Marshal(envelope{Topic: topic, Event: ev})
	if err != nil {
		return fmt.Errorf("encode live event: %w", err)
	}
	return h.rdb.Publish(ctx, redisChannel, payload).Err()
}

// dispatch never blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) dispatch(topic string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[topic] {
		select {
		case s.ch <- ev:
		default:
		}
	}
}

type envelope struct {
	Topic string `json:"topic"`
	Event Event  `json:"event"`
}

// Run relays events published by any instance from Redis to local
// subscribers until ctx is done. It returns immediately without Redis.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	ps := h.rdb.Subscribe(ctx, redisChannel)
	defer ps.Close()

	log.Printf("live: relaying events from redis channel %s", redisChannel)
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("live: dropping malformed event: %v", err)
				continue
			}
			h.dispatch(env.Topic, env.Event)
		}
	}
}
