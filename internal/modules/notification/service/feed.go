package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Feed fans new notifications out to live websocket subscribers.
type Feed interface {
	Publish(ctx context.Context, userID uuid.UUID, payload []byte) error
	// Subscribe returns a channel of payloads for the user. The returned
	// func releases the subscription.
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan []byte, func(), error)
}

func channelName(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID)
}

type redisFeed struct {
	client *redis.Client
}

// NewRedisFeed uses Redis pub/sub so every server instance sees every
// notification.
func NewRedisFeed(client *redis.Client) Feed {
	return &redisFeed{client: client}
}

func (f *redisFeed) Publish(ctx context.Context, userID uuid.UUID, payload []byte) error {
	return f.client.Publish(ctx, channelName(userID), payload).Err()
}

func (f *redisFeed) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan []byte, func(), error) {
	pubsub := f.client.Subscribe(ctx, channelName(userID))

	// wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan []byte)
	done := make(chan struct{})
	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}

type memoryFeed struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan []byte]struct{}
}

// NewMemoryFeed delivers within one process. Slow subscribers drop messages
// rather than block the publisher.
func NewMemoryFeed() Feed {
	return &memoryFeed{subs: make(map[uuid.UUID]map[chan []byte]struct{})}
}

func (f *memoryFeed) Publish(_ context.Context, userID uuid.UUID, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs[userID] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (f *memoryFeed) Subscribe(_ context.Context, userID uuid.UUID) (<-chan []byte, func(), error) {
	ch := make(chan []byte, 16)

	f.mu.Lock()
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[chan []byte]struct{})
	}
	f.subs[userID][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[userID], ch)
			if len(f.subs[userID]) == 0 {
				delete(f.subs, userID)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
