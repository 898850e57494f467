package view

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const pendingKey = "pending:post_views"

// Store holds per-viewer dedupe marks and unsynced view deltas.
type Store interface {
	// MarkViewed reports whether this is the viewer's first view within ttl.
	MarkViewed(ctx context.Context, postID uuid.UUID, viewerKey string, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, postID uuid.UUID) error
	// Drain returns and clears all pending deltas.
	Drain(ctx context.Context) (map[uuid.UUID]int64, error)
}

func userViewKey(postID uuid.UUID, viewerKey string) string {
	return fmt.Sprintf("post:user_view:%s:%s", postID, viewerKey)
}

func viewsKey(postID uuid.UUID) string {
	return fmt.Sprintf("post:views:%s", postID)
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) MarkViewed(ctx context.Context, postID uuid.UUID, viewerKey string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, userViewKey(postID, viewerKey), "viewed", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set user view: %w", err)
	}
	return ok, nil
}

func (s *redisStore) Incr(ctx context.Context, postID uuid.UUID) error {
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, viewsKey(postID))
	pipe.SAdd(ctx, pendingKey, postID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment view: %w", err)
	}
	return nil
}

func (s *redisStore) Drain(ctx context.Context) (map[uuid.UUID]int64, error) {
	ids, err := s.client.SMembers(ctx, pendingKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending post views: %w", err)
	}

	out := make(map[uuid.UUID]int64, len(ids))
	for _, raw := range ids {
		if err := s.client.SRem(ctx, pendingKey, raw).Err(); err != nil {
			return out, err
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}

		val, err := s.client.GetDel(ctx, viewsKey(id)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return out, fmt.Errorf("failed to read view count for post %s: %w", id, err)
		}

		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		out[id] = n
	}
	return out, nil
}

type memoryStore struct {
	mu      sync.Mutex
	marks   map[string]time.Time
	pending map[uuid.UUID]int64
	now     func() time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{
		marks:   make(map[string]time.Time),
		pending: make(map[uuid.UUID]int64),
		now:     time.Now,
	}
}

func (s *memoryStore) MarkViewed(_ context.Context, postID uuid.UUID, viewerKey string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userViewKey(postID, viewerKey)
	now := s.now()
	if exp, ok := s.marks[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.marks[key] = now.Add(ttl)
	return true, nil
}

func (s *memoryStore) Incr(_ context.Context, postID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[postID]++
	return nil
}

func (s *memoryStore) Drain(context.Context) (map[uuid.UUID]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.pending
	s.pending = make(map[uuid.UUID]int64)
	return out, nil
}
