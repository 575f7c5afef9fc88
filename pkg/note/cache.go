package note

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/notebook/internal/event_bus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ListCache holds the full page list of a user between writes.
type ListCache interface {
	Get(ctx context.Context, userId int) ([]NotePage, bool)
	Set(ctx context.Context, userId int, pages []NotePage)
	Invalidate(ctx context.Context, userId int) error
}

type NoopListCache struct{}

func (NoopListCache) Get(context.Context, int) ([]NotePage, bool) { return nil, false }
func (NoopListCache) Set(context.Context, int, []NotePage)        {}
func (NoopListCache) Invalidate(context.Context, int) error       { return nil }

type RedisListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisListCache(client *redis.Client, ttl time.Duration) *RedisListCache {
	return &RedisListCache{client: client, ttl: ttl}
}

func cacheKey(userId int) string {
	return fmt.Sprintf("notebook:notes:%d", userId)
}

// Get treats every Redis failure as a miss, the repository stays the source of truth.
func (c *RedisListCache) Get(ctx context.Context, userId int) ([]NotePage, bool) {
	data, err := c.client.Get(ctx, cacheKey(userId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Warnf("note list cache read failed for user %d: %v", userId, err)
		return nil, false
	}
	var pages []NotePage
	if err := json.Unmarshal(data, &pages); err != nil {
		log.Warnf("dropping unreadable note list cache entry for user %d: %v", userId, err)
		return nil, false
	}
	return pages, true
}

func (c *RedisListCache) Set(ctx context.Context, userId int, pages []NotePage) {
	data, err := json.Marshal(pages)
	if err != nil {
		log.Warnf("failed to encode note list for user %d: %v", userId, err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(userId), data, c.ttl).Err(); err != nil {
		log.Warnf("note list cache write failed for user %d: %v", userId, err)
	}
}

func (c *RedisListCache) Invalidate(ctx context.Context, userId int) error {
	if err := c.client.Del(ctx, cacheKey(userId)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate note list cache: %w", err)
	}
	return nil
}

// SubscribeInvalidation drops the cached list of a user whenever one of their pages changes.
func SubscribeInvalidation(bus *event_bus.EventBus, cache ListCache) {
	event_bus.SubscribeTyped(bus, event_bus.NotePageChangedType, func(e event_bus.EventT[event_bus.NotePageChanged]) error {
		return cache.Invalidate(e.Context(), e.Data.UserId)
	})
	event_bus.SubscribeTyped(bus, event_bus.NotePageDeletedType, func(e event_bus.EventT[event_bus.NotePageDeleted]) error {
		return cache.Invalidate(e.Context(), e.Data.UserId)
	})
}
