package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devportal/user-registry/internal/core/domain"
)

const snapshotTTL = 5 * time.Minute

// UserCache is a read-through cache of user snapshots backed by Redis.
// Key format: user:<id>
type UserCache struct {
	client *redis.Client
}

// NewUserCache creates a UserCache wrapping the given Redis client.
func NewUserCache(client *redis.Client) *UserCache {
	return &UserCache{client: client}
}

// Get returns the cached snapshot for id, or (nil, nil) on a miss.
func (c *UserCache) Get(ctx context.Context, id string) (*domain.User, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		// A corrupt entry behaves like a miss.
		_ = c.client.Del(ctx, c.key(id)).Err()
		return nil, nil
	}
	return &u, nil
}

// Set stores a snapshot with the cache TTL.
func (c *UserCache) Set(ctx context.Context, u *domain.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return c.client.Set(ctx, c.key(u.ID), raw, snapshotTTL).Err()
}

// Invalidate drops the cached snapshot for id.
func (c *UserCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *UserCache) key(id string) string {
	return "user:" + id
}
