package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store on a Redis instance. Entries carry a TTL so the
// cache stays bounded instead of accumulating forever.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func groupsKey(uid string) string    { return "cache:groups:" + uid }
func proposalsKey(uid string) string { return "cache:proposals:" + uid }

func (c *Redis) PutGroups(ctx context.Context, uid string, groups []CachedGroup) error {
	return c.put(ctx, groupsKey(uid), groups)
}

func (c *Redis) Groups(ctx context.Context, uid string) ([]CachedGroup, error) {
	var out []CachedGroup
	if err := c.get(ctx, groupsKey(uid), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Redis) PutProposals(ctx context.Context, uid string, proposals []CachedProposal) error {
	return c.put(ctx, proposalsKey(uid), proposals)
}

func (c *Redis) Proposals(ctx context.Context, uid string) ([]CachedProposal, error) {
	var out []CachedProposal
	if err := c.get(ctx, proposalsKey(uid), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Redis) put(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *Redis) get(ctx context.Context, key string, dst interface{}) error {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache entry: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return nil
}
