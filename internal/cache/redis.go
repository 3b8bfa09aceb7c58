package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// tagSetTTL bounds how long a tag index set may outlive its members.
// Entries carry their own TTLs; the set only needs to survive the
// longest-lived entry referencing it.
const tagSetTTL = 24 * time.Hour

// RedisConfig holds configuration for the Redis-backed store.
type RedisConfig struct {
	// Client is the Redis client (required).
	Client *redis.Client

	// Logger for store operations.
	Logger zerolog.Logger
}

// Redis is a Store backed by a shared Redis instance. Values are stored
// under their key with a TTL; tags are kept as Redis sets of member keys.
type Redis struct {
	client *redis.Client
	logger zerolog.Logger

	group   singleflight.Group
	metrics *storeMetrics
}

// NewRedis creates a new Redis-backed store.
func NewRedis(cfg RedisConfig) *Redis {
	return &Redis{
		client:  cfg.Client,
		logger:  cfg.Logger,
		metrics: newStoreMetrics("redis"),
	}
}

// GetOrCompute implements Store. Misses within this process are coalesced
// with singleflight; misses across processes are not coordinated.
func (r *Redis) GetOrCompute(ctx context.Context, key string, ttl time.Duration, tags []string, compute ComputeFunc) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		r.metrics.recordHit(ctx)
		return value, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cache read: %w", err)
	}

	r.metrics.recordMiss(ctx)

	result, err, _ := r.group.Do(key, func() (interface{}, error) {
		if value, err := r.client.Get(ctx, key).Bytes(); err == nil {
			return value, nil
		}

		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
			return nil, fmt.Errorf("cache write: %w", err)
		}

		for _, tag := range tags {
			tagKey := tagSetKey(tag)
			if err := r.client.SAdd(ctx, tagKey, key).Err(); err != nil {
				r.logger.Warn().Err(err).Str("tag", tag).Msg("failed to index cache tag")
				continue
			}
			_ = r.client.Expire(ctx, tagKey, tagSetTTL).Err()
		}

		return value, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// InvalidateTag implements Store.
func (r *Redis) InvalidateTag(ctx context.Context, tag string) error {
	tagKey := tagSetKey(tag)

	keys, err := r.client.SMembers(ctx, tagKey).Result()
	if err != nil {
		return fmt.Errorf("cache tag read: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache tag eviction: %w", err)
		}
	}

	if err := r.client.Del(ctx, tagKey).Err(); err != nil {
		return fmt.Errorf("cache tag cleanup: %w", err)
	}

	r.logger.Debug().
		Str("tag", tag).
		Int("evicted", len(keys)).
		Msg("cache tag invalidated")

	return nil
}

func tagSetKey(tag string) string {
	return Key("tag", tag)
}
