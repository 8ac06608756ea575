package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/empathai/chat-service/internal/config"
	registrycache "github.com/empathai/chat-service/internal/registry/cache"
	goredis "github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

func init() {
	registrycache.Register(registrycache.Plugin{
		Name:   "redis",
		Loader: load,
	})
}

func load(ctx context.Context) (registrycache.RecallCache, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis cache: CHAT_SERVICE_REDIS_URL is required")
	}
	ttl := cfg.RecallCacheTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return LoadFromURLWithTTL(ctx, cfg.RedisURL, ttl)
}

// LoadFromURLWithTTL creates a RecallCache from a Redis-compatible URL with
// an explicit default TTL.
func LoadFromURLWithTTL(ctx context.Context, redisURL string, ttl time.Duration) (registrycache.RecallCache, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis cache: ping failed: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisRecallCache{client: client, ttl: ttl}, nil
}

type redisRecallCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func recallKey(userID string) string {
	return fmt.Sprintf("recall:%s", userID)
}

func (c *redisRecallCache) Available() bool {
	return true
}

func (c *redisRecallCache) Get(ctx context.Context, userID string) (*registrycache.CachedRecall, error) {
	data, err := c.client.Get(ctx, recallKey(userID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cached registrycache.CachedRecall
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

func (c *redisRecallCache) Set(ctx context.Context, userID string, recall registrycache.CachedRecall, ttl time.Duration) error {
	data, err := json.Marshal(recall)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = c.ttl
	}
	return c.client.Set(ctx, recallKey(userID), data, ttl).Err()
}

func (c *redisRecallCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, recallKey(userID)).Err()
}

var _ registrycache.RecallCache = (*redisRecallCache)(nil)
