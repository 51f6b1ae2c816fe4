package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

// Redis shares the quote cache between instances. Expiry is delegated to
// Redis; capacity is governed by the server's maxmemory policy.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects using a redis:// URL and verifies the connection
func NewRedis(ctx context.Context, rawURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Get decodes the cached list. Transport and decode errors are misses.
func (r *Redis) Get(ctx context.Context, key string) ([]model.BridgeQuote, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).Warn("Quote cache read failed")
		}
		return nil, false
	}

	var quotes []model.BridgeQuote
	if err := json.Unmarshal(raw, &quotes); err != nil {
		logrus.WithError(err).Warnf("Discarding corrupt quote cache entry %s", key)
		_ = r.client.Del(ctx, key).Err()
		return nil, false
	}
	return quotes, true
}

// Set stores the list with the cache TTL
func (r *Redis) Set(ctx context.Context, key string, quotes []model.BridgeQuote) {
	raw, err := json.Marshal(quotes)
	if err != nil {
		logrus.WithError(err).Warn("Quote cache encode failed")
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		logrus.WithError(err).Warn("Quote cache write failed")
	}
}

// Close releases the underlying connection pool
func (r *Redis) Close() error {
	return r.client.Close()
}
