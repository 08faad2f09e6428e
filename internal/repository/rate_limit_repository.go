package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitRepository keeps fixed-window request counters in Redis.
type RateLimitRepository struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
}

// NewRateLimitRepository constructs a RateLimitRepository. A nil client disables limiting.
func NewRateLimitRepository(client *redis.Client, logger *zap.Logger) *RateLimitRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitRepository{client: client, logger: logger, prefix: "ratelimit:"}
}

// Hit increments the counter for key and returns the count within the current
// window and the time left until it resets. The window starts on the first hit.
func (r *RateLimitRepository) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, nil
	}
	fullKey := r.prefix + key

	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr %s: %w", fullKey, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return count, window, fmt.Errorf("redis expire %s: %w", fullKey, err)
		}
		return count, window, nil
	}

	ttl, err := r.client.PTTL(ctx, fullKey).Result()
	if err != nil {
		return count, window, fmt.Errorf("redis pttl %s: %w", fullKey, err)
	}
	if ttl < 0 {
		// restore a missing expiry
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			r.logger.Warn("failed to restore rate limit expiry", zap.String("key", fullKey), zap.Error(err))
		}
		ttl = window
	}
	return count, ttl, nil
}

// Close releases the underlying Redis connection if present.
func (r *RateLimitRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
