package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter, keyed per caller. Used on the public
// auto-join entry point so one visitor cannot drain the code pool.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		err = r.client.Expire(ctx, key, window)
		if err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}

func AutoJoinKey(ip string) string {
	return fmt.Sprintf("rate_limit:auto_join:%s", ip)
}
