package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IssueLimiter caps how many issues one user may report per window.
type IssueLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewIssueLimiter(addr, password string, limit int) *IssueLimiter {
	return &IssueLimiter{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		prefix: "brokenexp:issue_limit",
		limit:  limit,
		window: 24 * time.Hour,
	}
}

func (l *IssueLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *IssueLimiter) Close() error {
	return l.client.Close()
}

// Allow counts one report for userID. When over the limit it returns false and
// how long until the window resets.
func (l *IssueLimiter) Allow(ctx context.Context, userID string) (bool, time.Duration, error) {
	key := l.prefix + ":" + userID

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	// 第一次计数时设置过期
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	if count > int64(l.limit) {
		retry, _ := l.client.TTL(ctx, key).Result()
		return false, retry, nil
	}
	return true, 0, nil
}
