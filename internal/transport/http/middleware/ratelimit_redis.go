package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window per-IP limiter shared across instances.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: int64(limit), window: window, prefix: "ratelimit:auth:"}
}

// Limit counts requests per IP in the current window. Redis errors let the
// request through.
func (rl *RedisRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := rl.prefix + realIP(r)

		count, err := rl.client.Incr(ctx, key).Result()
		if err != nil {
			slog.Warn("rate limit check failed", "key", key, "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			if err := rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
				slog.Warn("rate limit expire failed", "key", key, "err", err)
			}
		}
		if count > rl.limit {
			writeJSONError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
