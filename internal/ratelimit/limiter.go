// Package ratelimit implements the per-(user,channel) fixed-window
// admission limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Decision is the result of an admission check.
type Decision struct {
	Admitted       bool
	RetryAfterSecs int
}

// Limiter is the RateLimiter contract from SPEC_FULL.md §4.3.
type Limiter interface {
	Admit(ctx context.Context, userID uuid.UUID, channel models.Channel) (Decision, error)
}

type redisLimiter struct {
	client     *redis.Client
	window     time.Duration
	defaultMax int
	perChannel map[string]int
	failOpen   bool
	log        *zap.Logger
}

// NewRedisLimiter builds a Limiter backed by Redis INCR, fixing the
// teacher's bug of re-arming the TTL (and stomping the counter back to 1)
// on every request: the TTL is set only on the increment that creates the
// key, so the window genuinely expires on schedule.
func NewRedisLimiter(client *redis.Client, window time.Duration, defaultMax int, perChannel map[string]int, failOpen bool, log *zap.Logger) Limiter {
	return &redisLimiter{
		client:     client,
		window:     window,
		defaultMax: defaultMax,
		perChannel: perChannel,
		failOpen:   failOpen,
		log:        log,
	}
}

func (l *redisLimiter) limitFor(channel models.Channel) int {
	if v, ok := l.perChannel[string(channel)]; ok {
		return v
	}
	return l.defaultMax
}

func (l *redisLimiter) Admit(ctx context.Context, userID uuid.UUID, channel models.Channel) (Decision, error) {
	key := fmt.Sprintf("notification:ratelimit:%s:%s", userID, channel)
	limit := l.limitFor(channel)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		if l.failOpen {
			l.log.Warn("rate limit store unreachable, failing open",
				zap.String("user_id", userID.String()), zap.String("channel", string(channel)), zap.Error(err))
			return Decision{Admitted: true}, nil
		}
		return Decision{}, err
	}

	if count == 1 {
		// Only the increment that created the counter arms the TTL, so the
		// window expires naturally instead of being reset on every hit.
		l.client.Expire(ctx, key, l.window)
	}

	if count > int64(limit) {
		ttl, ttlErr := l.client.TTL(ctx, key).Result()
		retryAfter := int(l.window.Seconds())
		if ttlErr == nil && ttl > 0 {
			retryAfter = int(ttl.Seconds())
		}
		return Decision{Admitted: false, RetryAfterSecs: retryAfter}, nil
	}

	return Decision{Admitted: true}, nil
}
