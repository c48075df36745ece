// Package idempotency implements the single-shot claim registry that
// guards SubmitNotification against duplicate event ids.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Outcome is the result of a claim attempt.
type Outcome int

const (
	Claimed Outcome = iota
	AlreadyPresent
)

// Gate is the IdempotencyGate contract from SPEC_FULL.md §4.2.
type Gate interface {
	Claim(ctx context.Context, eventID string) (Outcome, error)
}

type redisGate struct {
	client   *redis.Client
	ttl      time.Duration
	failOpen bool
	log      *zap.Logger
}

// NewRedisGate builds a Gate backed by a single atomic SETNX, avoiding the
// read-then-write race a Get+Set pair would introduce.
func NewRedisGate(client *redis.Client, ttl time.Duration, failOpen bool, log *zap.Logger) Gate {
	return &redisGate{client: client, ttl: ttl, failOpen: failOpen, log: log}
}

func (g *redisGate) Claim(ctx context.Context, eventID string) (Outcome, error) {
	key := fmt.Sprintf("notification:dedup:%s", eventID)

	claimed, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		if g.failOpen {
			g.log.Warn("idempotency store unreachable, failing open",
				zap.String("event_id", eventID), zap.Error(err))
			return Claimed, nil
		}
		return AlreadyPresent, err
	}

	if !claimed {
		return AlreadyPresent, nil
	}
	return Claimed, nil
}
