// Package retry implements the geometric backoff formula resolving
// SPEC_FULL.md's retry-timing open question, replacing the teacher's linear
// calculateBackoffDelay (baseDelay * multiplier * retryCount).
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Policy computes next_retry_at for a failed delivery attempt.
type Policy struct {
	BaseDelay     time.Duration
	Multiplier    float64
	MaxAttempts   int
	JitterPercent float64
}

// NewPolicy builds a Policy from config values.
func NewPolicy(baseDelay time.Duration, multiplier float64, maxAttempts int, jitterPercent float64) Policy {
	return Policy{
		BaseDelay:     baseDelay,
		Multiplier:    multiplier,
		MaxAttempts:   maxAttempts,
		JitterPercent: jitterPercent,
	}
}

// Exhausted reports whether retryCount has used up the attempt budget.
func (p Policy) Exhausted(retryCount int) bool {
	return retryCount >= p.MaxAttempts
}

// NextRetryAt computes now + base * multiplier^(retryCount-1), jittered by
// +/- JitterPercent. retryCount is the attempt number about to be scheduled
// (1 for the first retry after the initial failed send).
func (p Policy) NextRetryAt(now time.Time, retryCount int) time.Time {
	delay := p.delay(retryCount)
	return now.Add(delay)
}

func (p Policy) delay(retryCount int) time.Duration {
	exp := math.Pow(p.Multiplier, float64(retryCount-1))
	base := float64(p.BaseDelay) * exp

	if p.JitterPercent > 0 {
		spread := base * (p.JitterPercent / 100)
		// jitter in [-spread, +spread]
		base += (rand.Float64()*2 - 1) * spread
	}
	if base < 0 {
		base = 0
	}
	return time.Duration(base)
}
