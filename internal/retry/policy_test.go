package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextRetryAt_GeometricGrowth(t *testing.T) {
	p := NewPolicy(time.Minute, 5.0, 3, 0)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := p.NextRetryAt(now, 1)
	second := p.NextRetryAt(now, 2)
	third := p.NextRetryAt(now, 3)

	assert.Equal(t, now.Add(time.Minute), first)
	assert.Equal(t, now.Add(5*time.Minute), second)
	assert.Equal(t, now.Add(25*time.Minute), third)
}

func TestNextRetryAt_JitterWithinBounds(t *testing.T) {
	p := NewPolicy(time.Minute, 5.0, 5, 10)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		got := p.NextRetryAt(now, 2)
		delta := got.Sub(now)
		assert.GreaterOrEqual(t, delta, 4*time.Minute+30*time.Second)
		assert.LessOrEqual(t, delta, 5*time.Minute+30*time.Second)
	}
}

func TestExhausted(t *testing.T) {
	p := NewPolicy(time.Minute, 5.0, 3, 0)
	assert.False(t, p.Exhausted(2))
	assert.True(t, p.Exhausted(3))
	assert.True(t, p.Exhausted(4))
}
