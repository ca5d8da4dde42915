package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuildLimiterIsPerKey(t *testing.T) {
	l := NewGuildLimiter(0, 2)
	assert.True(t, l.Allow("g1"))
	assert.True(t, l.Allow("g1"))
	assert.False(t, l.Allow("g1"))
	assert.True(t, l.Allow("g2"))
}

func TestGuildLimiterDropsRefilledBuckets(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	l := NewGuildLimiter(1, 1)
	l.now = func() time.Time { return clock }

	for i := 0; i < 50; i++ {
		assert.True(t, l.Allow("dm:"+string(rune('a'+i))))
	}
	assert.Equal(t, 50, l.size())

	clock = clock.Add(2 * limiterSweepInterval)
	assert.True(t, l.Allow("g1"))
	assert.Equal(t, 1, l.size())
}

func TestGuildLimiterKeepsDrainedBuckets(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	l := NewGuildLimiter(0, 1)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("g1"))
	clock = clock.Add(2 * limiterSweepInterval)
	assert.True(t, l.Allow("g2"))
	assert.Equal(t, 2, l.size())
	assert.False(t, l.Allow("g1"))
}
