package ai

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterSweepInterval = time.Minute

// GuildLimiter keeps one token bucket per guild (or DM channel) so a busy
// server cannot exhaust the model quota of the others. Buckets that have
// refilled completely are dropped on the next sweep; a new bucket starts full,
// so forgetting them changes nothing.
type GuildLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*rate.Limiter
	lastSweep time.Time
	now       func() time.Time
}

func NewGuildLimiter(perSecond float64, burst int) *GuildLimiter {
	if burst < 1 {
		burst = 1
	}
	return &GuildLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

// Allow consumes a token for key and reports whether one was available.
func (g *GuildLimiter) Allow(key string) bool {
	g.mu.Lock()
	now := g.now()
	if now.Sub(g.lastSweep) >= limiterSweepInterval {
		g.sweep(now)
	}
	l, ok := g.limiters[key]
	if !ok {
		l = rate.NewLimiter(g.limit, g.burst)
		g.limiters[key] = l
	}
	g.mu.Unlock()
	return l.AllowN(now, 1)
}

// sweep must be called with g.mu held.
func (g *GuildLimiter) sweep(now time.Time) {
	for key, l := range g.limiters {
		if l.TokensAt(now) >= float64(g.burst) {
			delete(g.limiters, key)
		}
	}
	g.lastSweep = now
}

func (g *GuildLimiter) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.limiters)
}
