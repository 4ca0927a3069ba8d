package view

import (
	"sync"
	"time"

	"github.com/wordpan/wordpan/internal/app"
)

// IntentRateLimiter bounds how often one client may poke the agent.
type IntentRateLimiter struct {
	mu       sync.Mutex
	history  map[app.SessionID][]time.Time
	limit    int
	interval time.Duration
}

func NewIntentRateLimiter(limit int, interval time.Duration) *IntentRateLimiter {
	return &IntentRateLimiter{
		history:  make(map[app.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *IntentRateLimiter) Allow(sid app.SessionID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[sid]

	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[sid] = fresh

	return true
}
