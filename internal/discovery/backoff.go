package discovery

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// reconnectLimiter throttles how often RefreshServer is allowed to attempt
// a fresh connection to any one server, independent of the cron cadence
// that drives RefreshAll. Without it a server stuck in StatusError would
// get hammered with a connect attempt on every scheduled tick; each
// server instead gets its own token-bucket limiter, grounded on the same
// golang.org/x/time/rate.Limiter used for the teacher's adaptive model-client
// throttling (features/model/middleware/ratelimit.go), just with a fixed
// rate rather than an AIMD-adjusted one.
type reconnectLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    time.Duration
}

func newReconnectLimiter(every time.Duration) *reconnectLimiter {
	if every <= 0 {
		every = 30 * time.Second
	}
	return &reconnectLimiter{limiters: map[string]*rate.Limiter{}, every: every}
}

// Allow reports whether serverID may attempt a reconnect right now. It
// never blocks: a denied attempt just means RefreshServer leaves the
// server's current status alone until the next scheduled tick.
func (l *reconnectLimiter) Allow(serverID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[serverID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.every), 1)
		l.limiters[serverID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
