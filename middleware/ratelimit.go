package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const sweepInterval = time.Minute

// attemptLimiter sliding window of attempt timestamps per client IP
type attemptLimiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	seen      map[string][]time.Time
	lastSweep time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	return &attemptLimiter{max: max, window: window, seen: make(map[string][]time.Time)}
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// allow records an attempt for ip unless the window is already full
func (l *attemptLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	// drop idle clients
	if now.Sub(l.lastSweep) >= sweepInterval {
		l.sweepLocked(now)
	}

	ts := prune(l.seen[ip], now.Add(-l.window))
	if len(ts) >= l.max {
		l.seen[ip] = ts
		return false
	}
	l.seen[ip] = append(ts, now)
	return true
}

// sweep drops clients with no attempt inside the window
func (l *attemptLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)
}

func (l *attemptLimiter) sweepLocked(now time.Time) {
	l.lastSweep = now
	cutoff := now.Add(-l.window)
	for ip, ts := range l.seen {
		if ts = prune(ts, cutoff); len(ts) == 0 {
			delete(l.seen, ip)
		} else {
			l.seen[ip] = ts
		}
	}
}

// LoginRateLimit 登录/注册接口限流中间件
// 每个 IP 在 window 内最多 maxAttempts 次尝试，超过则返回 429
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	limiter := newAttemptLimiter(maxAttempts, window)

	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "too many attempts, try again later",
			})
			return
		}
		c.Next()
	}
}
