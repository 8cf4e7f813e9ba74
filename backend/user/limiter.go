package user

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles attempts per key with a token bucket per key.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewLimiter allows perSecond attempts per key with the given burst.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow reports whether another attempt for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Sweep drops the buckets that have refilled completely by now and returns
// how many keys remain. A dropped key starts again from a full bucket.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	full := float64(l.burst)
	for key, lim := range l.limiters {
		if lim.TokensAt(now) >= full {
			delete(l.limiters, key)
		}
	}
	return len(l.limiters)
}

// Run sweeps idle buckets every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Sweep(now)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
