package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiter manages token buckets per key. Buckets idle for longer than
// staleAfter are dropped on the next call.
type limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    rate.Limit
	burst   int
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const staleAfter = 10 * time.Minute

// newLimiter allows perMin attempts per minute per key, in bursts of up to
// perMin. perMin <= 0 disables limiting and returns nil.
func newLimiter(perMin int, now func() time.Time) *limiter {
	if perMin <= 0 {
		return nil
	}
	return &limiter{
		buckets: make(map[string]*bucket),
		rate:    rate.Limit(float64(perMin) / time.Minute.Seconds()),
		burst:   perMin,
		now:     now,
	}
}

// allow consumes one token for key. When denied it returns how long to wait.
func (l *limiter) allow(key string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	key = strings.ToLower(strings.TrimSpace(key))
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > staleAfter {
			delete(l.buckets, k)
		}
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, max(d, time.Second)
	}
	return true, 0
}
