package spacetraveling

import (
	"sync"
	"time"
)

// RateLimiter limits attempts per client IP over a sliding window. It
// guards the preview and webhook endpoints.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a RateLimiter that allows max attempts per window.
// Expired entries are dropped by Sweep, which the app schedules.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

func (l *RateLimiter) prune(ip string, cutoff time.Time) []time.Time {
	hits := l.attempts[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.attempts, ip)
		return nil
	}
	l.attempts[ip] = kept
	return kept
}

// Sweep removes IPs with no attempts inside the window.
func (l *RateLimiter) Sweep() {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	for ip := range l.attempts {
		l.prune(ip, cutoff)
	}
	l.mu.Unlock()
}

// Allow checks the limit and records the attempt when it is allowed.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if len(l.prune(ip, now.Add(-l.window))) >= l.max {
		return false
	}
	l.attempts[ip] = append(l.attempts[ip], now)
	return true
}

// Check returns true if the IP has not exceeded the limit.
// It does not record an attempt; call Record separately on failure.
func (l *RateLimiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(ip, l.now().Add(-l.window))) < l.max
}

// Record registers a failed attempt for the given IP.
func (l *RateLimiter) Record(ip string) {
	l.mu.Lock()
	l.attempts[ip] = append(l.attempts[ip], l.now())
	l.mu.Unlock()
}
