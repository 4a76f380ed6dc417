package transport

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// JoinLimiter is a token bucket per member, kept in memory and evicted
// after a period of inactivity.
type JoinLimiter struct {
	mu           sync.Mutex
	entries      map[string]*limiterEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LimiterOption configures a JoinLimiter.
type LimiterOption func(*JoinLimiter)

// WithIdleTTL sets how long an unused bucket is kept.
func WithIdleTTL(d time.Duration) LimiterOption {
	return func(l *JoinLimiter) { l.idleTTL = d }
}

// WithCleanupEvery sets the janitor interval.
func WithCleanupEvery(d time.Duration) LimiterOption {
	return func(l *JoinLimiter) { l.cleanupEvery = d }
}

// NewJoinLimiter allows rps joins per second per member with the given burst.
func NewJoinLimiter(rps float64, burst int, opts ...LimiterOption) *JoinLimiter {
	l := &JoinLimiter{
		entries:      make(map[string]*limiterEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether memberID may join now, consuming a token if so.
func (l *JoinLimiter) Allow(memberID string) bool {
	now := l.now()
	return l.limiter(memberID, now).AllowN(now, 1)
}

func (l *JoinLimiter) limiter(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ent, ok := l.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup drops buckets idle for longer than the TTL.
func (l *JoinLimiter) Cleanup() {
	cutoff := l.now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

// Len returns the number of tracked members.
func (l *JoinLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartJanitor runs Cleanup periodically until ctx is done.
func (l *JoinLimiter) StartJanitor(ctx context.Context) {
	if l.cleanupEvery <= 0 {
		return
	}
	t := time.NewTicker(l.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Cleanup()
			}
		}
	}()
}
