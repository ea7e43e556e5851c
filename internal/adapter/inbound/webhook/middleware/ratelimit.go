package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per remote IP. Stale buckets are evicted
// lazily when the table grows past evictAt, so no background goroutine runs.
type rateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*limiterEntry
	limit      rate.Limit
	burst      int
	maxBuckets int
	evictAt    int
	maxIdle    time.Duration
	trustProxy bool
	now        func() time.Time
}

// RateLimitConfig configures NewRateLimiter.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
	// TrustProxy controls whether X-Forwarded-For is used for the client IP.
	TrustProxy bool
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerMinute
	}
	return &rateLimiter{
		buckets:    make(map[string]*limiterEntry),
		limit:      rate.Limit(float64(cfg.RequestsPerMinute) / time.Minute.Seconds()),
		burst:      burst,
		maxBuckets: 10000,
		evictAt:    1000,
		maxIdle:    10 * time.Minute,
		trustProxy: cfg.TrustProxy,
		now:        time.Now,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.buckets[ip]
	if !ok {
		if len(rl.buckets) >= rl.evictAt {
			rl.evictStaleLocked(now)
		}
		// Reject new IPs once the table is full to bound memory.
		if len(rl.buckets) >= rl.maxBuckets {
			return false
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (rl *rateLimiter) evictStaleLocked(now time.Time) {
	cutoff := now.Add(-rl.maxIdle)
	for ip, entry := range rl.buckets {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// NewRateLimiter returns a middleware that limits requests per minute per
// remote IP.
func NewRateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	rl := newRateLimiter(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(remoteIP(r, rl.trustProxy)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// remoteIP extracts the client IP from the request.
// Only trusts X-Forwarded-For when trustProxy is true (i.e., behind a known reverse proxy).
func remoteIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if idx := strings.IndexByte(xff, ','); idx != -1 {
				return strings.TrimSpace(xff[:idx])
			}
			return strings.TrimSpace(xff)
		}
	}
	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i != -1 {
		return addr[:i]
	}
	return addr
}
