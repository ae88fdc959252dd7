package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleVisitorTTL is how long an unused per-IP limiter is kept.
const idleVisitorTTL = 10 * time.Minute

// RateLimiter implements per-IP token bucket rate limiting.
type RateLimiter struct {
	visitors sync.Map // map[string]*visitor
	stop     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter with background cleanup.
// Call Stop() on shutdown.
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{stop: make(chan struct{})}
	go rl.cleanup(cleanupInterval)
	return rl
}

// Stop terminates the background cleanup goroutine. Safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Limit returns middleware that rate-limits requests to maxPerMinute per
// IP, allowing a burst of maxPerMinute. A non-positive limit disables it.
func (rl *RateLimiter) Limit(maxPerMinute int) Middleware {
	return func(next http.Handler) http.Handler {
		if maxPerMinute <= 0 {
			return next
		}
		retryAfter := strconv.Itoa(int(math.Ceil(60.0 / float64(maxPerMinute))))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := rl.visitor(clientIP(r), maxPerMinute)
			if !v.allow() {
				w.Header().Set("Retry-After", retryAfter)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) visitor(key string, maxPerMinute int) *visitor {
	if val, ok := rl.visitors.Load(key); ok {
		return val.(*visitor)
	}
	val, _ := rl.visitors.LoadOrStore(key, &visitor{
		limiter:  rate.NewLimiter(rate.Limit(float64(maxPerMinute)/60.0), maxPerMinute),
		lastSeen: time.Now(),
	})
	return val.(*visitor)
}

func (v *visitor) allow() bool {
	v.mu.Lock()
	v.lastSeen = time.Now()
	v.mu.Unlock()
	return v.limiter.Allow()
}

func (v *visitor) idleFor(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastSeen)
}

func (rl *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.visitors.Range(func(key, value any) bool {
				if value.(*visitor).idleFor(now) > idleVisitorTTL {
					rl.visitors.Delete(key)
				}
				return true
			})
		}
	}
}

// clientIP strips the port from RemoteAddr so that every connection from
// one host shares a bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
