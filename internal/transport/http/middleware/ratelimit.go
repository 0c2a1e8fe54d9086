package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"kepayroll/internal/requestctx"
	"kepayroll/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	keyFn   RateLimitKeyFunc
	idleTTL time.Duration
	clients map[string]*clientLimiter
	lastGC  time.Time
	now     func() time.Time
}

// RateLimit allows perMinute requests per client, refilled continuously,
// with a burst of the same size.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	rl := newRateLimiter(perMinute, clientIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newRateLimiter(perMinute int, keyFn RateLimitKeyFunc) *rateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	return &rateLimiter{
		limit:   limit,
		burst:   max(perMinute, 1),
		keyFn:   keyFn,
		idleTTL: 10 * time.Minute,
		clients: map[string]*clientLimiter{},
		now:     time.Now,
	}
}

func (rl *rateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if now.Sub(rl.lastGC) > rl.idleTTL {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > rl.idleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastGC = now
	}
	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if rl.limit == rate.Inf {
		return true
	}
	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	limiter := rl.limiterFor(key)
	now := rl.now()
	allowed := limiter.AllowN(now, 1)
	remaining := int(math.Max(0, math.Floor(limiter.TokensAt(now))))

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if allowed {
		return true
	}

	retryAfter := int(math.Ceil(1 / float64(rl.limit)))
	w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
	requestctx.Logger(r.Context()).Warn("rate limit exceeded",
		"key", key,
		"path", r.URL.Path,
		"method", r.Method,
		"burst", rl.burst,
	)
	api.Fail(w, http.StatusTooManyRequests, api.CodeRateLimited, "too many requests", GetRequestID(r.Context()))
	return false
}

func clientIPKey(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		if value := strings.TrimSpace(parts[0]); value != "" {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
