package http

import (
	"context"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// CleanupOpts controls how long idle client buckets are kept.
type CleanupOpts struct {
	TTL      time.Duration
	Interval time.Duration
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	rate     rate.Limit
	burst    int
	cancel   context.CancelFunc
	once     sync.Once
	CleanupOpts
}

// NewIPRateLimiter allows requests per window for each IP. A non-positive
// requests value or window disables limiting.
func NewIPRateLimiter(requests int, window time.Duration, opts CleanupOpts) *IPRateLimiter {
	rl := &IPRateLimiter{
		limiters:    make(map[string]*rate.Limiter),
		lastSeen:    make(map[string]time.Time),
		CleanupOpts: opts,
	}
	if requests <= 0 || window <= 0 {
		rl.rate = rate.Inf
		return rl
	}

	rl.rate = rate.Every(window / time.Duration(requests))
	rl.burst = requests

	if opts.Interval > 0 && opts.TTL > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		rl.cancel = cancel
		go rl.cleanup(ctx)
	}
	return rl
}

func (rl *IPRateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, seen := range rl.lastSeen {
				if time.Since(seen) > rl.TTL {
					delete(rl.limiters, ip)
					delete(rl.lastSeen, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow reports whether ip may make another request now.
func (rl *IPRateLimiter) Allow(ip string) bool {
	if rl.rate == rate.Inf {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.limiters[ip]
	if !ok {
		bucket = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = bucket
	}
	rl.lastSeen[ip] = time.Now()
	return bucket.Allow()
}

// Stop ends the cleanup goroutine.
func (rl *IPRateLimiter) Stop() {
	rl.once.Do(func() {
		if rl.cancel != nil {
			rl.cancel()
		}
	})
}

// Middleware rejects requests over the limit with 429.
func (rl *IPRateLimiter) Middleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			logger.Warn().
				Str("ip", ip).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("rate limit exceeded")
			c.String(stdhttp.StatusTooManyRequests, "Too many requests. Try again later.")
			c.Abort()
			return
		}
		c.Next()
	}
}
