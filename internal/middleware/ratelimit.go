package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	last    time.Time
}

// RateLimiter keeps one token bucket per caller.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	limiters sync.Map // map[string]*clientLimiter
}

// NewRateLimiter creates a limiter allowing rps requests per second with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{rps: rate.Limit(rps), burst: burst}
}

func (l *RateLimiter) get(key string) *clientLimiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*clientLimiter)
	}
	v, _ := l.limiters.LoadOrStore(key, &clientLimiter{
		limiter: rate.NewLimiter(l.rps, l.burst),
		last:    time.Now(),
	})
	return v.(*clientLimiter)
}

// Allow reports whether key may make another request now.
func (l *RateLimiter) Allow(key string) bool {
	cl := l.get(key)
	cl.mu.Lock()
	cl.last = time.Now()
	cl.mu.Unlock()
	return cl.limiter.Allow()
}

// Sweep forgets callers idle for longer than maxIdle.
func (l *RateLimiter) Sweep(maxIdle time.Duration) {
	now := time.Now()
	l.limiters.Range(func(key, val any) bool {
		cl := val.(*clientLimiter)
		cl.mu.Lock()
		idle := now.Sub(cl.last)
		cl.mu.Unlock()
		if idle > maxIdle {
			l.limiters.Delete(key)
		}
		return true
	})
}

// Run sweeps idle callers every interval until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context, interval, maxIdle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep(maxIdle)
		}
	}
}

// Middleware limits by authenticated principal, falling back to the client IP.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if p, ok := Principal(c); ok {
			key = p.String()
		}
		if !l.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
