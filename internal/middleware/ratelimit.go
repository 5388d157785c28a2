package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// window tracks the request count for one client IP within a fixed window.
type window struct {
	count int
	start time.Time
}

// RateLimiter is a fixed-window, per-IP request limiter held in memory.
// Create one with NewRateLimiter and mount its Middleware on a route group.
type RateLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*window
}

// NewRateLimiter creates a limiter allowing max requests per IP per window.
// Expired entries are swept every minute until ctx is cancelled.
func NewRateLimiter(ctx context.Context, max int, per time.Duration) *RateLimiter {
	rl := &RateLimiter{
		max:     max,
		window:  per,
		now:     time.Now,
		clients: make(map[string]*window),
	}
	go rl.sweep(ctx, time.Minute)
	return rl
}

func (rl *RateLimiter) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for ip, w := range rl.clients {
				if now.Sub(w.start) > rl.window*2 {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// allow records one request for ip and reports whether it is within the
// limit. When it is not, the second value is the time left in the window.
func (rl *RateLimiter) allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.start) > rl.window {
		rl.clients[ip] = &window{count: 1, start: now}
		return true, 0
	}

	w.count++
	if w.count > rl.max {
		return false, rl.window - now.Sub(w.start)
	}
	return true, 0
}

// Middleware returns the echo middleware. Rejected requests get 429 with a
// Retry-After header in whole seconds.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, wait := rl.allow(c.RealIP())
			if !ok {
				secs := int(wait.Seconds()) + 1
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"type":    "rate_limited",
					"message": "Rate limit exceeded. Please try again later.",
				})
			}
			return next(c)
		}
	}
}
