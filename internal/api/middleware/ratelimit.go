package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"jobportal-cv/internal/logging"
	"jobportal-cv/pkg/models"
)

// clientLimiter tracks one client's token bucket
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client. Extraction calls are billed
// per document, so the bucket is small.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	logger   logging.Logger
	stopOnce sync.Once
	stop     chan struct{}
}

// NewRateLimiter creates a limiter allowing requestsPerMinute with burst
func NewRateLimiter(requestsPerMinute float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(requestsPerMinute / 60.0),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
		logger:  logging.GetGlobalLogger(),
		stop:    make(chan struct{}),
	}
}

// Allow reports whether key may make a request now
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = rl.now()
	return cl.limiter.AllowN(cl.lastSeen, 1)
}

// Cleanup forgets clients idle for longer than the idle TTL
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	removed := 0
	for key, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until Stop is called
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-rl.stop:
				return
			case <-ticker.C:
				if removed := rl.Cleanup(); removed > 0 {
					rl.logger.Debug("Rate limiter dropped idle clients", map[string]interface{}{
						"removed": removed,
					})
				}
			}
		}
	}()
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware rejects requests over the limit with 429. Clients are keyed by
// authenticated candidate, falling back to the real IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := CandidateID(c)
			if key == "" {
				key = c.RealIP()
			}

			if !rl.Allow(key) {
				rl.logger.Warn("Rate limit exceeded", map[string]interface{}{
					"request_id": RequestID(c),
					"client":     key,
					"path":       c.Path(),
				})
				c.Response().Header().Set("Retry-After", "60")
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
					Error:     "rate_limited",
					Message:   "Too many requests, please try again later",
					RequestID: RequestID(c),
					Timestamp: time.Now(),
				})
			}

			return next(c)
		}
	}
}
