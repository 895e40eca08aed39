// Package ratelimit keeps one token bucket per client key.
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	xhttp "ZenithCore/pkg/http"
)

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

type Limiter struct {
	mu      sync.Mutex
	m       map[string]*entry
	every   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

// New allows burst requests per key, refilled at perMinute per minute.
// Keys idle for longer than idleTTL are forgotten on the next Allow.
func New(perMinute float64, burst int, idleTTL time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:       make(map[string]*entry),
		every:   rate.Limit(perMinute / 60),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[key]
	if !ok {
		l.evict(now)
		e = &entry{lim: rate.NewLimiter(l.every, l.burst)}
		l.m[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func (l *Limiter) evict(now time.Time) {
	if l.idleTTL <= 0 {
		return
	}
	for k, e := range l.m {
		if now.Sub(e.seen) > l.idleTTL {
			delete(l.m, k)
		}
	}
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", "60")
				return xhttp.DataResponse(c, http.StatusTooManyRequests,
					[]*xhttp.AppError{xhttp.TooManyRequestsError("too many recompute requests")})
			}
			return next(c)
		}
	}
}
