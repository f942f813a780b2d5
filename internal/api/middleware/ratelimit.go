package middleware

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/mclarke/listing-gateway/internal/metrics"
)

// RateLimit returns Echo middleware that throttles inbound requests per
// client IP. Each IP gets its own limiter; requests over the limit are
// rejected with 429 Too Many Requests.
//
// The per-IP map grows without bound for the life of the process, which is
// acceptable for this service's expected client population.
func RateLimit(perSecond float64, burst int) echo.MiddlewareFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(perSecond), burst)
			limiters[ip] = l
		}
		return l
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, skip := metricsSkipPaths[c.Path()]; skip {
				return next(c)
			}

			if !limiterFor(c.RealIP()).Allow() {
				metrics.HTTPRateLimitedTotal.Inc()
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
			}

			return next(c)
		}
	}
}
