package api

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRateLimit    = 25
	defaultRateBurst    = 50
	defaultRefreshLimit = 2
	defaultRefreshBurst = 5
)

// rateLimiter decides whether a console request may proceed.
type rateLimiter interface {
	Allow() bool
}

type tokenBucket struct {
	limiter *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

func (b *tokenBucket) Allow() bool {
	if b == nil || b.limiter == nil {
		return true
	}
	return b.limiter.Allow()
}

// retryAfter is the whole number of seconds until the bucket refills one token.
func (b *tokenBucket) retryAfter() int {
	if b == nil || b.limiter == nil || b.limiter.Limit() <= 0 {
		return 1
	}
	wait := time.Duration(float64(time.Second) / float64(b.limiter.Limit()))
	if secs := int((wait + time.Second - 1) / time.Second); secs > 1 {
		return secs
	}
	return 1
}

func retryAfterSeconds(limiter rateLimiter) int {
	if bucket, ok := limiter.(*tokenBucket); ok {
		return bucket.retryAfter()
	}
	return 1
}

// rateLimitMiddleware guards the whole API surface.
func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	return limitWith(limiter, "console rate limit exceeded, please retry shortly", next)
}

// refreshLimitMiddleware guards reloads separately: every refresh issues two
// requests against the management endpoint.
func refreshLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	return limitWith(limiter, "configuration refreshed too often, wait before reloading again", next)
}

func limitWith(limiter rateLimiter, suggestion string, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(limiter)))
		writeError(w, http.StatusTooManyRequests, "Too many requests", suggestion)
	})
}
