package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// OTPRateLimit bounds code issuance: 2 requests per minute per client.
func OTPRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Requests: 2,
		Window:   1 * time.Minute,
	}
}

// AuthRateLimit bounds login, verification and reset attempts: 5 per 15
// minutes per client.
func AuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Requests: 5,
		Window:   15 * time.Minute,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP.
// Counters are per process; under horizontal scaling the guarantee is
// per-instance.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.Requests,
		config.Window,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"error":"rate_limit_exceeded","message":"Too many attempts. Please try again later."}`))
		}),
	)
}
