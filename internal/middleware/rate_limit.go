package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	pkghttp "github.com/rinniizz/crudapi/pkg/http"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// DefaultAuthRateLimit returns default rate limit config for auth endpoints (5 requests per minute)
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Requests: 5,
		Window:   time.Minute,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP.
// The client IP honours forwarding headers only from trusted proxies.
func RateLimitByIP(config RateLimitConfig, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.Requests,
		config.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, ipConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, rateLimitMessage)
		}),
	)
}
