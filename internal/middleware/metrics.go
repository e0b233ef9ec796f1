package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rinniizz/crudapi/internal/observability"
)

// Metrics records request count, latency and in-flight requests. The route
// label is the chi pattern, so path parameters do not explode cardinality.
func Metrics(p *observability.Prom) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if p == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			method := r.Method

			p.InFlight.WithLabelValues(method).Inc()
			defer p.InFlight.WithLabelValues(method).Dec()

			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)

			status := wrapped.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := routePattern(r)
			code := strconv.Itoa(status)
			p.RequestsTotal.WithLabelValues(method, route, code).Inc()
			p.RequestsDuration.WithLabelValues(method, route, code).Observe(time.Since(start).Seconds())
		})
	}
}

// routePattern is only complete after routing has run
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
