package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/playlister/internal/observability"
)

// Metrics records request count, latency and in-flight requests on p.
// Requests are labelled by route template, not by raw path.
func Metrics(p *observability.Prom) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			p.InFlight.Inc()
			defer p.InFlight.Dec()

			next.ServeHTTP(wrapped, r)

			route := routePattern(r)
			status := strconv.Itoa(wrapped.statusCode)
			p.RequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			p.RequestsDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		})
	}
}
