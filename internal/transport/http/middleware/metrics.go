package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// MetricsRecorder receives one observation per request.
type MetricsRecorder interface {
	Record(method, route string, status int, duration time.Duration)
}

// Metrics labels requests by chi route pattern, not raw path, to keep label
// cardinality bounded.
func Metrics(recorder MetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if recorder == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			recorder.Record(r.Method, route, rec.status, time.Since(start))
		})
	}
}
