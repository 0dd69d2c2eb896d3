package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/tradebook/internal/infrastructure/metrics"
)

// Metrics records request counts, latency and in-flight requests on m.
// Paths no route matched share one label so scanners cannot blow up the
// series count.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.HTTPInFlight.Inc()
			defer m.HTTPInFlight.Dec()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			path := metricsPath(r, status)
			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

func metricsPath(r *http.Request, status int) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() == "" && status == http.StatusNotFound {
		return "unmatched"
	}
	return routePattern(r)
}

// routePattern prefers the matched chi pattern, which is already free of IDs.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath replaces the ID segment after /accounts/ and /transactions/
// to keep label cardinality bounded.
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i := 0; i < len(segments)-1; i++ {
		switch segments[i] {
		case "accounts", "transactions":
			next := segments[i+1]
			if next != "" && next != "export" {
				segments[i+1] = ":id"
				i++
			}
		}
	}
	return strings.Join(segments, "/")
}
