package middleware

import (
	"net/http"
	"time"

	"storyfront-backend/pkg/observability"

	"github.com/go-chi/chi/v5/middleware"
)

// Metrics records request counts and latency per method and status.
func Metrics(m *observability.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			m.HTTPRequest(r.Method, ww.Status(), time.Since(start))
		})
	}
}
