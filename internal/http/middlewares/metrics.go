package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/crmfront/internal/metrics"
)

// WithMetrics instrumenta requests HTTP (contador, latencia, inflight).
// m nil deja la cadena sin instrumentar.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := m.StartHTTP(r.Method, r.URL.Path)
			rec := &statusRecorder{ResponseWriter: w}
			defer func() { done(rec.status) }()
			next.ServeHTTP(rec, r)
		})
	}
}
