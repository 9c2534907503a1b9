// handlers.go — HTTP exposition for the metrics collector.
package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusHandler serves the Prometheus text exposition format at GET /metrics.
func (c *Collector) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// JSONHandler serves the spec's own snapshot shape at GET /metrics/json.
func (c *Collector) JSONHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// ResetHandler serves POST /metrics/reset, optionally gated by an auth key
// per METRICS_AUTH_ENABLED/METRICS_AUTH_KEY.
func (c *Collector) ResetHandler(authEnabled bool, authKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if authEnabled {
			if r.Header.Get("X-Metrics-Auth") != authKey || authKey == "" {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
		}
		c.Reset()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"reset"}`))
	}
}
