package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropDatabas3/crmfront/internal/cache"
	"github.com/dropDatabas3/crmfront/internal/observability/logger"
)

// HealthController maneja GET /healthz.
type HealthController struct {
	cache   cache.Client
	version string
}

type healthResponse struct {
	Status     string            `json:"status"` // ok | degraded
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// Healthz responde 200 mientras el proceso sirve. Un cache caído marca
// "degraded" sin cambiar el status code: el resolver no depende del cache.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Version: c.version}

	if c.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		resp.Components = map[string]string{"cache": "ok"}
		if err := c.cache.Ping(ctx); err != nil {
			logger.From(r.Context()).Warn("cache ping failed", logger.Err(err))
			resp.Components["cache"] = "error"
			resp.Status = "degraded"
		}
	}

	if c.version != "" {
		w.Header().Set("X-Service-Version", c.version)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
