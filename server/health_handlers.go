package server

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

type healthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Dependencies map[string]string `json:"dependencies"`
}

// HealthHandler pings every configured dependency. Any failure turns the response into a 503.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := healthResponse{
			Status:       statusHealthy,
			Timestamp:    time.Now().UTC(),
			Dependencies: make(map[string]string, len(s.healthChecks)),
		}
		for _, check := range s.healthChecks {
			if err := check.Ping(ctx); err != nil {
				logError(r.Method, r.URL.Path, check.Name+": "+err.Error())
				resp.Dependencies[check.Name] = statusUnhealthy
				resp.Status = statusUnhealthy
				continue
			}
			resp.Dependencies[check.Name] = statusHealthy
		}

		status := http.StatusOK
		if resp.Status != statusHealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
