package web

// handlers_health.go serves the probe and metrics endpoints.
//   /health/live  - the process is up
//   /health/ready - the store answers
//   /metrics      - Prometheus exposition

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/mimereg/internal/logging"
)

const readyTimeout = 2 * time.Second

// Probe statuses.
const (
	statusOK   = "ok"
	statusFail = "fail"
)

type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string                       `json:"status"`
	Timestamp string                       `json:"timestamp"`
	Checks    map[string]healthCheckResult `json:"checks,omitempty"`
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady returns 503 while the store cannot be reached.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	check := healthCheckResult{Status: statusOK}
	if err := s.registry.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("readiness check failed", "error", err)
		check = healthCheckResult{Status: statusFail, Message: "store unavailable"}
	}

	resp := healthResponse{
		Status:    check.Status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]healthCheckResult{"store": check},
	}
	status := http.StatusOK
	if check.Status == statusFail {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
