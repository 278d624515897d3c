package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const defaultHealthCheckTimeout = 5 * time.Second

func (s *Server) healthCheckTimeout() time.Duration {
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.Timeout > 0 {
		return s.AppConfig.Observability.HealthCheck.Timeout
	}
	return defaultHealthCheckTimeout
}

// healthHandler reports backend reachability, generation breaker state and
// certificate health. Any unhealthy part degrades the response to 503.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "careercoach",
		"version": s.Version,
	}
	healthy := true

	backend := s.checkBackendHealth(r.Context())
	response["backend"] = backend
	if reachable, _ := backend["reachable"].(bool); !reachable {
		healthy = false
	}

	response["circuit_breakers"] = s.Backend.BreakerStats()
	if !s.Backend.GenerationHealthy() {
		healthy = false
	}

	if s.CertificateManager != nil {
		certs := s.CertificateManager.Status()
		response["certificates"] = certs
		if ok, _ := certs["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

func (s *Server) checkBackendHealth(ctx context.Context) map[string]any {
	ctx, cancel := context.WithTimeout(ctx, s.healthCheckTimeout())
	defer cancel()

	start := time.Now()
	err := s.Backend.Ping(ctx)
	result := map[string]any{
		"reachable":  err == nil,
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		result["error"] = err.Error()
	}
	return result
}

// statsHandler reports request limits and rate limiter state
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "careercoach",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.Logger.LogError(err, "Failed to encode JSON response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
