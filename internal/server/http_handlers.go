package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"cvforge/internal/ai"
	"cvforge/internal/config"
)

// Certificate expiry thresholds for the health endpoint.
const (
	certExpiryCritical = 24 * time.Hour
	certExpiryWarning  = 7 * 24 * time.Hour
)

type namedOperation struct {
	Name   string
	Config config.OperationAIConfig
}

// operationConfigs lists every AI operation with its effective
// configuration, in pipeline order.
func (s *Server) operationConfigs() []namedOperation {
	return []namedOperation{
		{"structure", s.AppConfig.GetStructureConfig()},
		{"role", s.AppConfig.GetRoleConfig()},
		{"bullets", s.AppConfig.GetBulletsConfig()},
		{"profile", s.AppConfig.GetProfileConfig()},
		{"softSkills", s.AppConfig.GetSoftSkillsConfig()},
		{"coverLetter", s.AppConfig.GetCoverLetterConfig()},
	}
}

// writeJSON encodes v with the given status. Encode failures after the
// header is written can only be logged.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// healthHandler reports service, AI model, circuit breaker, and
// certificate health in one document.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	aiStatus := s.checkAIModelsHealth()
	certStatus := s.checkCertificateHealth()

	response := map[string]any{
		"status":           "healthy",
		"service":          "cvforge",
		"version":          s.Version,
		"ai_models":        aiStatus,
		"circuit_breakers": s.checkCircuitBreakerHealth(),
	}
	if certStatus != nil {
		response["certificates"] = certStatus
	}

	status := http.StatusOK
	if !modelsHealthy(aiStatus) || !certHealthy(certStatus) {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

func modelsHealthy(aiStatus map[string]any) bool {
	for _, modelStatus := range aiStatus {
		modelInfo, ok := modelStatus.(map[string]any)
		if !ok {
			continue
		}
		if available, ok := modelInfo["available"].(bool); ok && !available {
			return false
		}
	}
	return true
}

func certHealthy(certStatus map[string]any) bool {
	if certStatus == nil {
		return true
	}
	healthy, ok := certStatus["healthy"].(bool)
	return !ok || healthy
}

// checkAIModelsHealth queries model availability for every operation
// under the configured health check timeout.
func (s *Server) checkAIModelsHealth() map[string]any {
	timeout := s.AppConfig.Observability.HealthCheck.Timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	aiStatus := make(map[string]any)
	for _, op := range s.operationConfigs() {
		opConfig := op.Config
		service, err := ai.NewService(&opConfig, op.Name, s.Logger)
		if err != nil {
			aiStatus[op.Name] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", op.Name, err),
			}
			continue
		}
		aiStatus[op.Name] = service.GetModelInfo(ctx)
	}
	return aiStatus
}

// checkCircuitBreakerHealth verifies breaker wiring per operation.
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	status := make(map[string]any)
	for _, op := range s.operationConfigs() {
		opConfig := op.Config
		if _, err := ai.NewService(&opConfig, op.Name, s.Logger); err != nil {
			status[op.Name] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", op.Name, err),
			}
			continue
		}
		status[op.Name] = map[string]any{
			"available": true,
			"message":   fmt.Sprintf("Circuit breaker integrated with %s service", op.Name),
		}
	}
	return status
}

// checkCertificateHealth classifies the serving certificate by time to
// expiry and includes reload and watcher state. Returns nil when no
// certificate manager is active.
func (s *Server) checkCertificateHealth() map[string]any {
	cm := s.CertificateManager
	if cm == nil {
		return nil
	}

	timeToExpiry, err := cm.CheckExpiry()
	if err != nil {
		return map[string]any{
			"healthy": false,
			"error":   fmt.Sprintf("Failed to check certificate expiry: %v", err),
		}
	}

	certStatus := map[string]any{
		"time_to_expiry_hours": int(timeToExpiry.Hours()),
		"time_to_expiry":       timeToExpiry.String(),
	}

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
		certStatus["message"] = "Certificate has expired"
	case timeToExpiry <= certExpiryCritical:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
		certStatus["message"] = "Certificate expires within 24 hours"
	case timeToExpiry <= certExpiryWarning:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
		certStatus["message"] = "Certificate expires within 7 days"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
		certStatus["message"] = "Certificate is valid"
	}

	if s.TLSConfig.AutoReload.Enabled {
		autoReload := map[string]any{
			"enabled":               true,
			"file_watcher_enabled":  s.TLSConfig.AutoReload.FileWatcher.Enabled,
			"vault_watcher_enabled": s.TLSConfig.AutoReload.VaultWatcher.Enabled,
		}
		if cm.fileWatcher != nil {
			autoReload["file_watcher_running"] = cm.fileWatcher.IsRunning()
			autoReload["watched_files"] = cm.fileWatcher.GetWatchedFiles()
		}
		if cm.vaultWatcher != nil {
			autoReload["vault_watcher_status"] = cm.vaultWatcher.Status()
		}
		certStatus["auto_reload"] = autoReload
	} else {
		certStatus["auto_reload"] = map[string]any{"enabled": false}
	}

	if metrics := cm.GetMetrics(); metrics != nil {
		certStatus["metrics"] = map[string]any{
			"reload_count":         metrics.ReloadCount,
			"reload_success_count": metrics.ReloadSuccessCount,
			"reload_failure_count": metrics.ReloadFailureCount,
			"last_reload_time":     metrics.LastReloadTime,
			"last_reload_success":  metrics.LastReloadSuccess,
			"last_reload_error":    metrics.LastReloadError,
		}
	}

	return certStatus
}

// statsHandler exposes server limits, pipeline settings, and rate
// limiter state.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "cvforge",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"pipeline": map[string]any{
			"min_job_text_length":     s.AppConfig.Pipeline.MinJobTextLength,
			"request_timeout":         s.AppConfig.Pipeline.RequestTimeout.String(),
			"bullets_per_experience":  s.AppConfig.Pipeline.BulletsPerExperience,
			"max_bullet_length":       s.AppConfig.Pipeline.MaxBulletLength,
			"target_technical_skills": s.AppConfig.Pipeline.TargetTechnicalSkills,
			"num_soft_skills":         s.AppConfig.Pipeline.NumSoftSkills,
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
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON body, translating the size-limit
// error into something actionable for the client.
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// writeErrorResponse sends the standard error body.
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}
