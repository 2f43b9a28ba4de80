package server

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"net/http"
	"strings"

	"cvforge/internal/ai"
	cvforgeErrors "cvforge/internal/errors"
	"cvforge/internal/observability"
	"cvforge/internal/pipeline"
	"cvforge/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createProcessHandler wraps the full pipeline handler with observability
func (s *Server) createProcessHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvforge.api")
		ctx, span := tracer.Start(ctx, "api.process")
		defer span.End()

		var req types.ProcessRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.JobText) == "" {
			err := fmt.Errorf("missing job text")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing job text", "job_text field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_text_length", len(req.JobText)),
			attribute.Int("request.experience_slots", len(req.UserProfile.ExperiencesConfig)),
			attribute.Int("request.projects", req.UserProfile.ProjectsDatabase.Len()),
			attribute.String("operation", "process"),
		)

		// Build per-operation AI services with the request's model overrides
		services, err := ai.NewServices(s.AppConfig, req.Config, s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI services", err.Error(), http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := services.Close(); err != nil {
				s.Logger.Warn("Failed to close AI services", "error", err.Error())
			}
		}()

		p := pipeline.New(services, s.AppConfig.Pipeline, s.Logger)

		metrics := om.GetMetrics()
		var result *types.ProcessResult
		err = metrics.TrackAIOperationWithTokens(ctx, "process", func(ctx context.Context) *observability.AIOperationResult {
			output, procErr := p.Process(ctx, req)
			result = output
			return &observability.AIOperationResult{Error: procErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "pipeline"))
			metrics.RecordBusinessMetric(ctx, "resume_processed", false, om,
				attribute.String("error", err.Error()))
			writeAppErrorResponse(w, err)
			return
		}

		// Record success metrics
		metrics.RecordBusinessMetric(ctx, "resume_processed", true, om,
			attribute.Float64("ats.average_score", result.Metadata.AverageATSScore),
			attribute.Int("experiences.enhanced", result.Metadata.Experiences.Enhanced),
			attribute.Int("experiences.direct", result.Metadata.Experiences.Direct),
			attribute.Int("cover_letter.word_count", result.Metadata.CoverLetterWordCount))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("response.language", string(result.Metadata.Language)),
			attribute.Float64("response.average_ats_score", result.Metadata.AverageATSScore),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createStructureHandler wraps the structure-only handler with observability
func (s *Server) createStructureHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("cvforge.api")
		ctx, span := tracer.Start(ctx, "api.structure")
		defer span.End()

		var req types.StructureRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.JobText) == "" {
			err := fmt.Errorf("missing job text")
			span.RecordError(err)
			writeErrorResponse(w, "Missing job text", "job_text field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.job_text_length", len(req.JobText)),
			attribute.String("operation", "structure"),
		)

		var reqConfig types.RequestConfig
		reqConfig.Structuring.Model = req.Model

		services, err := ai.NewServices(s.AppConfig, reqConfig, s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI services", err.Error(), http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := services.Close(); err != nil {
				s.Logger.Warn("Failed to close AI services", "error", err.Error())
			}
		}()

		p := pipeline.New(services, s.AppConfig.Pipeline, s.Logger)

		metrics := om.GetMetrics()
		var job *types.StructuredJob
		err = metrics.TrackAIOperationWithTokens(ctx, "structure", func(ctx context.Context) *observability.AIOperationResult {
			output, structErr := p.Structure(ctx, req.JobText)
			job = output
			return &observability.AIOperationResult{Error: structErr}
		}, om)

		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "job_structured", false, om)
			writeAppErrorResponse(w, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "job_structured", true, om,
			attribute.String("job.language", string(job.Language)),
			attribute.Int("job.keywords", len(job.Keywords)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("job.language", string(job.Language)),
		)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(job); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// statusForAppError maps pipeline error codes to HTTP status codes. The
// mapping is part of the API contract.
func statusForAppError(appErr *cvforgeErrors.AppError) int {
	switch appErr.Code {
	case cvforgeErrors.ErrCodeUnsatisfiableAssignment, cvforgeErrors.ErrCodeNoRoleAvailable:
		return http.StatusUnprocessableEntity
	case cvforgeErrors.ErrCodeRequestTimeout:
		return http.StatusGatewayTimeout
	case cvforgeErrors.ErrCodeUpstreamFailure:
		return http.StatusBadGateway
	}

	if appErr.Type == cvforgeErrors.ErrorTypeValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeAppErrorResponse renders a pipeline error with its stable code and
// mapped status
func writeAppErrorResponse(w http.ResponseWriter, err error) {
	var appErr *cvforgeErrors.AppError
	if !goerrors.As(err, &appErr) {
		writeErrorResponse(w, "Processing failed", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForAppError(appErr))

	response := ErrorResponse{
		Error:   "Processing failed",
		Code:    appErr.Code,
		Message: appErr.Message,
	}
	if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
