package stubserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ayushhunt/jobhelp-sub000/internal/observability"
	"github.com/ayushhunt/jobhelp-sub000/internal/types"
)

// createResearchHandler handles synchronous research requests
func (s *Server) createResearchHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("jobhelp.api")
		ctx, span := tracer.Start(ctx, "api.research")
		defer span.End()

		var req types.CompanyResearchRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid research request", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("company", req.DisplayName()),
			attribute.String("research_depth", string(req.ResearchDepth)),
			attribute.String("operation", "research"),
		)

		metrics := om.GetMetrics()
		var result *types.CompanyResearchResponse
		err := metrics.TrackResearchJob(ctx, string(req.ResearchDepth), func(ctx context.Context) error {
			var runErr error
			result, runErr = s.Registry.Research(ctx, req)
			return runErr
		})
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Research failed", err.Error(), http.StatusInternalServerError)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Float64("authenticity_score", result.AuthenticityScore),
		)

		writeJSONResponse(w, result)
	}
}

// createAsyncResearchHandler initiates a background research job
func (s *Server) createAsyncResearchHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("jobhelp.api")
		_, span := tracer.Start(ctx, "api.research_async")
		defer span.End()

		var req types.CompanyResearchRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid research request", err.Error(), http.StatusBadRequest)
			return
		}

		id := s.Registry.StartAsync(req)
		om.GetMetrics().RecordSubmission(ctx, string(req.ResearchDepth))

		span.SetAttributes(
			attribute.String("request_id", id),
			attribute.String("company", req.DisplayName()),
		)

		writeJSONResponse(w, types.AsyncResearchAck{
			RequestID: id,
			Status:    "research_initiated",
			Message:   fmt.Sprintf("Research started for %s. Use the request ID to track progress.", req.DisplayName()),
		})
	}
}

// createProgressHandler returns the latest progress snapshot for a job
func (s *Server) createProgressHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("request_id")

		progress, ok := s.Registry.Progress(id)
		om.GetMetrics().RecordPoll(r.Context(), ok)
		if !ok {
			writeErrorResponse(w, "Research request not found", fmt.Sprintf("No research session for request ID %s", id), http.StatusNotFound)
			return
		}

		writeJSONResponse(w, progress)
	}
}

// resultHandler returns the final payload for a completed job
func (s *Server) resultHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("request_id")

	result, ok := s.Registry.Result(id)
	if !ok {
		writeErrorResponse(w, "Result not available", fmt.Sprintf("No completed result for request ID %s", id), http.StatusNotFound)
		return
	}

	writeJSONResponse(w, result)
}

// createCancelHandler cancels a running job
func (s *Server) createCancelHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("request_id")

		if !s.Registry.Cancel(id) {
			writeErrorResponse(w, "Research request not found", fmt.Sprintf("No research session for request ID %s", id), http.StatusNotFound)
			return
		}

		om.GetMetrics().RecordCancellation(r.Context())

		writeJSONResponse(w, types.CancelAck{
			Message:   "Research cancelled successfully",
			RequestID: id,
		})
	}
}

// costEstimateHandler returns the cost breakdown for a research depth
func (s *Server) costEstimateHandler(w http.ResponseWriter, r *http.Request) {
	depth := types.ResearchDepth(r.URL.Query().Get("research_depth"))
	if depth == "" {
		depth = types.DepthStandard
	}
	if !depth.Valid() {
		writeErrorResponse(w, "Invalid research depth",
			fmt.Sprintf("research_depth must be one of %v", types.ResearchDepths()), http.StatusBadRequest)
		return
	}

	writeJSONResponse(w, s.Registry.CostEstimate(depth))
}

// sourcesHandler returns the source catalog and depth pipelines
func (s *Server) sourcesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, s.Registry.SourceCatalog())
}

// healthHandler provides a health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":          "healthy",
		"service":         "jobhelp",
		"version":         s.Version,
		"active_sessions": s.Registry.ActiveCount(),
	}

	if cw := s.CertWatcher; cw != nil {
		response["certificates"] = map[string]any{
			"auto_reload":     true,
			"watcher_running": cw.IsRunning(),
			"watched_files":   cw.GetWatchedFiles(),
		}
	}

	writeJSONResponse(w, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "jobhelp",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"research": map[string]any{
			"active_sessions": s.Registry.ActiveCount(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
			"window":           s.RateLimit.Window.String(),
		}
	}

	writeJSONResponse(w, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeJSONResponse writes a JSON payload with the standard headers
func writeJSONResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
