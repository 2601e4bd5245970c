package handlers

import (
	"context"
	"net/http"
	"time"

	"docqa/internal/contextutil"
	"docqa/internal/rag"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	engine             rag.Engine
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(engine rag.Engine) *HealthHandler {
	return &HealthHandler{
		engine:             engine,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Index describes the stored index, absent when it could not be read
	Index *rag.Status `json:"index,omitempty"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK when the index store is reachable, with status "degraded"
// until documents have been ingested, and 503 when the store cannot be read.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy or has no index yet
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: Index store is unavailable
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string),
	}
	httpStatus := http.StatusOK

	status, err := h.engine.Status(checkCtx)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "index health check failed", "error", err)
		response.Status = "unhealthy"
		response.Checks["index"] = "error"
		response.Issues = append(response.Issues, "index_store_unavailable")
		httpStatus = http.StatusServiceUnavailable
	case !status.Ready:
		response.Status = "degraded"
		response.Checks["index"] = "missing"
		response.Index = &status
		response.Issues = append(response.Issues, "index_not_built")
	default:
		response.Checks["index"] = "ok"
		response.Index = &status
	}

	writeJSON(ctx, w, httpStatus, response)
}
