package handlers

import (
	"net/http"
	"time"

	"docqa/internal/contextutil"
	"docqa/internal/service"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	documentService service.DocumentService
	version         string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(documentService service.DocumentService, version string) *HealthHandler {
	return &HealthHandler{
		documentService: documentService,
		version:         version,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	Success bool `json:"success"`

	// "online" when the document store answers, "degraded" otherwise
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	Documents int    `json:"documents"`
	Vectors   int    `json:"vectors"`
	Version   string `json:"version"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK when online, 503 Service Unavailable when the document store cannot be queried.
//
// swagger:route GET /api/health healthCheck
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Success:   true,
		Status:    "online",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	}
	httpStatus := http.StatusOK

	summary, err := h.documentService.Summary(ctx)
	if err != nil {
		logger.WarnContext(ctx, "health check failed", "error", err)
		response.Success = false
		response.Status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		response.Documents = summary.Documents
		response.Vectors = summary.Vectors
	}

	writeJSON(ctx, w, httpStatus, response)
}
