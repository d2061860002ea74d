package handlers

import (
	"net/http"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/api/response"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Trading-Ledger-Backend/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Dirty   bool   `json:"dirty"`
	Error   string `json:"error,omitempty"`
}

// Health reports whether the ledger storage is reachable and up to date.
//
// Endpoint: GET /api/system/health
// Response: 200 OK with HealthResponse
// Error: 503 Service Unavailable if the database is unreachable or the ledger
// has changes that could not be written
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	info, err := h.systemService.CheckHealth()
	if err != nil {
		response.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "unhealthy",
			Storage: info.Storage,
			Dirty:   info.Dirty,
			Error:   err.Error(),
		})
		return
	}

	if info.Dirty {
		response.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "degraded",
			Storage: info.Storage,
			Dirty:   true,
			Error:   apperrors.ErrPersistence.Error(),
		})
		return
	}

	response.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Storage: info.Storage,
	})
}

// Version handles GET requests to retrieve version information and feature availability.
// Returns the application version, the schema version for SQLite storage, the
// configured storage driver and price source, and the enabled features.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with model.VersionInfo
// Error: 500 Internal Server Error if version check fails
func (h *SystemHandler) Version(w http.ResponseWriter, _ *http.Request) {
	version, err := h.systemService.CheckVersion()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetVersionInfo.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, version)
}
