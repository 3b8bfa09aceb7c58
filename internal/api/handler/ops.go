package handler

import (
	"net/http"

	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version string
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version string) *OpsHandler {
	return &OpsHandler{version: version}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  "ok",
		Version: h.version,
	})
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: "ok",
		Checks: map[string]string{
			"cache":    "ok",
			"upstream": "ok",
		},
	})
}
