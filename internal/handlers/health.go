package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-events/internal/models"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	service string
	version string
}

// NewHealthHandler records the service identity reported by the probe.
func NewHealthHandler(service, version string) *HealthHandler {
	return &HealthHandler{service: service, version: version}
}

// Check reports the service as healthy. Reaching the handler is the check.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: h.service,
		Version: h.version,
	})
}
