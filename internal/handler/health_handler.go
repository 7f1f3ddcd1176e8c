package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/records-api/internal/service"
	"github.com/campushq/records-api/pkg/response"
)

// HealthHandler reports process dependency health.
type HealthHandler struct {
	health *service.HealthService
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(health *service.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

// Check godoc
// @Summary Health check
// @Description Probes database, storage, cache and mail
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	report := h.health.Check(c.Request.Context())
	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	response.JSON(c, status, report, nil)
}
