package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushq/records-api/internal/models"
	"github.com/campushq/records-api/internal/service"
	"github.com/campushq/records-api/pkg/response"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	audits *service.AuditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audits *service.AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// List godoc
// @Summary List audit entries
// @Tags Audit
// @Produce json
// @Param action query string false "Filter by action"
// @Param resource query string false "Filter by resource"
// @Param userId query string false "Filter by actor"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	var filter models.AuditFilter
	filter.Action = strings.ToUpper(c.Query("action"))
	filter.Resource = c.Query("resource")
	filter.UserID = c.Query("userId")
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &t
		}
	}
	filter.Page, filter.PageSize = pageParams(c)

	logs, pagination, err := h.audits.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
