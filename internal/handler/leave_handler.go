package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushq/records-api/internal/models"
	"github.com/campushq/records-api/internal/service"
	"github.com/campushq/records-api/pkg/config"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/response"
)

// LeaveHandler exposes leave application endpoints.
type LeaveHandler struct {
	leaves *service.LeaveService
	limits config.StorageConfig
}

// NewLeaveHandler constructs LeaveHandler.
func NewLeaveHandler(leaves *service.LeaveService, limits config.StorageConfig) *LeaveHandler {
	return &LeaveHandler{leaves: leaves, limits: limits}
}

// List godoc
// @Summary List leave applications
// @Description Non-admin callers only see their own applications
// @Tags Leaves
// @Produce json
// @Param userId query string false "Filter by applicant"
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by leave type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leaves [get]
func (h *LeaveHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.LeaveFilter
	filter.UserID = c.Query("userId")
	filter.Type = strings.ToUpper(c.Query("type"))
	if status := c.Query("status"); status != "" {
		v := models.LeaveStatus(strings.ToUpper(status))
		filter.Status = &v
	}
	// Applicants are scoped to their own records regardless of the filter.
	if claims.Role != models.RoleAdmin && claims.Role != models.RoleStaff {
		filter.UserID = claims.UserID
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	leaves, pagination, err := h.leaves.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, pagination)
}

// Get godoc
// @Summary Get leave application
// @Tags Leaves
// @Produce json
// @Param id path string true "Leave ID"
// @Success 200 {object} response.Envelope
// @Router /leaves/{id} [get]
func (h *LeaveHandler) Get(c *gin.Context) {
	leave, err := h.leaves.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// Apply godoc
// @Summary Apply for leave
// @Description Rejects applications overlapping a pending or approved one
// @Tags Leaves
// @Accept json
// @Produce json
// @Param payload body models.CreateLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	leave, err := h.leaves.Apply(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// Approve godoc
// @Summary Approve leave application
// @Tags Leaves
// @Produce json
// @Param id path string true "Leave ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leaves/{id}/approve [post]
func (h *LeaveHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	leave, err := h.leaves.Approve(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// Reject godoc
// @Summary Reject leave application
// @Description A rejection reason is mandatory
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path string true "Leave ID"
// @Param payload body models.RejectLeaveRequest true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leaves/{id}/reject [post]
func (h *LeaveHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.RejectLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	leave, err := h.leaves.Reject(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// Cancel godoc
// @Summary Cancel own pending leave application
// @Tags Leaves
// @Produce json
// @Param id path string true "Leave ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leaves/{id}/cancel [post]
func (h *LeaveHandler) Cancel(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	leave, err := h.leaves.Cancel(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// UploadAttachments godoc
// @Summary Attach supporting documents
// @Tags Leaves
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Leave ID"
// @Param files formData file true "Attachments"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leaves/{id}/attachments [post]
func (h *LeaveHandler) UploadAttachments(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	uploads, closer, err := formUploads(c, h.limits)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closer()

	leave, err := h.leaves.AttachFiles(c.Request.Context(), c.Param("id"), uploads, viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}
