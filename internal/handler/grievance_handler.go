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

// GrievanceHandler exposes grievance endpoints. Every operation carries the
// caller identity so the service can enforce ownership and anonymity.
type GrievanceHandler struct {
	grievances *service.GrievanceService
	limits     config.StorageConfig
}

// NewGrievanceHandler constructs GrievanceHandler.
func NewGrievanceHandler(grievances *service.GrievanceService, limits config.StorageConfig) *GrievanceHandler {
	return &GrievanceHandler{grievances: grievances, limits: limits}
}

// List godoc
// @Summary List grievances
// @Tags Grievances
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param priority query string false "Filter by priority"
// @Param submittedBy query string false "Filter by submitter"
// @Param assignedTo query string false "Filter by assignee"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /grievances [get]
func (h *GrievanceHandler) List(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.GrievanceFilter
	filter.Category = c.Query("category")
	filter.Priority = strings.ToUpper(c.Query("priority"))
	filter.SubmittedBy = c.Query("submittedBy")
	filter.AssignedTo = c.Query("assignedTo")
	if status := c.Query("status"); status != "" {
		v := models.GrievanceStatus(strings.ToUpper(status))
		filter.Status = &v
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	grievances, pagination, err := h.grievances.List(c.Request.Context(), filter, viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grievances, pagination)
}

// Get godoc
// @Summary Get grievance detail
// @Tags Grievances
// @Produce json
// @Param id path string true "Grievance ID"
// @Success 200 {object} response.Envelope
// @Router /grievances/{id} [get]
func (h *GrievanceHandler) Get(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	grievance, err := h.grievances.Get(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grievance, nil)
}

// Submit godoc
// @Summary Submit grievance
// @Tags Grievances
// @Accept json
// @Produce json
// @Param payload body models.CreateGrievanceRequest true "Grievance payload"
// @Success 201 {object} response.Envelope
// @Router /grievances [post]
func (h *GrievanceHandler) Submit(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateGrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grievance, err := h.grievances.Submit(c.Request.Context(), req, viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grievance)
}

// Update godoc
// @Summary Update grievance
// @Description Only the submitter may edit, and only while still in SUBMITTED
// @Tags Grievances
// @Accept json
// @Produce json
// @Param id path string true "Grievance ID"
// @Param payload body models.UpdateGrievanceRequest true "Grievance payload"
// @Success 200 {object} response.Envelope
// @Router /grievances/{id} [put]
func (h *GrievanceHandler) Update(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.UpdateGrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grievance, err := h.grievances.Update(c.Request.Context(), c.Param("id"), req, viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grievance, nil)
}

// Assign godoc
// @Summary Assign grievance to a committee member
// @Tags Grievances
// @Accept json
// @Produce json
// @Param id path string true "Grievance ID"
// @Param payload body models.AssignGrievanceRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grievances/{id}/assign [post]
func (h *GrievanceHandler) Assign(c *gin.Context) {
	var req models.AssignGrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grievance, err := h.grievances.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grievance, nil)
}

// UpdateStatus godoc
// @Summary Transition grievance status
// @Description Resolving requires a resolution note
// @Tags Grievances
// @Accept json
// @Produce json
// @Param id path string true "Grievance ID"
// @Param payload body models.UpdateGrievanceStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grievances/{id}/status [patch]
func (h *GrievanceHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateGrievanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grievance, err := h.grievances.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grievance, nil)
}

// UploadAttachments godoc
// @Summary Attach evidence files
// @Tags Grievances
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Grievance ID"
// @Param files formData file true "Attachments"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grievances/{id}/attachments [post]
func (h *GrievanceHandler) UploadAttachments(c *gin.Context) {
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

	grievance, err := h.grievances.AttachFiles(c.Request.Context(), c.Param("id"), uploads, viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grievance, nil)
}

// Delete godoc
// @Summary Withdraw grievance
// @Description Only the submitter may withdraw, and only while still in SUBMITTED
// @Tags Grievances
// @Produce json
// @Param id path string true "Grievance ID"
// @Success 204
// @Router /grievances/{id} [delete]
func (h *GrievanceHandler) Delete(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.grievances.Delete(c.Request.Context(), c.Param("id"), viewer); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
