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

// AdmissionHandler exposes admission pipeline endpoints.
type AdmissionHandler struct {
	admissions *service.AdmissionService
	limits     config.StorageConfig
}

// NewAdmissionHandler constructs AdmissionHandler.
func NewAdmissionHandler(admissions *service.AdmissionService, limits config.StorageConfig) *AdmissionHandler {
	return &AdmissionHandler{admissions: admissions, limits: limits}
}

// List godoc
// @Summary List admission applications
// @Tags Admissions
// @Produce json
// @Param search query string false "Search by applicant, application number or email"
// @Param status query string false "Filter by stage"
// @Param program query string false "Filter by program"
// @Param department query string false "Filter by department"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admissions [get]
func (h *AdmissionHandler) List(c *gin.Context) {
	var filter models.AdmissionFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Program = c.Query("program")
	filter.Department = c.Query("department")
	if status := c.Query("status"); status != "" {
		v := models.AdmissionStatus(strings.ToUpper(status))
		filter.Status = &v
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	admissions, pagination, err := h.admissions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admissions, pagination)
}

// Get godoc
// @Summary Get application detail
// @Tags Admissions
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /admissions/{id} [get]
func (h *AdmissionHandler) Get(c *gin.Context) {
	admission, err := h.admissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admission, nil)
}

// Submit godoc
// @Summary Submit admission application
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body models.CreateAdmissionRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Router /admissions [post]
func (h *AdmissionHandler) Submit(c *gin.Context) {
	var req models.CreateAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admission, err := h.admissions.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admission)
}

// BulkSubmit godoc
// @Summary Submit applications in bulk
// @Description Processes applications concurrently and reports per-item results
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body models.BulkAdmissionRequest true "Applications payload"
// @Success 200 {object} response.Envelope
// @Router /admissions/bulk [post]
func (h *AdmissionHandler) BulkSubmit(c *gin.Context) {
	var req models.BulkAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.admissions.BulkSubmit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// UpdateStatus godoc
// @Summary Move application through the pipeline
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.UpdateAdmissionStatusRequest true "Stage payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admissions/{id}/status [patch]
func (h *AdmissionHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateAdmissionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admission, err := h.admissions.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admission, nil)
}

// Enroll godoc
// @Summary Enroll an approved applicant
// @Description Provisions the student record and user account for an approved application
// @Tags Admissions
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admissions/{id}/enroll [post]
func (h *AdmissionHandler) Enroll(c *gin.Context) {
	admission, err := h.admissions.Enroll(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admission, nil)
}

// UploadDocuments godoc
// @Summary Attach application documents
// @Tags Admissions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Application ID"
// @Param files formData file true "Documents"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admissions/{id}/documents [post]
func (h *AdmissionHandler) UploadDocuments(c *gin.Context) {
	uploads, closer, err := formUploads(c, h.limits)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closer()

	admission, err := h.admissions.AttachDocuments(c.Request.Context(), c.Param("id"), uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admission, nil)
}
