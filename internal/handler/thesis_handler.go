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

// ThesisHandler exposes thesis lifecycle endpoints.
type ThesisHandler struct {
	theses   *service.ThesisService
	students *service.StudentService
	limits   config.StorageConfig
}

// NewThesisHandler constructs ThesisHandler.
func NewThesisHandler(theses *service.ThesisService, students *service.StudentService, limits config.StorageConfig) *ThesisHandler {
	return &ThesisHandler{theses: theses, students: students, limits: limits}
}

// List godoc
// @Summary List theses
// @Tags Theses
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param supervisorId query string false "Filter by supervisor"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /thesis [get]
func (h *ThesisHandler) List(c *gin.Context) {
	var filter models.ThesisFilter
	filter.StudentID = c.Query("studentId")
	filter.SupervisorID = c.Query("supervisorId")
	if status := c.Query("status"); status != "" {
		v := models.ThesisStatus(strings.ToUpper(status))
		filter.Status = &v
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	theses, pagination, err := h.theses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, theses, pagination)
}

// Get godoc
// @Summary Get thesis detail
// @Tags Theses
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Router /thesis/{id} [get]
func (h *ThesisHandler) Get(c *gin.Context) {
	thesis, err := h.theses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thesis, nil)
}

// Create godoc
// @Summary Create thesis draft
// @Description Students create drafts for themselves; staff pass studentId
// @Tags Theses
// @Accept json
// @Produce json
// @Param studentId query string false "Student ID (staff only)"
// @Param payload body models.CreateThesisRequest true "Thesis payload"
// @Success 201 {object} response.Envelope
// @Router /thesis [post]
func (h *ThesisHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	studentID := c.Query("studentId")
	if claims.Role == models.RoleStudent {
		student, err := h.students.GetByUserID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		studentID = student.ID
	}
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}

	thesis, err := h.theses.Create(c.Request.Context(), studentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, thesis)
}

// Update godoc
// @Summary Update thesis
// @Description Editable only while in DRAFT or REVISION_NEEDED
// @Tags Theses
// @Accept json
// @Produce json
// @Param id path string true "Thesis ID"
// @Param payload body models.UpdateThesisRequest true "Thesis payload"
// @Success 200 {object} response.Envelope
// @Router /thesis/{id} [put]
func (h *ThesisHandler) Update(c *gin.Context) {
	var req models.UpdateThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	thesis, err := h.theses.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thesis, nil)
}

// Submit godoc
// @Summary Submit thesis for review
// @Tags Theses
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /thesis/{id}/submit [post]
func (h *ThesisHandler) Submit(c *gin.Context) {
	thesis, err := h.theses.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thesis, nil)
}

// Decide godoc
// @Summary Record a review decision
// @Description Revision requests and rejections require a note
// @Tags Theses
// @Accept json
// @Produce json
// @Param id path string true "Thesis ID"
// @Param payload body models.ThesisDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /thesis/{id}/status [patch]
func (h *ThesisHandler) Decide(c *gin.Context) {
	var req models.ThesisDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	thesis, err := h.theses.Decide(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thesis, nil)
}

// UploadDocuments godoc
// @Summary Attach thesis documents
// @Tags Theses
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Thesis ID"
// @Param files formData file true "Documents"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /thesis/{id}/documents [post]
func (h *ThesisHandler) UploadDocuments(c *gin.Context) {
	uploads, closer, err := formUploads(c, h.limits)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closer()

	thesis, err := h.theses.AttachDocuments(c.Request.Context(), c.Param("id"), uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thesis, nil)
}

// Delete godoc
// @Summary Delete thesis draft
// @Tags Theses
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 204
// @Router /thesis/{id} [delete]
func (h *ThesisHandler) Delete(c *gin.Context) {
	if err := h.theses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
