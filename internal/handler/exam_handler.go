package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushq/records-api/internal/models"
	"github.com/campushq/records-api/internal/service"
	"github.com/campushq/records-api/pkg/config"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/response"
)

// ExamHandler exposes exam scheduling endpoints.
type ExamHandler struct {
	exams  *service.ExamService
	limits config.StorageConfig
}

// NewExamHandler constructs ExamHandler.
func NewExamHandler(exams *service.ExamService, limits config.StorageConfig) *ExamHandler {
	return &ExamHandler{exams: exams, limits: limits}
}

// List godoc
// @Summary List exams
// @Tags Exams
// @Produce json
// @Param search query string false "Search by title or course"
// @Param courseCode query string false "Filter by course code"
// @Param status query string false "Filter by status"
// @Param facultyId query string false "Filter by invigilating faculty"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	var filter models.ExamFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.CourseCode = c.Query("courseCode")
	filter.FacultyID = c.Query("facultyId")
	if status := c.Query("status"); status != "" {
		v := models.ExamStatus(strings.ToUpper(status))
		filter.Status = &v
	}
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
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	exams, pagination, err := h.exams.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, pagination)
}

// Get godoc
// @Summary Get exam detail
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	exam, err := h.exams.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Create godoc
// @Summary Schedule an exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body models.CreateExamRequest true "Exam payload"
// @Success 201 {object} response.Envelope
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	var req models.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// Update godoc
// @Summary Update exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body models.UpdateExamRequest true "Exam payload"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [put]
func (h *ExamHandler) Update(c *gin.Context) {
	var req models.UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// UpdateStatus godoc
// @Summary Transition exam status
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body models.UpdateExamStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exams/{id}/status [patch]
func (h *ExamHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateExamStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// UploadMaterials godoc
// @Summary Attach exam materials
// @Tags Exams
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Exam ID"
// @Param files formData file true "Materials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exams/{id}/materials [post]
func (h *ExamHandler) UploadMaterials(c *gin.Context) {
	uploads, closer, err := formUploads(c, h.limits)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closer()

	exam, err := h.exams.AttachMaterials(c.Request.Context(), c.Param("id"), uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Delete godoc
// @Summary Delete exam
// @Description Only scheduled or cancelled exams can be removed
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 204
// @Router /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	if err := h.exams.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
