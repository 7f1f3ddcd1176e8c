package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushq/records-api/internal/models"
	"github.com/campushq/records-api/internal/service"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/response"
)

// FacultyHandler exposes faculty record endpoints.
type FacultyHandler struct {
	faculty *service.FacultyService
}

// NewFacultyHandler constructs FacultyHandler.
func NewFacultyHandler(faculty *service.FacultyService) *FacultyHandler {
	return &FacultyHandler{faculty: faculty}
}

// List godoc
// @Summary List faculty
// @Tags Faculty
// @Produce json
// @Param search query string false "Search by name, email or employee ID"
// @Param department query string false "Filter by department"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /faculty [get]
func (h *FacultyHandler) List(c *gin.Context) {
	var filter models.FacultyFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Department = c.Query("department")
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	faculty, pagination, err := h.faculty.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, pagination)
}

// Get godoc
// @Summary Get faculty detail
// @Tags Faculty
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [get]
func (h *FacultyHandler) Get(c *gin.Context) {
	member, err := h.faculty.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Create godoc
// @Summary Create faculty member
// @Description Provision a faculty record with a linked user account
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body models.CreateFacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /faculty [post]
func (h *FacultyHandler) Create(c *gin.Context) {
	var req models.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.faculty.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Update godoc
// @Summary Update faculty member
// @Tags Faculty
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body models.UpdateFacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [put]
func (h *FacultyHandler) Update(c *gin.Context) {
	var req models.UpdateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.faculty.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Delete godoc
// @Summary Deactivate faculty member
// @Tags Faculty
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 204
// @Router /faculty/{id} [delete]
func (h *FacultyHandler) Delete(c *gin.Context) {
	if err := h.faculty.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
