package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushq/records-api/internal/models"
	"github.com/campushq/records-api/internal/service"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/response"
)

// FeeHandler exposes fee and payment endpoints.
type FeeHandler struct {
	fees *service.FeeService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees *service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// List godoc
// @Summary List fees
// @Tags Fees
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	var filter models.FeeFilter
	filter.StudentID = c.Query("studentId")
	if status := c.Query("status"); status != "" {
		v := models.FeeStatus(strings.ToUpper(status))
		filter.Status = &v
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	fees, pagination, err := h.fees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, pagination)
}

// Get godoc
// @Summary Get fee detail
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [get]
func (h *FeeHandler) Get(c *gin.Context) {
	fee, err := h.fees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Create godoc
// @Summary Create fee
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body models.CreateFeeRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /fees [post]
func (h *FeeHandler) Create(c *gin.Context) {
	var req models.CreateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// Update godoc
// @Summary Update fee
// @Description Only pending or overdue fees can be edited
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body models.UpdateFeeRequest true "Fee payload"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [put]
func (h *FeeHandler) Update(c *gin.Context) {
	var req models.UpdateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// RecordPayment godoc
// @Summary Record a payment
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body models.RecordPaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fees/{id}/payments [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	var req models.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// ApplyLateFee godoc
// @Summary Apply a late fee surcharge
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body models.ApplyLateFeeRequest true "Late fee payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fees/{id}/late-fee [post]
func (h *FeeHandler) ApplyLateFee(c *gin.Context) {
	var req models.ApplyLateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.ApplyLateFee(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Waive godoc
// @Summary Waive a fee
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fees/{id}/waive [post]
func (h *FeeHandler) Waive(c *gin.Context) {
	fee, err := h.fees.Waive(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// MarkOverdue godoc
// @Summary Mark a fee overdue
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fees/{id}/overdue [post]
func (h *FeeHandler) MarkOverdue(c *gin.Context) {
	fee, err := h.fees.MarkOverdue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Receipt godoc
// @Summary Download payment receipt
// @Description Renders a PDF receipt for a fully paid fee
// @Tags Fees
// @Produce application/pdf
// @Param id path string true "Fee ID"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /fees/{id}/receipt [get]
func (h *FeeHandler) Receipt(c *gin.Context) {
	pdf, err := h.fees.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"receipt-%s.pdf\"", c.Param("id")))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Delete godoc
// @Summary Delete fee
// @Description Only pending fees with no recorded payments can be removed
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 204
// @Router /fees/{id} [delete]
func (h *FeeHandler) Delete(c *gin.Context) {
	if err := h.fees.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
