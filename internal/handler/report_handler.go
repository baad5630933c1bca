package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maminech/smartkid-api/internal/service"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
	"github.com/maminech/smartkid-api/pkg/response"
)

// ReportHandler exposes daily report endpoints, including export.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// List godoc
// @Summary List reports visible to the caller
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Filter by student"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context(), callerFromContext(c), c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Get godoc
// @Summary Get report detail
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), callerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Create godoc
// @Summary Author a daily report
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req service.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.reports.Create(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Update godoc
// @Summary Update a daily report
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Param payload body service.UpdateReportRequest true "Report payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/{id} [put]
func (h *ReportHandler) Update(c *gin.Context) {
	var req service.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.reports.Update(c.Request.Context(), callerFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export reports as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string true "Export format (csv or pdf)"
// @Param studentId query string false "Filter by student"
// @Success 200 {file} binary
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.ExportReports(c.Request.Context(), callerFromContext(c), format, c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
