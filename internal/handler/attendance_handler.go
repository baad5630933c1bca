package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maminech/smartkid-api/internal/service"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
	"github.com/maminech/smartkid-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// List godoc
// @Summary List attendance for a day
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param date query string true "Day (YYYY-MM-DD)"
// @Param classId query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	records, err := h.attendance.ListByDate(c.Request.Context(), callerFromContext(c), c.Query("date"), c.Query("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Create godoc
// @Summary Mark attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Create(c *gin.Context) {
	var req service.CreateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Create(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attendance ID"
// @Param payload body service.UpdateAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id} [put]
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req service.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Update(c.Request.Context(), callerFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
