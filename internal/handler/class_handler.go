package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maminech/smartkid-api/internal/service"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
	"github.com/maminech/smartkid-api/pkg/response"
)

// ClassHandler exposes class and activity endpoints.
type ClassHandler struct {
	classes *service.ClassService
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// List godoc
// @Summary List classes visible to the caller
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	classes, err := h.classes.List(c.Request.Context(), callerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Create godoc
// @Summary Create class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// ListActivities godoc
// @Summary List activities, optionally scoped to a class
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param classId query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *ClassHandler) ListActivities(c *gin.Context) {
	activities, err := h.classes.ListActivities(c.Request.Context(), c.Query("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil)
}

// CreateActivity godoc
// @Summary Create class activity
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Router /activities [post]
func (h *ClassHandler) CreateActivity(c *gin.Context) {
	var req service.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	activity, err := h.classes.CreateActivity(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}
