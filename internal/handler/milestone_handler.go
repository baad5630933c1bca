package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maminech/smartkid-api/internal/service"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
	"github.com/maminech/smartkid-api/pkg/response"
)

// MilestoneHandler exposes milestone endpoints.
type MilestoneHandler struct {
	milestones *service.MilestoneService
}

// NewMilestoneHandler constructs MilestoneHandler.
func NewMilestoneHandler(milestones *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestones: milestones}
}

// List godoc
// @Summary List milestones visible to the caller
// @Tags Milestones
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Filter by student"
// @Success 200 {object} response.Envelope
// @Router /milestones [get]
func (h *MilestoneHandler) List(c *gin.Context) {
	milestones, err := h.milestones.List(c.Request.Context(), callerFromContext(c), c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, milestones, nil)
}

// Get godoc
// @Summary Get milestone detail
// @Tags Milestones
// @Produce json
// @Security BearerAuth
// @Param id path string true "Milestone ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /milestones/{id} [get]
func (h *MilestoneHandler) Get(c *gin.Context) {
	milestone, err := h.milestones.Get(c.Request.Context(), callerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, milestone, nil)
}

// Create godoc
// @Summary Record a milestone
// @Tags Milestones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateMilestoneRequest true "Milestone payload"
// @Success 201 {object} response.Envelope
// @Router /milestones [post]
func (h *MilestoneHandler) Create(c *gin.Context) {
	var req service.CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	milestone, err := h.milestones.Create(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, milestone)
}

// Update godoc
// @Summary Update a milestone
// @Tags Milestones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Milestone ID"
// @Param payload body service.UpdateMilestoneRequest true "Milestone payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /milestones/{id} [put]
func (h *MilestoneHandler) Update(c *gin.Context) {
	var req service.UpdateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	milestone, err := h.milestones.Update(c.Request.Context(), callerFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, milestone, nil)
}
