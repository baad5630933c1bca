package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maminech/smartkid-api/internal/service"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
	"github.com/maminech/smartkid-api/pkg/response"
)

// RoadmapHandler exposes roadmap template, assignment and progress
// endpoints.
type RoadmapHandler struct {
	roadmaps *service.RoadmapService
}

// NewRoadmapHandler constructs RoadmapHandler.
func NewRoadmapHandler(roadmaps *service.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{roadmaps: roadmaps}
}

// ListTemplates godoc
// @Summary List roadmap templates
// @Tags Roadmaps
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /roadmap/templates [get]
func (h *RoadmapHandler) ListTemplates(c *gin.Context) {
	templates, err := h.roadmaps.ListTemplates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// CreateTemplate godoc
// @Summary Create roadmap template
// @Tags Roadmaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /roadmap/templates [post]
func (h *RoadmapHandler) CreateTemplate(c *gin.Context) {
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	template, err := h.roadmaps.CreateTemplate(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, template)
}

// ListStages godoc
// @Summary List a template's stages in order
// @Tags Roadmaps
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Router /roadmap/templates/{id}/stages [get]
func (h *RoadmapHandler) ListStages(c *gin.Context) {
	stages, err := h.roadmaps.ListStages(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stages, nil)
}

// CreateStage godoc
// @Summary Append a stage to a template
// @Tags Roadmaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateStageRequest true "Stage payload"
// @Success 201 {object} response.Envelope
// @Router /roadmap/stages [post]
func (h *RoadmapHandler) CreateStage(c *gin.Context) {
	var req service.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	stage, err := h.roadmaps.CreateStage(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, stage)
}

// Assign godoc
// @Summary Start a student on a roadmap template
// @Tags Roadmaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AssignRoadmapRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /student-roadmaps [post]
func (h *RoadmapHandler) Assign(c *gin.Context) {
	var req service.AssignRoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	roadmap, err := h.roadmaps.Assign(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, roadmap)
}

// GetStudentRoadmap godoc
// @Summary Get a student's roadmap with stages and progress
// @Tags Roadmaps
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/roadmap [get]
func (h *RoadmapHandler) GetStudentRoadmap(c *gin.Context) {
	detail, err := h.roadmaps.GetStudentRoadmap(c.Request.Context(), callerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListProgress godoc
// @Summary List recorded progress for a student roadmap
// @Tags Roadmaps
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student roadmap ID"
// @Success 200 {object} response.Envelope
// @Router /student-roadmaps/{id}/progress [get]
func (h *RoadmapHandler) ListProgress(c *gin.Context) {
	progress, err := h.roadmaps.ListProgress(c.Request.Context(), callerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// UpdateProgress godoc
// @Summary Record progress on a roadmap stage
// @Tags Roadmaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateProgressRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Router /stage-progress [put]
func (h *RoadmapHandler) UpdateProgress(c *gin.Context) {
	var req service.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	progress, err := h.roadmaps.UpdateProgress(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
