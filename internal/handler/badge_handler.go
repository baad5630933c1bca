package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maminech/smartkid-api/internal/service"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
	"github.com/maminech/smartkid-api/pkg/response"
)

// BadgeHandler exposes badge template and award endpoints.
type BadgeHandler struct {
	badges *service.BadgeService
}

// NewBadgeHandler constructs BadgeHandler.
func NewBadgeHandler(badges *service.BadgeService) *BadgeHandler {
	return &BadgeHandler{badges: badges}
}

// List godoc
// @Summary List badge templates
// @Tags Badges
// @Produce json
// @Security BearerAuth
// @Param category query string false "Filter by category"
// @Success 200 {object} response.Envelope
// @Router /badges [get]
func (h *BadgeHandler) List(c *gin.Context) {
	badges, err := h.badges.ListBadges(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, badges, nil)
}

// Get godoc
// @Summary Get badge template detail
// @Tags Badges
// @Produce json
// @Security BearerAuth
// @Param id path string true "Badge ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /badges/{id} [get]
func (h *BadgeHandler) Get(c *gin.Context) {
	badge, err := h.badges.GetBadge(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, badge, nil)
}

// Create godoc
// @Summary Create badge template
// @Tags Badges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateBadgeRequest true "Badge payload"
// @Success 201 {object} response.Envelope
// @Router /badges [post]
func (h *BadgeHandler) Create(c *gin.Context) {
	var req service.CreateBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	badge, err := h.badges.CreateBadge(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, badge)
}

// ListStudentBadges godoc
// @Summary List a student's awarded badges
// @Tags Badges
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/badges [get]
func (h *BadgeHandler) ListStudentBadges(c *gin.Context) {
	awards, err := h.badges.ListStudentBadges(c.Request.Context(), callerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, awards, nil)
}

// ListAwards godoc
// @Summary List awarded badges for a student
// @Tags Badges
// @Produce json
// @Security BearerAuth
// @Param studentId query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student-badges [get]
func (h *BadgeHandler) ListAwards(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	awards, err := h.badges.ListStudentBadges(c.Request.Context(), callerFromContext(c), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, awards, nil)
}

// Award godoc
// @Summary Award a badge to a student
// @Tags Badges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AwardBadgeRequest true "Award payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student-badges [post]
func (h *BadgeHandler) Award(c *gin.Context) {
	var req service.AwardBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	award, err := h.badges.Award(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, award)
}
