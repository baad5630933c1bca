package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maminech/smartkid-api/internal/service"
	"github.com/maminech/smartkid-api/pkg/response"
)

// AdminHandler exposes the admin stats endpoints.
type AdminHandler struct {
	stats *service.StatsService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(stats *service.StatsService) *AdminHandler {
	return &AdminHandler{stats: stats}
}

// Stats godoc
// @Summary Platform-wide statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.AdminStats(c.Request.Context(), callerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// RefreshStats godoc
// @Summary Recompute the statistics snapshot
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/stats/refresh [post]
func (h *AdminHandler) RefreshStats(c *gin.Context) {
	h.stats.Invalidate(c.Request.Context())
	stats, err := h.stats.AdminStats(c.Request.Context(), callerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
