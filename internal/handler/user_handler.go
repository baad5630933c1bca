package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maminech/smartkid-api/internal/models"
	"github.com/maminech/smartkid-api/internal/service"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
	"github.com/maminech/smartkid-api/pkg/response"
)

// UserHandler exposes profile and admin user endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /users/me [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), callerFromContext(c).UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// ChangePassword godoc
// @Summary Change own password
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ChangePasswordRequest true "Password payload"
// @Success 204 {object} response.Envelope
// @Router /users/me/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), callerFromContext(c).UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	users, pagination, err := h.users.List(c.Request.Context(), callerFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Create godoc
// @Summary Create user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Router /admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.users.Create(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}
