package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/maminech/smartkid-api/internal/middleware"
	"github.com/maminech/smartkid-api/internal/models"
	"github.com/maminech/smartkid-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Student    *StudentHandler
	Class      *ClassHandler
	Attendance *AttendanceHandler
	Report     *ReportHandler
	Badge      *BadgeHandler
	Milestone  *MilestoneHandler
	Roadmap    *RoadmapHandler
	Admin      *AdminHandler
}

// RegisterRoutes mounts the API surface under prefix. Everything except
// the auth endpoints sits behind the JWT middleware; route-level role
// gates refuse with 403 while record-level masking happens in services.
func RegisterRoutes(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/register", h.Auth.Register)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleDirector, models.RoleAdmin)
	teacherOrDirector := middleware.RequireRoles(models.RoleTeacher, models.RoleDirector)

	protected.GET("/users/me", h.Auth.Me)
	protected.PUT("/users/me", h.User.UpdateProfile)
	protected.PUT("/users/me/password", h.User.ChangePassword)

	protected.GET("/students", h.Student.List)
	protected.GET("/students/:id", h.Student.Get)
	protected.POST("/students", staff, h.Student.Create)
	protected.PUT("/students/:id", staff, h.Student.Update)
	protected.DELETE("/students/:id", middleware.RequireRoles(models.RoleDirector, models.RoleAdmin), h.Student.Delete)

	protected.GET("/classes", h.Class.List)
	protected.POST("/classes", middleware.RequireRoles(models.RoleDirector, models.RoleAdmin), h.Class.Create)
	protected.GET("/activities", h.Class.ListActivities)
	protected.POST("/activities", teacherOrDirector, h.Class.CreateActivity)

	protected.GET("/attendance", h.Attendance.List)
	protected.POST("/attendance", teacherOrDirector, h.Attendance.Create)
	protected.PUT("/attendance/:id", teacherOrDirector, h.Attendance.Update)

	protected.GET("/reports", h.Report.List)
	protected.GET("/reports/export", teacherOrDirector, h.Report.Export)
	protected.GET("/reports/:id", h.Report.Get)
	protected.POST("/reports", middleware.RequireRoles(models.RoleTeacher), h.Report.Create)
	protected.PUT("/reports/:id", middleware.RequireRoles(models.RoleTeacher), h.Report.Update)

	protected.GET("/badges", h.Badge.List)
	protected.GET("/badges/:id", h.Badge.Get)
	protected.POST("/badges", staff, h.Badge.Create)
	protected.GET("/students/:id/badges", h.Badge.ListStudentBadges)
	protected.GET("/student-badges", h.Badge.ListAwards)
	protected.POST("/student-badges", teacherOrDirector, h.Badge.Award)

	protected.GET("/milestones", h.Milestone.List)
	protected.GET("/milestones/:id", h.Milestone.Get)
	protected.POST("/milestones", staff, h.Milestone.Create)
	protected.PUT("/milestones/:id", staff, h.Milestone.Update)

	protected.GET("/roadmap/templates", h.Roadmap.ListTemplates)
	protected.POST("/roadmap/templates", teacherOrDirector, h.Roadmap.CreateTemplate)
	protected.GET("/roadmap/templates/:id/stages", h.Roadmap.ListStages)
	protected.POST("/roadmap/stages", teacherOrDirector, h.Roadmap.CreateStage)
	protected.POST("/student-roadmaps", teacherOrDirector, h.Roadmap.Assign)
	protected.GET("/students/:id/roadmap", h.Roadmap.GetStudentRoadmap)
	protected.GET("/student-roadmaps/:id/progress", h.Roadmap.ListProgress)
	protected.PUT("/stage-progress", teacherOrDirector, h.Roadmap.UpdateProgress)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleDirector))
	admin.GET("/stats", h.Admin.Stats)
	admin.POST("/stats/refresh", h.Admin.RefreshStats)
	admin.GET("/users", h.User.List)

	adminOnly := protected.Group("/admin")
	adminOnly.Use(middleware.RequireRoles(models.RoleAdmin))
	adminOnly.POST("/users", h.User.Create)
}
