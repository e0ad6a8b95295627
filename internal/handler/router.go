package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/joyandrew-github/CampusLink-Backend/internal/middleware"
	"github.com/joyandrew-github/CampusLink-Backend/internal/models"
	"github.com/joyandrew-github/CampusLink-Backend/internal/repository"
	"github.com/joyandrew-github/CampusLink-Backend/internal/service"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	AuthService     *service.AuthService
	MetricsService  *service.MetricsService
	UserRepo        *repository.UserRepository
	Auth            *AuthHandler
	Users           *UserHandler
	Timetable       *TimetableHandler
	Announcements   *AnnouncementHandler
	Complaints      *ComplaintHandler
	Metrics         *MetricsHandler
	APIPrefix       string
	EnableSwaggerUI bool
}

// RegisterRoutes mounts the full API surface on the engine.
func RegisterRoutes(r *gin.Engine, deps RouterDeps) {
	r.Use(middleware.Metrics(deps.MetricsService))

	r.GET("/health", deps.Metrics.Health)
	r.GET("/ready", deps.Metrics.Health)
	r.GET("/metrics", deps.Metrics.Prometheus)

	if deps.EnableSwaggerUI {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/refresh", deps.Auth.Refresh)
		auth.POST("/register/admin", deps.Auth.RegisterAdmin)

		authed := auth.Group("")
		authed.Use(middleware.JWT(deps.AuthService))
		{
			authed.POST("/logout", deps.Auth.Logout)
			authed.GET("/me", deps.Auth.Me)
			authed.POST("/register/student",
				middleware.RequireRoles(models.RoleAdmin),
				deps.Auth.RegisterStudent,
			)
		}
	}

	users := api.Group("/users")
	users.Use(middleware.JWT(deps.AuthService))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), deps.Users.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), deps.Users.Get)
		users.PUT("/:id",
			middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(deps.UserRepo, models.AuditActionUserUpdate, "users"),
			deps.Users.Update,
		)
		users.DELETE("/:id",
			middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(deps.UserRepo, models.AuditActionUserDelete, "users"),
			deps.Users.Delete,
		)
	}

	timetable := api.Group("/timetable")
	timetable.Use(middleware.JWT(deps.AuthService))
	{
		timetable.GET("", deps.Timetable.Get)
		timetable.GET("/export", deps.Timetable.Export)
		timetable.GET("/students/:id",
			middleware.RequireRoles(models.RoleAdmin),
			deps.Timetable.GetForStudent,
		)

		classes := timetable.Group("/classes")
		{
			classes.POST("",
				middleware.Audit(deps.UserRepo, models.AuditActionClassAdd, "timetable"),
				deps.Timetable.AddClass,
			)
			classes.PUT("/:id",
				middleware.Audit(deps.UserRepo, models.AuditActionClassEdit, "timetable"),
				deps.Timetable.EditClass,
			)
			classes.DELETE("/:id",
				middleware.Audit(deps.UserRepo, models.AuditActionClassDelete, "timetable"),
				deps.Timetable.DeleteClass,
			)
			classes.PATCH("/:id/status",
				middleware.RequireRoles(models.RoleAdmin),
				middleware.Audit(deps.UserRepo, models.AuditActionClassStatusUpdate, "timetable"),
				deps.Timetable.UpdateClassStatus,
			)
		}
	}

	announcements := api.Group("/announcements")
	announcements.Use(middleware.JWT(deps.AuthService))
	{
		announcements.GET("", deps.Announcements.List)
		announcements.GET("/:id", deps.Announcements.Get)
		announcements.POST("", middleware.RequireRoles(models.RoleAdmin), deps.Announcements.Create)
		announcements.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), deps.Announcements.Update)
		announcements.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), deps.Announcements.Delete)
	}

	complaints := api.Group("/complaints")
	complaints.Use(middleware.JWT(deps.AuthService))
	{
		complaints.POST("", deps.Complaints.Create)
		complaints.GET("", deps.Complaints.List)
		complaints.GET("/:id", deps.Complaints.Get)
		complaints.PATCH("/:id/status", middleware.RequireRoles(models.RoleAdmin), deps.Complaints.UpdateStatus)
		complaints.DELETE("/:id", deps.Complaints.Delete)
	}
}
