package router

import (
	"github.com/gin-gonic/gin"

	"github.com/JimEastburn/class-registration-system-sub001/internal/handler"
	"github.com/JimEastburn/class-registration-system-sub001/internal/middleware"
	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	"github.com/JimEastburn/class-registration-system-sub001/internal/repository"
	"github.com/JimEastburn/class-registration-system-sub001/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthService *service.AuthService
	Metrics     *service.MetricsService
	AuditLogs   *repository.AuditLogRepository

	AuthHandler       *handler.AuthHandler
	AuditHandler      *handler.AuditHandler
	OfferingHandler   *handler.OfferingHandler
	EnrollmentHandler *handler.EnrollmentHandler
	BlockHandler      *handler.BlockHandler
	PaymentHandler    *handler.PaymentHandler
	StudentHandler    *handler.StudentHandler
	ScheduleHandler   *handler.ScheduleHandler
	MetricsHandler    *handler.MetricsHandler
}

// Register wires the HTTP routes into the gin engine. apiPrefix scopes the
// versioned API; observability endpoints stay at the root.
func Register(r *gin.Engine, apiPrefix string, deps Dependencies) {
	if deps.MetricsHandler != nil {
		r.GET("/health", deps.MetricsHandler.Health)
		r.GET("/ready", deps.MetricsHandler.Ready)
		r.GET("/metrics", deps.MetricsHandler.Prometheus)
	}

	api := r.Group(apiPrefix)
	authed := middleware.JWT(deps.AuthService)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.AuthHandler.Login)
		auth.POST("/refresh", deps.AuthHandler.Refresh)
		auth.POST("/logout", authed, deps.AuthHandler.Logout)
	}

	offerings := api.Group("/offerings")
	{
		offerings.GET("", deps.OfferingHandler.List)
		offerings.GET("/:id", deps.OfferingHandler.Get)
		offerings.GET("/:id/seats", deps.OfferingHandler.Seats)
		offerings.GET("/:id/waitlist", authed, staffOnly, deps.OfferingHandler.Waitlist)
	}

	api.GET("/schedule/validate", deps.ScheduleHandler.ValidateSlot)

	students := api.Group("/students", authed)
	{
		students.GET("", deps.StudentHandler.ListMine)
		students.POST("", deps.StudentHandler.Create)
		students.GET("/:id", deps.StudentHandler.Get)
	}

	enrollments := api.Group("/enrollments", authed)
	{
		enrollments.GET("", deps.EnrollmentHandler.List)
		enrollments.POST("", deps.EnrollmentHandler.Enroll)
		enrollments.GET("/:id", deps.EnrollmentHandler.Get)
		enrollments.DELETE("/:id", deps.EnrollmentHandler.Cancel)
		enrollments.POST("/:id/checkout", deps.PaymentHandler.Checkout)
		enrollments.GET("/:id/payment", deps.PaymentHandler.Get)
	}

	admin := api.Group("/admin", authed, adminOnly)
	{
		admin.POST("/offerings", deps.OfferingHandler.Create)
		admin.PUT("/offerings/:id", deps.OfferingHandler.Update)
		admin.DELETE("/offerings/:id", deps.OfferingHandler.Delete)
		admin.POST("/offerings/:id/publish", deps.OfferingHandler.Publish)
		admin.POST("/offerings/:id/cancel", deps.OfferingHandler.Cancel)
		admin.POST("/offerings/:id/complete", deps.OfferingHandler.Complete)
		admin.POST("/offerings/:id/reconcile", deps.EnrollmentHandler.Reconcile)

		admin.POST("/enrollments/force", deps.EnrollmentHandler.ForceEnroll)

		admin.GET("/offerings/:id/blocks", deps.BlockHandler.List)
		admin.POST("/enrollment-blocks", deps.BlockHandler.Create)
		admin.DELETE("/offerings/:id/blocks/:studentId", deps.BlockHandler.Remove)

		admin.GET("/schedule/conflicts", deps.ScheduleHandler.Conflicts)

		admin.GET("/audit/:resource/:id", deps.AuditHandler.List)
	}

	webhooks := api.Group("/webhooks/payments")
	if deps.AuditLogs != nil {
		webhooks.Use(middleware.Audit(deps.AuditLogs, "PAYMENT_CALLBACK", "payments"))
	}
	{
		webhooks.POST("/completed", deps.PaymentHandler.Completed)
		webhooks.POST("/refunded", deps.PaymentHandler.Refunded)
	}
}
