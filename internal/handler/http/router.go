package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sudo-mko/Libsys/internal/domain/models"
	"github.com/sudo-mko/Libsys/internal/domain/repository"
	"github.com/sudo-mko/Libsys/internal/handler/http/middleware"
	"github.com/sudo-mko/Libsys/internal/service"
	"github.com/sudo-mko/Libsys/internal/utils/jwt"
)

// RouterDeps carries everything the router wires into handlers.
type RouterDeps struct {
	Auth         *service.AuthService
	Sessions     *service.SessionService
	Lockout      *service.LockoutService
	Policy       *service.PasswordPolicyService
	Borrowings   *service.BorrowingService
	Reservations *service.ReservationService
	Fines        *service.FineService
	Settings     *service.SettingsService
	Users        repository.UserRepository
	AuditLogs    repository.AuditLogRepository
	Tokens       *jwt.TokenManager
	Logger       *zap.Logger
}

// SetupRouter builds the HTTP routing table.
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.MetricsMiddleware())

	authHandler := NewAuthHandler(deps.Auth, deps.Logger)
	borrowingHandler := NewBorrowingHandler(deps.Borrowings, deps.Logger)
	reservationHandler := NewReservationHandler(deps.Reservations, deps.Logger)
	fineHandler := NewFineHandler(deps.Fines, deps.Logger)
	adminHandler := NewAdminHandler(deps.Lockout, deps.Policy, deps.Sessions,
		deps.Borrowings, deps.Reservations, deps.Settings, deps.AuditLogs, deps.Logger)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/readiness", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(deps.Tokens, deps.Sessions, deps.Logger))
		protected.Use(middleware.ForcePasswordChangeMiddleware(deps.Users, deps.Policy, deps.Logger))
		{
			protected.POST("/auth/logout", authHandler.Logout)
			protected.POST("/auth/change-password", authHandler.ChangePassword)

			borrowings := protected.Group("/borrowings")
			{
				borrowings.POST("", middleware.RequireCapability(models.CapBorrowBooks, deps.Logger), borrowingHandler.Request)
				borrowings.GET("", borrowingHandler.List)
				borrowings.POST("/:id/cancel", middleware.RequireCapability(models.CapBorrowBooks, deps.Logger), borrowingHandler.Cancel)
				borrowings.POST("/:id/extension", middleware.RequireCapability(models.CapRequestExtension, deps.Logger), borrowingHandler.RequestExtension)

				borrowings.POST("/:id/approve", middleware.RequireCapability(models.CapApproveBorrowings, deps.Logger), borrowingHandler.Approve)
				borrowings.POST("/:id/reject", middleware.RequireCapability(models.CapApproveBorrowings, deps.Logger), borrowingHandler.Reject)
				borrowings.POST("/pickup", middleware.RequireCapability(models.CapRecordReturns, deps.Logger), borrowingHandler.Pickup)
				borrowings.POST("/:id/return", middleware.RequireCapability(models.CapRecordReturns, deps.Logger), borrowingHandler.Return)
				borrowings.POST("/:id/damaged", middleware.RequireCapability(models.CapManageFines, deps.Logger), borrowingHandler.ReportDamaged)
			}

			extensions := protected.Group("/extensions")
			extensions.Use(middleware.RequireCapability(models.CapApproveExtensions, deps.Logger))
			{
				extensions.POST("/:id/approve", borrowingHandler.ApproveExtension)
				extensions.POST("/:id/reject", borrowingHandler.RejectExtension)
			}

			reservations := protected.Group("/reservations")
			{
				reservations.POST("", middleware.RequireCapability(models.CapReserveBooks, deps.Logger), reservationHandler.Reserve)
				reservations.GET("", reservationHandler.List)
				reservations.POST("/:id/cancel", middleware.RequireCapability(models.CapReserveBooks, deps.Logger), reservationHandler.Cancel)
				reservations.POST("/:id/approve", middleware.RequireCapability(models.CapApproveReservations, deps.Logger), reservationHandler.Approve)
				reservations.POST("/:id/reject", middleware.RequireCapability(models.CapApproveReservations, deps.Logger), reservationHandler.Reject)
			}

			fines := protected.Group("/fines")
			{
				fines.GET("", fineHandler.ListUnpaid)
				fines.POST("/:id/pay", middleware.RequireCapability(models.CapManageFines, deps.Logger), fineHandler.Pay)
			}

			admin := protected.Group("/admin")
			{
				users := admin.Group("/users")
				users.Use(middleware.RequireCapability(models.CapManageUsers, deps.Logger))
				{
					users.POST("/:user_id/lock", adminHandler.LockUser)
					users.POST("/:user_id/unlock", adminHandler.UnlockUser)
					users.POST("/:user_id/force-password-change", adminHandler.ForcePasswordChange)
				}

				settings := admin.Group("/settings")
				settings.Use(middleware.RequireCapability(models.CapManageSettings, deps.Logger))
				{
					settings.GET("", adminHandler.ListSettings)
					settings.PUT("/:key", adminHandler.UpdateSetting)
				}

				admin.GET("/audit-logs", middleware.RequireCapability(models.CapViewAuditLog, deps.Logger), adminHandler.ListAuditLogs)
				admin.POST("/maintenance/sweep", middleware.RequireCapability(models.CapManageSettings, deps.Logger), adminHandler.RunSweeps)
			}
		}
	}

	return router
}
