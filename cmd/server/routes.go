package main

import (
	"github.com/gin-gonic/gin"
	"github.com/lux23/settings-service/internal/config"
	"github.com/lux23/settings-service/internal/middleware"
	"github.com/lux23/settings-service/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	// Middleware
	r.Use(middleware.RequestID(), logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(cfg.Server.AllowOrigins))

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", svc.metricsHandler.Metrics)

	api := r.Group("/api")
	{
		// Public reads; each one may trigger a due rotation
		api.GET("/settings", svc.settingsHandler.GetSettings)
		api.GET("/rotation", svc.rotationHandler.GetRotation)
		api.GET("/support-lines", svc.settingsHandler.GetSupportLines)

		// PIN-guarded admin routes
		admin := api.Group("/admin", svc.adminLimiter.Middleware(), middleware.AuditLog())
		{
			admin.POST("/verify", svc.settingsHandler.VerifyPin)
			admin.PUT("/settings", svc.settingsHandler.UpdateSettings)
			admin.POST("/settings", svc.settingsHandler.UpdateSettings)
		}
	}
}
