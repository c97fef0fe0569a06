package main

import (
	"github.com/lux23/settings-service/internal/config"
	"github.com/lux23/settings-service/internal/handlers"
	"github.com/lux23/settings-service/internal/middleware"
	"github.com/lux23/settings-service/internal/models"
	"github.com/lux23/settings-service/internal/services"
	"github.com/lux23/settings-service/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	rotationService *services.RotationService
	adminLimiter    *middleware.RateLimiter
	settingsHandler *handlers.SettingsHandler
	rotationHandler *handlers.RotationHandler
	healthHandler   *handlers.HealthHandler
	metricsHandler  *handlers.MetricsHandler
}

// bootstrap initializes all application dependencies: database, services, scheduler.
func bootstrap(cfg *config.Config) *appServices {
	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	gate := services.NewAccessGate(cfg.Admin)
	if !gate.Configured() {
		logger.Warn().Msg("No admin PIN configured; every admin update will be rejected")
	}

	catalog := services.NewSupportLineCatalog(cfg.SupportLines)
	settingsService := services.NewSettingsService(models.GetDB(), gate, catalog, cfg.Database.QueryTimeout)
	rotationService := services.NewRotationService(settingsService)

	if cfg.Rotation.SchedulerEnabled {
		if err := rotationService.StartScheduler(cfg.Rotation.Schedule); err != nil {
			logger.Fatalf("Failed to start rotation scheduler: %v", err)
		}
	}

	logger.Info().
		Str("driver", cfg.Database.Driver).
		Int("support_lines", catalog.Len()).
		Bool("rotation_scheduler", cfg.Rotation.SchedulerEnabled).
		Msg("Services initialized")

	return &appServices{
		rotationService: rotationService,
		adminLimiter:    middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		settingsHandler: handlers.NewSettingsHandler(settingsService, rotationService, gate),
		rotationHandler: handlers.NewRotationHandler(rotationService),
		healthHandler:   handlers.NewHealthHandler(models.GetDB()),
		metricsHandler:  handlers.NewMetricsHandler(models.GetDB()),
	}
}

// shutdown gracefully stops background work and closes the database.
func (s *appServices) shutdown() {
	s.rotationService.StopScheduler()
	s.adminLimiter.Stop()
	logger.Info().Msg("Rotation scheduler stopped")

	if sqlDB, err := models.GetDB().DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close database")
		}
	}
}
