package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lux23/settings-service/internal/models"
	"github.com/lux23/settings-service/pkg/logger"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the backing store is reachable and the
// settings row exists.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) CheckHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	settingsStatus := "unknown"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.Error().Err(err).Msg("[Health] database ping failed")
		dbStatus = "error"
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		var count int64
		if err := h.db.WithContext(ctx).Model(&models.Settings{}).Where("id = ?", models.SettingsID).Count(&count).Error; err != nil {
			logger.Error().Err(err).Msg("[Health] settings lookup failed")
			settingsStatus = "error"
			overall = "degraded"
		} else if count == 0 {
			settingsStatus = "not provisioned"
			overall = "degraded"
		} else {
			settingsStatus = "ok"
		}
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "settings-service",
		"components": gin.H{
			"database": dbStatus,
			"settings": settingsStatus,
		},
	})
}
