package handlers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lux23/settings-service/internal/services"
	"gorm.io/gorm"
)

var startTime = time.Now()

// MetricsHandler serves Prometheus text-format metrics.
type MetricsHandler struct {
	db *gorm.DB
}

func NewMetricsHandler(db *gorm.DB) *MetricsHandler {
	return &MetricsHandler{db: db}
}

func (h *MetricsHandler) Metrics(c *gin.Context) {
	var b strings.Builder

	// -- Runtime metrics --
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeGauge(&b, "settings_uptime_seconds", "Time since server start in seconds", time.Since(startTime).Seconds())
	writeGauge(&b, "settings_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "settings_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))

	// -- Database metrics --
	if h.db != nil {
		if sqlDB, err := h.db.DB(); err == nil {
			stats := sqlDB.Stats()
			writeGauge(&b, "settings_db_open_connections", "Number of open DB connections", float64(stats.OpenConnections))
			writeGauge(&b, "settings_db_in_use_connections", "Number of in-use DB connections", float64(stats.InUse))
			writeGauge(&b, "settings_db_wait_count", "Connections waited for since start", float64(stats.WaitCount))
		}
	}

	// -- Domain counters --
	s := services.GetStats()
	writeCounter(&b, "settings_rotations_total", "Support-line rotations committed", s.Rotations)
	writeCounter(&b, "settings_rotation_failures_total", "Rotation commits that failed and will be retried", s.RotationFailures)
	writeCounter(&b, "settings_rotation_races_lost_total", "Rotation attempts that lost to a concurrent advance", s.RotationRacesLost)
	writeCounter(&b, "settings_updates_total", "Admin settings updates applied", s.Updates)
	writeCounter(&b, "settings_unauthorized_total", "Admin updates rejected for a bad PIN", s.Unauthorized)

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}

func writeCounter(b *strings.Builder, name, help string, value int64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s counter\n", name)
	fmt.Fprintf(b, "%s %d\n\n", name, value)
}
