package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mrlokans/pixeljournal/internal/logger"
	"github.com/mrlokans/pixeljournal/internal/metrics"
)

// metricsHandler refreshes the library gauges before every scrape.
func metricsHandler(db *gorm.DB) gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		if db != nil {
			if sqlDB, err := db.DB(); err == nil {
				if err := metrics.UpdateLibraryMetrics(sqlDB); err != nil {
					logger.Log.Warnw("Failed to update library metrics", "error", err)
				}
			}
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}
