package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Route groups whose dependencies are missing are not registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(UserMiddleware(cfg.DefaultUserID))

	// Health endpoints
	health := NewHealthController(cfg.Health, cfg.Fallback, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	if cfg.MetricsEnabled {
		router.GET("/metrics", metricsHandler(cfg.MetricsDB))
	}

	api := router.Group("/api")

	// Provider gateway
	if cfg.Dispatcher != nil {
		gateway := NewGatewayController(cfg.Dispatcher, cfg.Issuer, cfg.Fallback, log)
		api.GET("/search-game", gateway.SearchGame)
		api.GET("/game-details", gateway.GameDetails)
		if cfg.Issuer != nil {
			api.POST("/auth/igdb", gateway.AuthIGDB)
		}
	}

	// Library endpoints
	if cfg.Games != nil && cfg.Settings != nil && cfg.SettingsCache != nil {
		gamesController := NewGamesController(cfg.Games, cfg.Settings, cfg.SettingsCache, cfg.Enricher, cfg.TaskQueue)
		api.GET("/games", gamesController.ListGames)
		api.GET("/games/cache", gamesController.CachedGames)
		api.PATCH("/games/status", gamesController.RenameStatus)
		api.GET("/games/:id", gamesController.GetGame)
		api.DELETE("/games/:id", gamesController.DeleteGame)
		api.POST("/games/:id/enrich", gamesController.EnrichGame)
	}

	// Settings endpoints
	if cfg.Settings != nil && cfg.SettingsCache != nil {
		settingsController := NewSettingsController(cfg.Settings, cfg.SettingsCache, cfg.TokenRenewer)
		api.GET("/settings", settingsController.GetSettings)
		api.PUT("/settings", settingsController.UpdateSettings)
		api.POST("/settings/igdb/token", settingsController.RenewIGDBToken)
	}

	// Import endpoints
	if cfg.Importer != nil && cfg.ImportProgress != nil {
		importController := NewImportController(cfg.Importer, cfg.ImportProgress, cfg.TaskQueue)
		api.POST("/import/csv", importController.ImportCSV)
		api.GET("/import/status", importController.ImportStatus)
	}

	return router
}
