package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Gateway
		Providers
		Tasks
		IGDBRefresh
		Metrics
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		LogLevel                 string
		DefaultUserID            string
	}
	Database struct {
		Path string
	}
	Gateway struct {
		URL string // Base URL the import pipeline calls, e.g. http://localhost:8188
	}
	Providers struct {
		RawgAPIURL     string
		RawgAPIKey     string // Server-side fallback when a request carries no credential
		IGDBAPIURL     string
		IGDBClientID   string // Server-side fallback when a request carries no credential
		TwitchTokenURL string
		HTTPTimeout    time.Duration
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	IGDBRefresh struct {
		Enabled       bool
		Schedule      string        // Cron format: "*/30 * * * *" = every 30 minutes
		RefreshMargin time.Duration // Renew tokens expiring within this duration
	}
	Metrics struct {
		Enabled bool
	}
)

// Address returns host:port for the HTTP listener.
func (h HTTP) Address() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// NewConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("log_level", "info")
	v.SetDefault("default_user_id", DefaultUserID)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("gateway_url", "")

	// Provider defaults
	v.SetDefault("rawg_api_url", DefaultRawgAPIURL)
	v.SetDefault("rawg_api_key", "")
	v.SetDefault("igdb_api_url", DefaultIGDBAPIURL)
	v.SetDefault("igdb_client_id", "")
	v.SetDefault("twitch_token_url", DefaultTwitchTokenURL)
	v.SetDefault("http_client_timeout", "15s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "45m")
	v.SetDefault("task_cleanup_interval", "1h")

	// IGDB token renewal defaults
	v.SetDefault("igdb_refresh_enabled", true)
	v.SetDefault("igdb_refresh_schedule", "*/30 * * * *")
	v.SetDefault("igdb_refresh_margin", "24h")

	v.SetDefault("metrics_enabled", true)

	cfg := &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			LogLevel:                 v.GetString("LOG_LEVEL"),
			DefaultUserID:            v.GetString("DEFAULT_USER_ID"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Gateway: Gateway{
			URL: v.GetString("GATEWAY_URL"),
		},
		Providers: Providers{
			RawgAPIURL:     v.GetString("RAWG_API_URL"),
			RawgAPIKey:     v.GetString("RAWG_API_KEY"),
			IGDBAPIURL:     v.GetString("IGDB_API_URL"),
			IGDBClientID:   v.GetString("IGDB_CLIENT_ID"),
			TwitchTokenURL: v.GetString("TWITCH_TOKEN_URL"),
			HTTPTimeout:    v.GetDuration("HTTP_CLIENT_TIMEOUT"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		IGDBRefresh: IGDBRefresh{
			Enabled:       v.GetBool("IGDB_REFRESH_ENABLED"),
			Schedule:      v.GetString("IGDB_REFRESH_SCHEDULE"),
			RefreshMargin: v.GetDuration("IGDB_REFRESH_MARGIN"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}

	// The import pipeline talks to this very server unless told otherwise.
	if cfg.Gateway.URL == "" {
		cfg.Gateway.URL = fmt.Sprintf("http://127.0.0.1:%d", cfg.HTTP.Port)
	}

	return cfg
}
