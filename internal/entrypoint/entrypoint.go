package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/config"
	"github.com/mrlokans/pixeljournal/internal/database"
	http_controllers "github.com/mrlokans/pixeljournal/internal/http"
	"github.com/mrlokans/pixeljournal/internal/logger"
	"github.com/mrlokans/pixeljournal/internal/metadata"
	"github.com/mrlokans/pixeljournal/internal/oauth2"
	"github.com/mrlokans/pixeljournal/internal/services"
	"github.com/mrlokans/pixeljournal/internal/settingsstore"
	"github.com/mrlokans/pixeljournal/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the long-lived components shared by the server and the CLI.
type App struct {
	Config     *config.Config
	Database   *database.Database
	Settings   *settingsstore.Store
	Fallback   settingsstore.Fallback
	Dispatcher *metadata.Dispatcher
	Enricher   *metadata.Enricher
	Issuer     *oauth2.TwitchProvider
	Renewer    *oauth2.Renewer
	Imports    *services.ImportService
	HTTPClient *http.Client
	Log        *zap.SugaredLogger
}

// Build opens the database and wires the domain components.
func Build(cfg *config.Config) (*App, error) {
	log := logger.Log

	db, err := database.NewDatabaseWithLogLevel(cfg.Database.Path, database.GormLogLevel(cfg.Global.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Providers.HTTPTimeout}

	fallback := settingsstore.Fallback{
		RawgAPIKey:   cfg.Providers.RawgAPIKey,
		IGDBClientID: cfg.Providers.IGDBClientID,
	}
	settings := settingsstore.New(db.Settings, fallback, log)

	dispatcher := metadata.NewDefaultDispatcher(cfg.Providers.RawgAPIURL, cfg.Providers.IGDBAPIURL, httpClient, log)
	issuer := oauth2.NewTwitchProvider(cfg.Providers.TwitchTokenURL, httpClient, log)

	return &App{
		Config:     cfg,
		Database:   db,
		Settings:   settings,
		Fallback:   fallback,
		Dispatcher: dispatcher,
		Enricher:   metadata.NewEnricher(dispatcher, settings, db.Games),
		Issuer:     issuer,
		Renewer:    oauth2.NewRenewer(db.Settings, issuer, settings, log),
		Imports: services.NewImportService(services.ImportServiceConfig{
			Settings:   settings,
			Library:    db.Games,
			Writer:     db,
			Recorder:   db.Imports,
			GatewayURL: cfg.Gateway.URL,
			HTTPClient: httpClient,
			Logger:     log,
		}),
		HTTPClient: httpClient,
		Log:        log,
	}, nil
}

// Close releases the database.
func (a *App) Close() {
	if err := a.Database.Close(); err != nil {
		a.Log.Errorw("Error closing database", zap.Error(err))
	}
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	log := logger.Named("server")
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    cfg.HTTP.Address(),
		Handler: router,
	}

	go func() {
		log.Infow("Starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("listen", zap.Error(err))
		}
	}()

	// kill (no param) default sends syscall.SIGTERM, kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("Shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("Server shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
}

func Run(cfg *config.Config, version string) error {
	log := logger.Named("server")
	log.Infow("Starting PixelJournal", "version", version)

	app, err := Build(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Providers.RawgAPIKey == "" && cfg.Providers.IGDBClientID == "" {
		log.Warn("No server-wide provider credentials set. Lookups rely on credentials stored per user. Set 'RAWG_API_KEY' or 'IGDB_CLIENT_ID' to enable a fallback.")
	}

	// Initialize task queue if enabled
	var taskQueue http_controllers.TaskQueue
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg, app.Log)
		if err != nil {
			return fmt.Errorf("initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Errorw("Error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewImportGamesQueue(app.Imports, app.Log),
			tasks.NewEnrichGameQueue(app.Enricher, app.Log),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
		taskQueue = taskClient
	}

	// IGDB token renewal
	scheduler := oauth2.NewRefreshScheduler(app.Renewer, oauth2.RefreshConfig{
		Enabled:       cfg.IGDBRefresh.Enabled,
		Schedule:      cfg.IGDBRefresh.Schedule,
		RefreshMargin: cfg.IGDBRefresh.RefreshMargin,
	}, app.Log)
	if err := scheduler.Start(context.Background()); err != nil {
		return err
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Dispatcher:     app.Dispatcher,
		Issuer:         app.Issuer,
		Fallback:       app.Fallback,
		Games:          app.Database.Games,
		Settings:       app.Database.Settings,
		SettingsCache:  app.Settings,
		Enricher:       app.Enricher,
		TokenRenewer:   app.Renewer,
		Importer:       app.Imports,
		ImportProgress: app.Database.Imports,
		TaskQueue:      taskQueue,
		Health:         app.Database,
		MetricsDB:      app.Database.DB,
		MetricsEnabled: cfg.Metrics.Enabled,
		DefaultUserID:  cfg.Global.DefaultUserID,
		Version:        version,
		Logger:         app.Log,
	})

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		scheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
	return nil
}
