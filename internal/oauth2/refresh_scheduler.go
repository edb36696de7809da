package oauth2

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/metrics"
)

// TokenStore persists IGDB access tokens per user.
type TokenStore interface {
	ListWithIGDBApp() ([]entities.UserSettings, error)
	SetIGDBToken(userID, accessToken string, expiresAt *time.Time) error
}

// Invalidator drops cached settings after a token is replaced.
type Invalidator interface {
	Invalidate(userID string)
}

// Renewer mints a new IGDB access token from the client credentials a user
// stored and saves it.
type Renewer struct {
	store       TokenStore
	issuer      TokenIssuer
	invalidator Invalidator
	log         *zap.SugaredLogger
}

func NewRenewer(store TokenStore, issuer TokenIssuer, invalidator Invalidator, log *zap.SugaredLogger) *Renewer {
	return &Renewer{
		store:       store,
		issuer:      issuer,
		invalidator: invalidator,
		log:         log.Named("igdb-token"),
	}
}

// Renew exchanges the stored client credentials of settings for a new
// access token.
func (r *Renewer) Renew(ctx context.Context, settings entities.UserSettings) (*Exchange, error) {
	if !settings.HasIGDBApp() {
		return nil, ErrNoIGDBApp
	}

	exchange, err := r.issuer.ExchangeClientCredentials(ctx, ClientCredentials{
		ClientID:     settings.IGDBClientID,
		ClientSecret: settings.IGDBClientSecret,
	})
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := r.store.SetIGDBToken(settings.UserID, exchange.Token.AccessToken, exchange.Token.ExpiresAt()); err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("save IGDB token: %w", err)
	}
	if r.invalidator != nil {
		r.invalidator.Invalidate(settings.UserID)
	}

	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	r.log.Infow("IGDB access token renewed", "user_id", settings.UserID, "expires_at", exchange.Token.ExpiresAt())
	return exchange, nil
}

// RenewExpiring renews every stored token that expires within margin and
// returns how many were renewed. Failures are logged per user.
func (r *Renewer) RenewExpiring(ctx context.Context, margin time.Duration) (int, error) {
	list, err := r.store.ListWithIGDBApp()
	if err != nil {
		return 0, fmt.Errorf("list IGDB apps: %w", err)
	}

	renewed := 0
	for _, settings := range list {
		if ctx.Err() != nil {
			return renewed, ctx.Err()
		}
		if !settings.IsIGDBTokenExpiringSoon(margin) {
			continue
		}
		if _, err := r.Renew(ctx, settings); err != nil {
			r.log.Warnw("Failed to renew IGDB token", "user_id", settings.UserID, zap.Error(err))
			continue
		}
		renewed++
	}
	return renewed, nil
}

// RefreshConfig contains configuration for the token refresh scheduler.
type RefreshConfig struct {
	Enabled       bool
	Schedule      string        // cron expression, five fields
	RefreshMargin time.Duration // renew tokens expiring within this duration
}

// RefreshScheduler periodically renews IGDB tokens that are about to expire.
type RefreshScheduler struct {
	renewer *Renewer
	config  RefreshConfig
	log     *zap.SugaredLogger

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
	runCtx    context.Context
	cancel    context.CancelFunc
}

func NewRefreshScheduler(renewer *Renewer, config RefreshConfig, log *zap.SugaredLogger) *RefreshScheduler {
	return &RefreshScheduler{
		renewer: renewer,
		config:  config,
		log:     log.Named("igdb-refresh"),
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start schedules the renewal job. A disabled scheduler starts nothing.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.log.Info("IGDB token refresh scheduler disabled")
		return nil
	}

	s.runCtx, s.cancel = context.WithCancel(ctx)
	if _, err := s.cron.AddFunc(s.config.Schedule, s.runOnce); err != nil {
		s.cancel()
		return fmt.Errorf("invalid refresh schedule '%s': %w", s.config.Schedule, err)
	}

	s.cron.Start()
	s.isRunning = true

	var next time.Time
	if entries := s.cron.Entries(); len(entries) > 0 {
		next = entries[0].Next
	}
	s.log.Infow("IGDB token refresh scheduler started",
		"schedule", s.config.Schedule,
		"margin", s.config.RefreshMargin,
		"next_run", next,
	)
	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.log.Info("IGDB token refresh scheduler stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *RefreshScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *RefreshScheduler) runOnce() {
	renewed, err := s.renewer.RenewExpiring(s.runCtx, s.config.RefreshMargin)
	if err != nil {
		s.log.Errorw("IGDB token refresh run failed", zap.Error(err))
		return
	}
	if renewed > 0 {
		s.log.Infow("IGDB token refresh run finished", "renewed", renewed)
	}
}
