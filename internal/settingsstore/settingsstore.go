// Package settingsstore serves per-user settings behind an explicit
// readiness signal: the first access for a user starts a background load,
// and readers either wait for it or take a non-blocking snapshot.
package settingsstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/metadata"
)

// Loader reads the stored settings of a user, creating defaults on first use.
type Loader interface {
	LoadUserSettings(userID string) (*entities.UserSettings, error)
}

// Fallback holds server-wide credentials used when a user stored none.
// Priority: database > environment.
type Fallback struct {
	RawgAPIKey   string
	IGDBClientID string
}

// State is the settings of one user as a value that becomes available once.
type State struct {
	userID string
	ready  chan struct{}

	mu       sync.RWMutex
	settings entities.UserSettings
	resolved bool
}

func newState(userID string) *State {
	return &State{
		userID:   userID,
		ready:    make(chan struct{}),
		settings: entities.DefaultUserSettings(userID),
	}
}

// Resolved returns a State that is ready with the given settings.
func Resolved(settings entities.UserSettings) *State {
	s := newState(settings.UserID)
	s.resolve(settings)
	return s
}

// resolve publishes settings and signals readiness. Only the first call
// has an effect.
func (s *State) resolve(settings entities.UserSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return
	}
	s.settings = settings
	s.resolved = true
	close(s.ready)
}

func (s *State) UserID() string {
	return s.userID
}

// Done is closed once the settings are available.
func (s *State) Done() <-chan struct{} {
	return s.ready
}

// Ready waits until the settings are loaded or ctx is done.
func (s *State) Ready(ctx context.Context) (entities.UserSettings, error) {
	select {
	case <-s.ready:
		settings, _ := s.Snapshot()
		return settings, nil
	case <-ctx.Done():
		return entities.UserSettings{}, fmt.Errorf("wait for settings of %s: %w", s.userID, ctx.Err())
	}
}

// Snapshot returns the current settings without blocking. Before the load
// completes this is the default settings and false.
func (s *State) Snapshot() (entities.UserSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings := s.settings
	settings.Categories = slices.Clone(settings.Categories)
	settings.Tags = slices.Clone(settings.Tags)
	return settings, s.resolved
}

// Store caches one State per user.
type Store struct {
	loader   Loader
	fallback Fallback
	log      *zap.SugaredLogger

	mu     sync.Mutex
	states map[string]*State
}

var _ metadata.CredentialResolver = (*Store)(nil)

func New(loader Loader, fallback Fallback, log *zap.SugaredLogger) *Store {
	return &Store{
		loader:   loader,
		fallback: fallback,
		log:      log.Named("settings"),
		states:   make(map[string]*State),
	}
}

// For returns the State of a user, starting its load on first access.
func (s *Store) For(userID string) *State {
	s.mu.Lock()
	state, ok := s.states[userID]
	if !ok {
		state = newState(userID)
		s.states[userID] = state
	}
	s.mu.Unlock()

	if !ok {
		go s.load(state)
	}
	return state
}

// Get waits for the settings of a user.
func (s *Store) Get(ctx context.Context, userID string) (entities.UserSettings, error) {
	return s.For(userID).Ready(ctx)
}

// Invalidate drops the cached State so the next access reloads it.
func (s *Store) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.states, userID)
	s.mu.Unlock()
}

// load resolves state from the loader. Read failures resolve to defaults so
// waiters are never stuck.
func (s *Store) load(state *State) {
	settings, err := s.loader.LoadUserSettings(state.userID)
	if err != nil || settings == nil {
		s.log.Errorw("failed to load settings, using defaults", "user_id", state.userID, zap.Error(err))
		state.resolve(entities.DefaultUserSettings(state.userID))
		return
	}
	state.resolve(*settings)
}

// Credentials returns the credentials a user has for source, falling back
// to the server-wide ones.
func (s *Store) Credentials(ctx context.Context, userID string, source metadata.Source) (metadata.Credentials, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return metadata.Credentials{}, err
	}
	return CredentialsFor(settings, source, s.fallback)
}

// CredentialsFor selects the credentials of source from settings.
func CredentialsFor(settings entities.UserSettings, source metadata.Source, fallback Fallback) (metadata.Credentials, error) {
	var creds metadata.Credentials
	switch source {
	case metadata.SourceRAWG:
		creds.Key = firstNonEmpty(settings.RawgAPIKey, fallback.RawgAPIKey)
	case metadata.SourceIGDB:
		creds.Key = firstNonEmpty(settings.IGDBClientID, fallback.IGDBClientID)
		creds.Auth.AccessToken = settings.IGDBAccessToken
	default:
		return creds, fmt.Errorf("%w: %q", metadata.ErrInvalidSource, source)
	}
	if creds.Key == "" {
		return creds, fmt.Errorf("%w for %s", metadata.ErrMissingCredential, source)
	}
	return creds, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Apply fills the credentials a user has not stored with the server-wide
// ones.
func (f Fallback) Apply(settings entities.UserSettings) entities.UserSettings {
	settings.RawgAPIKey = firstNonEmpty(settings.RawgAPIKey, f.RawgAPIKey)
	settings.IGDBClientID = firstNonEmpty(settings.IGDBClientID, f.IGDBClientID)
	return settings
}

// View is a user's State as seen by server-side callers: the same
// readiness, with the server-wide credentials filled in.
type View struct {
	state    *State
	fallback Fallback
}

// Effective returns the View of a user, starting its load on first access.
func (s *Store) Effective(userID string) *View {
	return &View{state: s.For(userID), fallback: s.fallback}
}

func (v *View) UserID() string {
	return v.state.UserID()
}

// Ready waits until the settings are loaded or ctx is done.
func (v *View) Ready(ctx context.Context) (entities.UserSettings, error) {
	settings, err := v.state.Ready(ctx)
	if err != nil {
		return settings, err
	}
	return v.fallback.Apply(settings), nil
}
