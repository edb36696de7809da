package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/oauth2"
)

// SettingsController reads and writes the settings of the requesting user.
type SettingsController struct {
	store   SettingsStore
	cache   SettingsCache
	renewer TokenRenewer
}

func NewSettingsController(store SettingsStore, cache SettingsCache, renewer TokenRenewer) *SettingsController {
	return &SettingsController{
		store:   store,
		cache:   cache,
		renewer: renewer,
	}
}

// SettingsResponse is the public form of UserSettings. Secrets are reported
// as present or not, never echoed.
type SettingsResponse struct {
	UserID             string   `json:"user_id"`
	Categories         []string `json:"categories"`
	Tags               []string `json:"tags"`
	DataSource         string   `json:"data_source"`
	HasRawgAPIKey      bool     `json:"has_rawg_api_key"`
	IGDBClientID       string   `json:"igdb_client_id"`
	HasIGDBSecret      bool     `json:"has_igdb_client_secret"`
	HasIGDBAccessToken bool     `json:"has_igdb_access_token"`
	IGDBTokenExpiresAt any      `json:"igdb_token_expires_at,omitempty"`
}

func newSettingsResponse(s entities.UserSettings) SettingsResponse {
	resp := SettingsResponse{
		UserID:             s.UserID,
		Categories:         s.ActiveCategories(),
		Tags:               s.Tags,
		DataSource:         s.ActiveDataSource(),
		HasRawgAPIKey:      s.RawgAPIKey != "",
		IGDBClientID:       s.IGDBClientID,
		HasIGDBSecret:      s.IGDBClientSecret != "",
		HasIGDBAccessToken: s.IGDBAccessToken != "",
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if s.IGDBTokenExpiresAt != nil {
		resp.IGDBTokenExpiresAt = s.IGDBTokenExpiresAt
	}
	return resp
}

// GetSettings handles GET /api/settings
func (sc *SettingsController) GetSettings(c *gin.Context) {
	settings, err := sc.cache.Get(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "load settings")
		return
	}
	c.JSON(http.StatusOK, newSettingsResponse(settings))
}

// UpdateSettingsRequest is a partial update: omitted fields keep their
// stored value, an empty string clears a credential.
type UpdateSettingsRequest struct {
	Categories       []string `json:"categories" validate:"omitempty,dive,required,max=128"`
	Tags             []string `json:"tags" validate:"omitempty,dive,required,max=128"`
	DataSource       *string  `json:"data_source" validate:"omitempty,oneof=rawg igdb"`
	RawgAPIKey       *string  `json:"rawg_api_key" validate:"omitempty,max=255"`
	IGDBClientID     *string  `json:"igdb_client_id" validate:"omitempty,max=255"`
	IGDBClientSecret *string  `json:"igdb_client_secret" validate:"omitempty,max=255"`
	IGDBAccessToken  *string  `json:"igdb_access_token" validate:"omitempty,max=4096"`
}

func (r UpdateSettingsRequest) apply(s *entities.UserSettings) {
	if r.Categories != nil {
		s.Categories = r.Categories
	}
	if r.Tags != nil {
		s.Tags = r.Tags
	}
	if r.DataSource != nil {
		s.DataSource = *r.DataSource
	}
	if r.RawgAPIKey != nil {
		s.RawgAPIKey = *r.RawgAPIKey
	}
	if r.IGDBClientID != nil {
		s.IGDBClientID = *r.IGDBClientID
	}
	if r.IGDBClientSecret != nil {
		s.IGDBClientSecret = *r.IGDBClientSecret
	}
	if r.IGDBAccessToken != nil {
		s.IGDBAccessToken = *r.IGDBAccessToken
		// A pasted token has no known expiry.
		s.IGDBTokenExpiresAt = nil
	}
}

// UpdateSettings handles PUT /api/settings
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if !validateRequest(c, req) {
		return
	}

	userID := GetUserID(c)
	settings, err := sc.store.LoadUserSettings(userID)
	if err != nil {
		respondInternalError(c, err, "load settings")
		return
	}

	req.apply(settings)
	if err := sc.store.SaveUserSettings(settings); err != nil {
		respondInternalError(c, err, "save settings")
		return
	}
	sc.cache.Invalidate(userID)

	c.JSON(http.StatusOK, newSettingsResponse(*settings))
}

// RenewIGDBToken handles POST /api/settings/igdb/token
// Exchanges the stored IGDB client credentials for a new access token.
func (sc *SettingsController) RenewIGDBToken(c *gin.Context) {
	if sc.renewer == nil {
		respondError(c, http.StatusServiceUnavailable, "token renewal is not available")
		return
	}

	settings, err := sc.store.LoadUserSettings(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "load settings")
		return
	}

	exchange, err := sc.renewer.Renew(c.Request.Context(), *settings)
	if err != nil {
		var upstream *oauth2.UpstreamError
		switch {
		case errors.Is(err, oauth2.ErrNoIGDBApp):
			respondBadRequest(c, oauth2.ErrMissingClientCredentials.Error())
		case errors.As(err, &upstream):
			respondError(c, upstream.StatusCode, upstream.Message)
		default:
			respondInternalError(c, err, "renew IGDB token")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expires_at": exchange.Token.ExpiresAt(),
		"token_type": exchange.Token.TokenType,
	})
}
