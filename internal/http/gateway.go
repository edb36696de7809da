package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/apiclient"
	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/metadata"
	"github.com/mrlokans/pixeljournal/internal/oauth2"
	"github.com/mrlokans/pixeljournal/internal/settingsstore"
)

const (
	msgSearchQueryRequired = "Search query is required"
	msgGameIDRequired      = "Game ID is required"
	msgInvalidSource       = "A valid source is required (rawg or igdb)"
	msgUnauthorized        = "Missing or malformed Authorization header"
	msgAuthInternal        = "An internal server error occurred during authentication."
)

// GatewayController proxies provider lookups for clients that send their
// own credentials, and mints IGDB tokens.
type GatewayController struct {
	dispatcher *metadata.Dispatcher
	issuer     oauth2.TokenIssuer
	fallback   settingsstore.Fallback
	log        *zap.SugaredLogger
}

func NewGatewayController(dispatcher *metadata.Dispatcher, issuer oauth2.TokenIssuer, fallback settingsstore.Fallback, log *zap.SugaredLogger) *GatewayController {
	return &GatewayController{
		dispatcher: dispatcher,
		issuer:     issuer,
		fallback:   fallback,
		log:        log.Named("gateway"),
	}
}

// SearchGame handles GET /api/search-game?q=&source=
func (gc *GatewayController) SearchGame(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondBadRequest(c, msgSearchQueryRequired)
		return
	}

	source, creds, ok := gc.resolveRequest(c)
	if !ok {
		return
	}

	results := gc.dispatcher.Search(c.Request.Context(), source, query, creds.Key, creds.Auth)
	if results == nil {
		results = []metadata.GameSearchResult{}
	}
	c.JSON(http.StatusOK, results)
}

// GameDetails handles GET /api/game-details?id=&source=
func (gc *GatewayController) GameDetails(c *gin.Context) {
	gameID := strings.TrimSpace(c.Query("id"))
	if gameID == "" {
		respondBadRequest(c, msgGameIDRequired)
		return
	}

	source, creds, ok := gc.resolveRequest(c)
	if !ok {
		return
	}

	details := gc.dispatcher.GetDetails(c.Request.Context(), source, gameID, creds.Key, creds.Auth)
	if details == nil {
		respondNotFound(c, "Game details")
		return
	}
	c.JSON(http.StatusOK, details)
}

// resolveRequest validates the source and credentials of a lookup. It writes
// the error response itself and returns ok=false when the request is rejected.
func (gc *GatewayController) resolveRequest(c *gin.Context) (metadata.Source, metadata.Credentials, bool) {
	source, err := metadata.ParseSource(c.Query("source"))
	if err != nil {
		respondBadRequest(c, msgInvalidSource)
		return "", metadata.Credentials{}, false
	}

	token, present, valid := bearerToken(c.GetHeader("Authorization"))
	switch {
	case valid:
		return source, metadata.Credentials{
			Key:  token,
			Auth: metadata.AuthExtra{AccessToken: c.GetHeader(apiclient.AccessTokenHeader)},
		}, true
	case present:
		respondError(c, http.StatusUnauthorized, msgUnauthorized)
		return "", metadata.Credentials{}, false
	}

	// No Authorization header at all: the server-wide credentials apply.
	creds, err := settingsstore.CredentialsFor(entities.UserSettings{}, source, gc.fallback)
	if err != nil {
		respondError(c, http.StatusUnauthorized, msgUnauthorized)
		return "", metadata.Credentials{}, false
	}
	creds.Auth.AccessToken = c.GetHeader(apiclient.AccessTokenHeader)
	return source, creds, true
}

// AuthIGDB handles POST /api/auth/igdb
// Exchanges Twitch application credentials for an IGDB access token and
// returns the upstream token payload unchanged.
func (gc *GatewayController) AuthIGDB(c *gin.Context) {
	var creds oauth2.ClientCredentials
	if err := c.ShouldBindJSON(&creds); err != nil || creds.ClientID == "" || creds.ClientSecret == "" {
		respondBadRequest(c, oauth2.ErrMissingClientCredentials.Error())
		return
	}

	exchange, err := gc.issuer.ExchangeClientCredentials(c.Request.Context(), creds)
	if err != nil {
		var upstream *oauth2.UpstreamError
		if errors.As(err, &upstream) {
			gc.log.Warnw("IGDB token exchange rejected", "status", upstream.StatusCode, "message", upstream.Message)
			respondError(c, upstream.StatusCode, upstream.Message)
			return
		}
		gc.log.Errorw("IGDB token exchange failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, msgAuthInternal)
		return
	}

	c.Data(http.StatusOK, "application/json", exchange.Raw)
}
