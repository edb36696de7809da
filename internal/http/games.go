package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pixeljournal/internal/apiclient"
	"github.com/mrlokans/pixeljournal/internal/database/games"
	"github.com/mrlokans/pixeljournal/internal/entities"
	"github.com/mrlokans/pixeljournal/internal/metadata"
	"github.com/mrlokans/pixeljournal/internal/tasks"
)

const enrichTimeout = 30 * time.Second

// GamesController serves the library of the requesting user.
type GamesController struct {
	store    GameStore
	settings SettingsStore
	cache    SettingsCache
	enricher GameEnricher
	queue    TaskQueue
}

func NewGamesController(store GameStore, settings SettingsStore, cache SettingsCache, enricher GameEnricher, queue TaskQueue) *GamesController {
	return &GamesController{
		store:    store,
		settings: settings,
		cache:    cache,
		enricher: enricher,
		queue:    queue,
	}
}

// ListGames handles GET /api/games
// An optional ?status= narrows the list to one category.
func (gc *GamesController) ListGames(c *gin.Context) {
	userID := GetUserID(c)

	var (
		list []entities.Game
		err  error
	)
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		list, err = gc.store.ListGamesByStatus(userID, status)
	} else {
		list, err = gc.store.ListGames(userID)
	}
	if err != nil {
		respondInternalError(c, err, "list games")
		return
	}
	if list == nil {
		list = []entities.Game{}
	}

	c.JSON(http.StatusOK, gin.H{
		"games": list,
		"total": len(list),
	})
}

// CachedGames handles GET /api/games/cache
// Returns the slim projection used for duplicate detection.
func (gc *GamesController) CachedGames(c *gin.Context) {
	cached, err := gc.store.CachedGames(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "cached games")
		return
	}
	if cached == nil {
		cached = []entities.CachedGameInfo{}
	}
	c.JSON(http.StatusOK, cached)
}

// GetGame handles GET /api/games/:id
func (gc *GamesController) GetGame(c *gin.Context) {
	game, err := gc.store.GetGame(GetUserID(c), c.Param("id"))
	if err != nil {
		gc.respondGameError(c, err, "get game")
		return
	}
	c.JSON(http.StatusOK, game)
}

// DeleteGame handles DELETE /api/games/:id
func (gc *GamesController) DeleteGame(c *gin.Context) {
	if err := gc.store.DeleteGame(GetUserID(c), c.Param("id")); err != nil {
		gc.respondGameError(c, err, "delete game")
		return
	}
	respondSuccess(c, "game deleted")
}

// RenameStatusRequest moves every game of one status to another.
type RenameStatusRequest struct {
	From string `json:"from" validate:"required,max=128"`
	To   string `json:"to" validate:"required,max=128"`
}

// RenameStatus handles PATCH /api/games/status
// The category is renamed in the user's settings as well.
func (gc *GamesController) RenameStatus(c *gin.Context) {
	var req RenameStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	req.From = strings.TrimSpace(req.From)
	req.To = strings.TrimSpace(req.To)
	if !validateRequest(c, req) {
		return
	}

	userID := GetUserID(c)
	moved, err := gc.store.RenameStatus(userID, req.From, req.To)
	if err != nil {
		respondInternalError(c, err, "rename status")
		return
	}
	if err := gc.settings.RenameCategory(userID, req.From, req.To); err != nil {
		respondInternalError(c, err, "rename category")
		return
	}
	gc.cache.Invalidate(userID)

	c.JSON(http.StatusOK, gin.H{
		"from":  req.From,
		"to":    req.To,
		"moved": moved,
	})
}

// EnrichGame handles POST /api/games/:id/enrich
// Runs in the background when a task queue is configured.
func (gc *GamesController) EnrichGame(c *gin.Context) {
	userID := GetUserID(c)
	gameID := c.Param("id")

	if gc.queue != nil {
		if _, err := gc.store.GetGame(userID, gameID); err != nil {
			gc.respondGameError(c, err, "enrich game")
			return
		}
		taskID, err := gc.queue.Enqueue(tasks.EnrichGameTask{UserID: userID, GameID: gameID})
		if err != nil {
			respondInternalError(c, err, "enqueue enrich task")
			return
		}
		respondAccepted(c, "enrichment queued", gin.H{"task_id": taskID})
		return
	}

	if gc.enricher == nil {
		respondError(c, http.StatusServiceUnavailable, "enrichment is not available")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), enrichTimeout)
	defer cancel()

	result, err := gc.enricher.EnrichGame(ctx, userID, gameID)
	if err != nil {
		gc.respondGameError(c, err, "enrich game")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (gc *GamesController) respondGameError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, games.ErrGameNotFound):
		respondNotFound(c, "game")
	case errors.Is(err, metadata.ErrNoDetails):
		respondNotFound(c, "game details")
	case errors.Is(err, metadata.ErrNotFromSource),
		errors.Is(err, metadata.ErrInvalidSource),
		apiclient.IsMissingCredential(err):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}
