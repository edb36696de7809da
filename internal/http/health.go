package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/pixeljournal/internal/settingsstore"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is anything whose connectivity can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db       Pinger
	fallback settingsstore.Fallback
	version  string
}

func NewHealthController(db Pinger, fallback settingsstore.Fallback, version string) *HealthController {
	return &HealthController{
		db:       db,
		fallback: fallback,
		version:  version,
	}
}

// credentialCheck describes where lookups for a provider get their key.
// It never affects the overall status.
func credentialCheck(serverKey string) string {
	if serverKey != "" {
		return "server credentials"
	}
	return "per-user credentials"
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check database connectivity
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}
	checks["rawg"] = credentialCheck(h.fallback.RawgAPIKey)
	checks["igdb"] = credentialCheck(h.fallback.IGDBClientID)

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
