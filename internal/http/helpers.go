package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/pixeljournal/internal/logger"
)

const (
	// UserIDHeader selects the library a request operates on.
	UserIDHeader = "X-User-ID"

	contextKeyUserID = "user_id"
)

// UserMiddleware resolves the user of a request from the X-User-ID header,
// falling back to defaultUserID in single-user mode.
func UserMiddleware(defaultUserID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			userID = defaultUserID
		}
		c.Set(contextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID extracts the user ID set by UserMiddleware.
func GetUserID(c *gin.Context) string {
	return c.GetString(contextKeyUserID)
}

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	logger.Log.Errorw("Internal error", "context", context, "path", c.FullPath(), zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
// Use the specific helpers (respondBadRequest, respondNotFound, etc.) when possible.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// bearerToken extracts the credential of an "Authorization: Bearer <token>"
// header. present is false when the header is missing altogether.
func bearerToken(header string) (token string, present, ok bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false, false
	}
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true, false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", true, false
	}
	return value, true, true
}
