package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestUserMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(UserMiddleware("local"))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"header present", "alice", "alice"},
		{"header trimmed", "  bob ", "bob"},
		{"falls back to default user", "", "local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header      string
		wantToken   string
		wantPresent bool
		wantOK      bool
	}{
		{"Bearer abc", "abc", true, true},
		{"bearer abc", "abc", true, true},
		{"Bearer   abc  ", "abc", true, true},
		{"", "", false, false},
		{"Bearer", "", true, false},
		{"Bearer ", "", true, false},
		{"Basic abc", "", true, false},
		{"abc", "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, present, ok := bearerToken(tt.header)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantPresent, present)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestRespondHelpers(t *testing.T) {
	t.Run("bad request", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondBadRequest(c, "missing field")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "missing field", resp.Error)
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondNotFound(c, "game")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "game not found")
	})

	t.Run("internal error hides the cause", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/", nil)

		respondInternalError(c, assert.AnError, "test")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	})

	t.Run("accepted carries data", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondAccepted(c, "queued", gin.H{"task_id": "t-1"})

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"task_id":"t-1"`)
	})
}

func TestValidateRequest(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ok := validateRequest(c, RenameStatusRequest{From: "Backlog"})

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error   string       `json:"error"`
		Code    string       `json:"code"`
		Details []FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.Equal(t, "to is required", resp.Error)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "to", resp.Details[0].Field)
}
