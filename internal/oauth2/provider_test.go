package oauth2

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTwitchProvider_Exchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "my-client", r.PostForm.Get("client_id"))
		assert.Equal(t, "s3cret&x", r.PostForm.Get("client_secret"))
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":5011271,"token_type":"bearer"}`))
	}))
	defer server.Close()

	provider := NewTwitchProvider(server.URL, nil, zap.NewNop().Sugar())
	before := time.Now()
	exchange, err := provider.ExchangeClientCredentials(context.Background(), ClientCredentials{
		ClientID:     "my-client",
		ClientSecret: "s3cret&x",
	})

	require.NoError(t, err)
	assert.Equal(t, "tok-1", exchange.Token.AccessToken)
	assert.Equal(t, "bearer", exchange.Token.TokenType)
	assert.JSONEq(t, `{"access_token":"tok-1","expires_in":5011271,"token_type":"bearer"}`, string(exchange.Raw))

	expiresAt := exchange.Token.ExpiresAt()
	require.NotNil(t, expiresAt)
	assert.WithinDuration(t, before.Add(5011271*time.Second), *expiresAt, 5*time.Second)
}

func TestTwitchProvider_UpstreamError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"message", http.StatusForbidden, `{"status":403,"message":"invalid client secret"}`, "invalid client secret"},
		{"no message", http.StatusBadRequest, `{"status":400}`, defaultUpstreamMessage},
		{"not json", http.StatusBadGateway, `bad gateway`, defaultUpstreamMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := NewTwitchProvider(server.URL, nil, zap.NewNop().Sugar())
			_, err := provider.ExchangeClientCredentials(context.Background(), ClientCredentials{ClientID: "a", ClientSecret: "b"})

			var upstream *UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, tt.status, upstream.StatusCode)
			assert.Equal(t, tt.expected, upstream.Message)
		})
	}
}

func TestTwitchProvider_MissingCredentials(t *testing.T) {
	provider := NewTwitchProvider("http://127.0.0.1:1", nil, zap.NewNop().Sugar())

	_, err := provider.ExchangeClientCredentials(context.Background(), ClientCredentials{ClientID: "a"})
	assert.ErrorIs(t, err, ErrMissingClientCredentials)

	_, err = provider.ExchangeClientCredentials(context.Background(), ClientCredentials{ClientSecret: "b"})
	assert.ErrorIs(t, err, ErrMissingClientCredentials)
}

func TestTokenResponse_ExpiresAt(t *testing.T) {
	assert.Nil(t, (&TokenResponse{ExpiresIn: 0}).ExpiresAt())

	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	token := TokenResponse{ExpiresIn: 60, issuedAt: issued}
	assert.Equal(t, issued.Add(time.Minute), *token.ExpiresAt())
}
