package oauth2

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ClientCredentials identifies an application registered with the token issuer.
type ClientCredentials struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// TokenResponse contains the token returned by a client-credentials grant.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds until expiry
	TokenType   string `json:"token_type"`

	issuedAt time.Time
}

// ExpiresAt calculates the absolute expiry time from ExpiresIn.
func (t *TokenResponse) ExpiresAt() *time.Time {
	if t.ExpiresIn <= 0 {
		return nil
	}
	issued := t.issuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	exp := issued.Add(time.Duration(t.ExpiresIn) * time.Second)
	return &exp
}

// Exchange is the outcome of one token request. Raw is the upstream body
// as received.
type Exchange struct {
	Token TokenResponse
	Raw   json.RawMessage
}

// TokenIssuer mints application access tokens.
type TokenIssuer interface {
	ExchangeClientCredentials(ctx context.Context, creds ClientCredentials) (*Exchange, error)
}

// TwitchProvider obtains IGDB access tokens from the Twitch OAuth2 endpoint.
type TwitchProvider struct {
	tokenURL   string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

var _ TokenIssuer = (*TwitchProvider)(nil)

// NewTwitchProvider creates a provider posting to tokenURL.
func NewTwitchProvider(tokenURL string, httpClient *http.Client, log *zap.SugaredLogger) *TwitchProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TwitchProvider{
		tokenURL:   tokenURL,
		httpClient: httpClient,
		log:        log.Named("twitch"),
	}
}

// ExchangeClientCredentials runs the client-credentials grant.
func (p *TwitchProvider) ExchangeClientCredentials(ctx context.Context, creds ClientCredentials) (*Exchange, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, ErrMissingClientCredentials
	}

	data := url.Values{}
	data.Set("client_id", creds.ClientID)
	data.Set("client_secret", creds.ClientSecret)
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	issuedAt := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := defaultUpstreamMessage
		var errResp struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			message = errResp.Message
		}
		p.log.Warnw("Token exchange rejected", "status", resp.StatusCode, "message", message)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: message}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	token.issuedAt = issuedAt

	return &Exchange{Token: token, Raw: json.RawMessage(body)}, nil
}
