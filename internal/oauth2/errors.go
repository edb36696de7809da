package oauth2

import "errors"

var (
	ErrMissingClientCredentials = errors.New("Client ID and Client Secret are required")
	ErrNoIGDBApp                = errors.New("no IGDB client credentials stored")
)

const defaultUpstreamMessage = "Failed to authenticate with Twitch/IGDB"

// UpstreamError is a non-2xx answer of the token endpoint.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return e.Message
}
