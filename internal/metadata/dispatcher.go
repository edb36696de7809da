package metadata

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Dispatcher routes calls to the provider registered for a source.
type Dispatcher struct {
	providers map[Source]Provider
}

// NewDispatcher registers the given providers under their own names.
func NewDispatcher(providers ...Provider) *Dispatcher {
	d := &Dispatcher{providers: make(map[Source]Provider, len(providers))}
	for _, p := range providers {
		d.providers[p.Name()] = p
	}
	return d
}

// NewDefaultDispatcher wires RAWG and IGDB against the given base URLs.
func NewDefaultDispatcher(rawgURL, igdbURL string, httpClient *http.Client, log *zap.SugaredLogger) *Dispatcher {
	return NewDispatcher(
		NewRawgProvider(rawgURL, httpClient, log),
		NewIGDBProvider(igdbURL, httpClient, log),
	)
}

// Provider returns the adapter for source, or nil when none is registered.
func (d *Dispatcher) Provider(source Source) Provider {
	return d.providers[source]
}

// Search forwards to the provider of source. Callers validate source with ParseSource.
func (d *Dispatcher) Search(ctx context.Context, source Source, query, credential string, auth AuthExtra) []GameSearchResult {
	p := d.Provider(source)
	if p == nil {
		return []GameSearchResult{}
	}
	return p.Search(ctx, query, credential, auth)
}

// GetDetails forwards to the provider of source.
func (d *Dispatcher) GetDetails(ctx context.Context, source Source, gameID, credential string, auth AuthExtra) *GameDetailsResult {
	p := d.Provider(source)
	if p == nil {
		return nil
	}
	return p.GetDetails(ctx, gameID, credential, auth)
}
