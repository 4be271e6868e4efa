// Package trends talks to the Google Trends web endpoints.
package trends

import (
	"context"

	"trends-go/pkg/extractor"
)

// RankedTables holds the two ranked lists Trends returns for a keyword.
// Either table may be nil when the provider has no data for it.
type RankedTables struct {
	Rising *extractor.Table
	Top    *extractor.Table
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Mid   string `json:"mid"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Client mirrors the Trends session flow: set a query scope, then read the
// widgets that scope produced.
type Client interface {
	// BuildPayload sets the active keywords, timeframe and region.
	BuildPayload(ctx context.Context, keywords []string, timeframe, geo string) error
	// RelatedQueries reads related queries for the active scope, keyed by keyword.
	RelatedQueries(ctx context.Context) (map[string]*RankedTables, error)
	// RelatedTopics reads related topics for the active scope, keyed by keyword.
	RelatedTopics(ctx context.Context) (map[string]*RankedTables, error)
	// Suggestions returns autocomplete entries for a keyword; no scope needed.
	Suggestions(ctx context.Context, keyword string) ([]Suggestion, error)
	// TrendingSearches returns today's trending searches for a feed such as "brazil".
	TrendingSearches(ctx context.Context, feed string) (*extractor.Table, error)
}

// Connector performs the initial handshake and hands back a ready Client.
type Connector interface {
	Connect(ctx context.Context) (Client, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (Client, error)

func (f ConnectorFunc) Connect(ctx context.Context) (Client, error) {
	return f(ctx)
}
