// Package websearch provides the search capability exposed to browsing
// agents: a Provider abstraction over web search engines plus a page fetcher
// that turns result URLs into plain text suitable for model context.
package websearch

import (
	"context"
	"time"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Provider executes a web search for a query.
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Fetcher retrieves the readable text of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Settings carry the search configuration shared by browsing agents.
type Settings struct {
	// Timeout bounds a single search or fetch request.
	Timeout time.Duration
	// WaitTime is the pause between consecutive requests to one engine.
	WaitTime time.Duration
	// Sites restricts searches to the listed domains when non-empty.
	Sites []string
	// MaxArticlesPerSite caps results collected per restricted site.
	MaxArticlesPerSite int
}
