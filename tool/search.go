package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/websearch"
)

// searchTool exposes web search to browsing agents. Quota enforcement
// happens in the executor before the tool is ever called; by the time Call
// runs the query has already been charged against the agent's budget.
type searchTool struct {
	provider websearch.Provider
	fetcher  websearch.Fetcher
}

// SearchToolOptions configure the search tool.
type SearchToolOptions struct {
	// Fetcher, when set, downloads the top hit and appends its text to
	// the result payload.
	Fetcher websearch.Fetcher
}

// NewSearchTool constructs the web search tool.
func NewSearchTool(provider websearch.Provider, optFns ...func(o *SearchToolOptions)) Tool {
	opts := SearchToolOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &searchTool{provider: provider, fetcher: opts.Fetcher}
}

func (t *searchTool) Name() string { return "search_web" }

func (t *searchTool) Description() string {
	return "Search the web for a query and return titles, URLs and snippets of the top results."
}

func (t *searchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Search query"},
		},
		"required": []string{"query"},
	}
}

func (t *searchTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("field 'query' must be non-empty string")
	}

	results, err := t.provider.Search(tc.Context(), query)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	if len(results) == 0 {
		return "No results found.", nil
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n%s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "%s\n", r.Snippet)
		}
	}

	if t.fetcher != nil {
		if text, err := t.fetcher.Fetch(tc.Context(), results[0].URL); err == nil {
			fmt.Fprintf(&sb, "\nContent of %s:\n%s\n", results[0].URL, text)
		} else {
			tc.LogWarn("tool.search.fetch_failed", "url", results[0].URL, "error", err.Error())
		}
	}

	return sb.String(), nil
}
