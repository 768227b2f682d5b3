package websearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DuckDuckGoOptions configure the DuckDuckGo provider.
type DuckDuckGoOptions struct {
	// Client used for HTTP requests. Defaults to a client with the
	// Settings timeout.
	Client *http.Client
	// MaxResults caps hits returned per query.
	MaxResults int
}

// DuckDuckGo implements Provider using DuckDuckGo's HTML lite interface.
// When Settings.Sites is non-empty the query is scoped to each site in turn
// and the merged hits respect MaxArticlesPerSite.
type DuckDuckGo struct {
	client     *http.Client
	settings   Settings
	maxResults int

	// serializes queries and enforces the configured wait between them
	mu   sync.Mutex
	last time.Time
}

// NewDuckDuckGo creates a DuckDuckGo provider honoring settings.
func NewDuckDuckGo(settings Settings, optFns ...func(o *DuckDuckGoOptions)) *DuckDuckGo {
	opts := DuckDuckGoOptions{
		MaxResults: 5,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Client == nil {
		timeout := settings.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		opts.Client = &http.Client{Timeout: timeout}
	}

	if settings.WaitTime <= 0 {
		settings.WaitTime = time.Second
	}

	return &DuckDuckGo{
		client:     opts.Client,
		settings:   settings,
		maxResults: opts.MaxResults,
	}
}

// Search scrapes the DuckDuckGo lite HTML page for results. Site-restricted
// settings fan the query out per site; unrestricted settings issue it once.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}

	if len(d.settings.Sites) == 0 {
		return d.searchOnce(ctx, query, d.maxResults)
	}

	perSite := d.settings.MaxArticlesPerSite
	if perSite <= 0 {
		perSite = d.maxResults
	}

	var merged []Result
	for _, site := range d.settings.Sites {
		hits, err := d.searchOnce(ctx, fmt.Sprintf("site:%s %s", site, query), perSite)
		if err != nil {
			return nil, err
		}
		merged = append(merged, hits...)
	}

	return merged, nil
}

func (d *DuckDuckGo) searchOnce(ctx context.Context, query string, limit int) ([]Result, error) {
	d.mu.Lock()
	if wait := time.Until(d.last.Add(d.settings.WaitTime)); wait > 0 {
		d.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		d.mu.Lock()
	}
	d.last = time.Now()
	d.mu.Unlock()

	// The lite HTML version is more stable for scraping.
	endpoint := "https://lite.duckduckgo.com/lite/"

	formData := url.Values{}
	formData.Set("q", query)

	var resp *http.Response

	delay := time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(formData.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err = d.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		// Back off and retry on 429, doubling the delay each time up to 30s.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseHTMLResults(string(body), limit), nil
}

var (
	// <a rel="nofollow" href="URL" class='result-link'>TITLE</a>
	reResultLink = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	// alternative ordering with class before href
	reResultLinkAlt = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)
	reSnippet       = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+(?:<[^>]+>[^<]*</[^>]+>)*[^<]*)</td>`)
	reAnyLink       = regexp.MustCompile(`<a[^>]+href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	reTag           = regexp.MustCompile(`<[^>]+>`)
)

// parseHTMLResults extracts search results from the DuckDuckGo lite HTML.
// The lite page has a simple structure with result links and snippets.
func parseHTMLResults(html string, limit int) []Result {
	var results []Result

	matches := reResultLink.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		matches = reResultLinkAlt.FindAllStringSubmatch(html, -1)
	}

	snippetMatches := reSnippet.FindAllStringSubmatch(html, -1)

	for i, match := range matches {
		if len(match) < 3 {
			continue
		}

		urlStr := strings.TrimSpace(match[1])
		title := cleanHTML(strings.TrimSpace(match[2]))

		snippet := ""
		if i < len(snippetMatches) && len(snippetMatches[i]) > 1 {
			snippet = cleanHTML(snippetMatches[i][1])
		}

		if urlStr == "" || title == "" {
			continue
		}

		results = append(results, Result{
			Title:   title,
			URL:     urlStr,
			Snippet: snippet,
		})

		if len(results) >= limit {
			break
		}
	}

	if len(results) == 0 {
		results = fallbackParse(html, limit)
	}

	return results
}

// fallbackParse tries a simpler approach: any external link with a plausible title.
func fallbackParse(html string, limit int) []Result {
	var results []Result

	matches := reAnyLink.FindAllStringSubmatch(html, -1)

	seen := make(map[string]bool)
	for _, match := range matches {
		if len(match) < 3 {
			continue
		}

		urlStr := strings.TrimSpace(match[1])
		title := cleanHTML(strings.TrimSpace(match[2]))

		// Skip DuckDuckGo internal links.
		if strings.Contains(urlStr, "duckduckgo.com") ||
			strings.HasPrefix(urlStr, "/") ||
			strings.HasPrefix(urlStr, "#") ||
			strings.HasPrefix(urlStr, "javascript:") {
			continue
		}

		if len(title) < 5 {
			continue
		}

		if seen[urlStr] {
			continue
		}
		seen[urlStr] = true

		results = append(results, Result{
			Title: title,
			URL:   urlStr,
		})

		if len(results) >= limit {
			break
		}
	}

	return results
}

// cleanHTML removes HTML tags and decodes common entities.
func cleanHTML(s string) string {
	s = reTag.ReplaceAllString(s, "")

	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")

	return strings.TrimSpace(s)
}
