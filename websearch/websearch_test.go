package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const liteHTML = `
<html><body><table>
<tr><td><a rel="nofollow" class='result-link' href="https://example.com/go">Go &amp; Concurrency</a></td></tr>
<tr><td class='result-snippet'>Goroutines are lightweight threads managed by the runtime.</td></tr>
<tr><td><a rel="nofollow" class='result-link' href="https://example.org/channels">Channels explained</a></td></tr>
<tr><td class='result-snippet'>Channels connect concurrent goroutines.</td></tr>
</table></body></html>`

func TestParseHTMLResults(t *testing.T) {
	results := parseHTMLResults(liteHTML, 5)
	require.Len(t, results, 2)

	assert.Equal(t, "Go & Concurrency", results[0].Title)
	assert.Equal(t, "https://example.com/go", results[0].URL)
	assert.Equal(t, "Goroutines are lightweight threads managed by the runtime.", results[0].Snippet)

	assert.Equal(t, "Channels explained", results[1].Title)
}

func TestParseHTMLResults_Limit(t *testing.T) {
	results := parseHTMLResults(liteHTML, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com/go", results[0].URL)
}

func TestParseHTMLResults_Fallback(t *testing.T) {
	html := `<html><body>
<a href="/internal">internal nav</a>
<a href="https://duckduckgo.com/about">About DuckDuckGo</a>
<a href="https://blog.example.com/post">A long enough article title</a>
</body></html>`

	results := parseHTMLResults(html, 5)
	require.Len(t, results, 1)
	assert.Equal(t, "https://blog.example.com/post", results[0].URL)
	assert.Equal(t, "A long enough article title", results[0].Title)
}

func TestCleanHTML(t *testing.T) {
	assert.Equal(t, "a < b & c", cleanHTML(" a &lt; b <b>&amp;</b> c "))
}

func TestHTTPFetcher_StripsAndTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`<html><head><style>p{color:red}</style></head>
<body><nav>menu</nav><p>Hello &amp; welcome</p><script>alert(1)</script></body></html>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "Hello & welcome")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "menu")
	assert.NotContains(t, text, "color:red")
}

func TestHTTPFetcher_TruncatesOnRuneBoundary(t *testing.T) {
	// Three-byte runes do not divide the byte limit evenly, so a byte-offset
	// cut would land mid-rune.
	big := strings.Repeat("☃", 15000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(big))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()
	text, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(text, "\n[TRUNCATED]"))
	assert.True(t, utf8.ValidString(text))
	assert.Less(t, len(text), len(big))
}

func TestHTTPFetcher_EmptyURL(t *testing.T) {
	f := NewHTTPFetcher()
	_, err := f.Fetch(context.Background(), "  ")
	require.Error(t, err)
}

func TestDuckDuckGo_SiteScopedQueries(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		queries = append(queries, r.Form.Get("q"))
		_, _ = w.Write([]byte(liteHTML))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(Settings{
		WaitTime:           time.Millisecond,
		Sites:              []string{"example.com", "example.org"},
		MaxArticlesPerSite: 1,
	})
	// Point the provider at the test server through a rewriting transport.
	d.client = &http.Client{Transport: rewriteTransport{base: srv.URL}}

	results, err := d.Search(context.Background(), "goroutines")
	require.NoError(t, err)

	require.Len(t, queries, 2)
	assert.True(t, strings.HasPrefix(queries[0], "site:example.com "))
	assert.True(t, strings.HasPrefix(queries[1], "site:example.org "))
	assert.Len(t, results, 2, "one hit per site")
}

func TestDuckDuckGo_EmptyQuery(t *testing.T) {
	d := NewDuckDuckGo(Settings{})
	_, err := d.Search(context.Background(), "   ")
	require.Error(t, err)
}

// rewriteTransport redirects every request to the test server.
type rewriteTransport struct {
	base string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	outReq := req.Clone(req.Context())
	target := t.base + req.URL.Path
	u, err := outReq.URL.Parse(target)
	if err != nil {
		return nil, err
	}
	outReq.URL = u
	return http.DefaultTransport.RoundTrip(outReq)
}
