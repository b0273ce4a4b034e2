// ABOUTME: DuckDuckGo web search over the lite HTML endpoint
// ABOUTME: Enforces a global 1 QPS limit, backs off on 429, and parses results with x/net/html
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/harper/study-agent/internal/models"
)

const (
	// DefaultEndpoint is the lite HTML search page
	DefaultEndpoint = "https://lite.duckduckgo.com/lite/"
	// DefaultRegion biases results toward Indian English sources
	DefaultRegion = "in-en"

	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBackoff = 30 * time.Second
	maxRetries = 4
)

// rateLimit is shared by every DuckDuckGo value in the process
var rateLimit struct {
	mu   sync.Mutex
	last time.Time
}

// DuckDuckGo implements web search against DuckDuckGo lite
type DuckDuckGo struct {
	client   *http.Client
	endpoint string
	region   string
	interval time.Duration
}

// Option configures a DuckDuckGo searcher
type Option func(*DuckDuckGo)

// WithClient sets the HTTP client
func WithClient(client *http.Client) Option {
	return func(d *DuckDuckGo) { d.client = client }
}

// WithEndpoint points the searcher at another URL (tests)
func WithEndpoint(endpoint string) Option {
	return func(d *DuckDuckGo) { d.endpoint = endpoint }
}

// WithRegion sets the kl region code
func WithRegion(region string) Option {
	return func(d *DuckDuckGo) { d.region = region }
}

// WithMinInterval sets the minimum spacing between queries
func WithMinInterval(interval time.Duration) Option {
	return func(d *DuckDuckGo) { d.interval = interval }
}

// NewDuckDuckGo creates a searcher with a 15s timeout and the in-en region
func NewDuckDuckGo(opts ...Option) *DuckDuckGo {
	d := &DuckDuckGo{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: DefaultEndpoint,
		region:   DefaultRegion,
		interval: time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Search returns up to limit results for query
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}

	if err := d.wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("q", query)
	if d.region != "" {
		form.Set("kl", d.region)
	}

	resp, err := d.post(ctx, form)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	results, err := ParseResults(string(body))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// wait blocks until the global rate limit allows another query
func (d *DuckDuckGo) wait(ctx context.Context) error {
	rateLimit.mu.Lock()
	defer rateLimit.mu.Unlock()

	if wait := time.Until(rateLimit.last.Add(d.interval)); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	rateLimit.last = time.Now()
	return nil
}

// post sends the form, doubling the delay on each 429 up to maxBackoff
func (d *DuckDuckGo) post(ctx context.Context, form url.Values) (*http.Response, error) {
	delay := d.interval
	if delay <= 0 {
		delay = time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := d.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}
		_ = resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxBackoff)
	}
}

// ParseResults extracts titles, URLs, and snippets from a lite results page
func ParseResults(page string) ([]models.SearchResult, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var results []models.SearchResult
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result-link"):
				title := strings.TrimSpace(textContent(n))
				link := resolveLink(attr(n, "href"))
				if title != "" && link != "" {
					results = append(results, models.SearchResult{Title: title, URL: link})
				}
				return
			case n.Data == "td" && hasClass(n, "result-snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = collapseSpace(textContent(n))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results, nil
}

// resolveLink unwraps DuckDuckGo redirect links to the target URL
func resolveLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
