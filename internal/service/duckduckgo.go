package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fundsight/analyst/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// DuckDuckGoService searches the web through DuckDuckGo's HTML endpoint.
type DuckDuckGoService struct {
	client    *http.Client
	endpoint  string
	region    string
	userAgent string
	limiter   *rate.Limiter
}

// NewDuckDuckGoService creates a search client. ratePerSecond <= 0 disables pacing.
func NewDuckDuckGoService(endpoint, region, userAgent string, ratePerSecond float64, timeout time.Duration) *DuckDuckGoService {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &DuckDuckGoService{
		client:    newHTTPClient(timeout),
		endpoint:  endpoint,
		region:    region,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Search implements SearchProvider.
func (s *DuckDuckGoService) Search(ctx context.Context, query string, max int) ([]models.NewsItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if max <= 0 {
		return nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	form := url.Values{}
	form.Set("q", query)
	if s.region != "" {
		form.Set("kl", s.region)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	items := parseResults(doc, max)

	log.Debug().
		Str("query", query).
		Int("results", len(items)).
		Msg("news search")

	return items, nil
}

// parseResults walks the result page collecting organic hits (ads skipped).
func parseResults(doc *html.Node, max int) []models.NewsItem {
	var items []models.NewsItem
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(items) >= max {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") && !hasClass(n, "result--ad") {
			if item, ok := parseResult(n); ok {
				items = append(items, item)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return items
}

func parseResult(n *html.Node) (models.NewsItem, bool) {
	var item models.NewsItem
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a") && item.Title == "":
				item.Title = textContent(n)
				item.URL = resolveLink(attr(n, "href"))
			case hasClass(n, "result__snippet") && item.Body == "":
				item.Body = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return item, item.Title != ""
}

// resolveLink unwraps DuckDuckGo's /l/?uddg=<target> redirect links.
func resolveLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
