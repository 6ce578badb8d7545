// Package websearch scrapes a web search engine's result page for the
// retrieval fallback tier.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const DefaultUserAgent = "Mozilla/5.0 (compatible; newsrag/0.1)"

// Result is a single ranked web hit.
type Result struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Config struct {
	Enabled   bool
	Endpoint  string // results page, the query is appended as ?wd=
	UserAgent string
	Timeout   time.Duration
}

// BaiduClient returns the top organic results from a Baidu results page.
type BaiduClient struct {
	cfg        Config
	httpClient *http.Client
}

func NewBaiduClient(cfg Config) *BaiduClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://www.baidu.com/s"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &BaiduClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// TopResults returns at most topK results. A disabled client returns nothing.
func (c *BaiduClient) TopResults(ctx context.Context, query string, topK int) ([]Result, error) {
	if !c.cfg.Enabled || topK <= 0 {
		return nil, nil
	}

	base, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse web search endpoint failed: %w", err)
	}
	q := base.Query()
	q.Set("wd", query)
	base.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build web search request failed: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("web search response status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse web search page failed: %w", err)
	}

	var out []Result
	doc.Find("div.result, div.result-op").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		a := el.Find("h3 a").First()
		if a.Length() == 0 {
			return true
		}
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		out = append(out, Result{
			Title: strings.TrimSpace(a.Text()),
			URL:   absoluteURL(base, href),
		})
		return len(out) < topK
	})
	return out, nil
}

func absoluteURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
