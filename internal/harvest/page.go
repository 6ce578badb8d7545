package harvest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const DefaultPageTimeout = 15 * time.Second

// PageTextFetcher downloads a page and returns its visible body text.
type PageTextFetcher struct {
	httpClient *http.Client
	userAgent  string
}

func NewPageTextFetcher(userAgent string, timeout time.Duration) *PageTextFetcher {
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	return &PageTextFetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

func (f *PageTextFetcher) FetchText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build page request failed: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch page failed: status=%d", resp.StatusCode)
	}

	// decode from the declared or sniffed charset to UTF-8
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode page charset failed: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse page failed: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}
