package harvest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// GofeedParser reads RSS and Atom feeds.
type GofeedParser struct {
	parser *gofeed.Parser
}

func NewGofeedParser(userAgent string, timeout time.Duration) *GofeedParser {
	p := gofeed.NewParser()
	if userAgent != "" {
		p.UserAgent = userAgent
	}
	p.Client = &http.Client{Timeout: timeout}
	return &GofeedParser{parser: p}
}

func (p *GofeedParser) Parse(ctx context.Context, feedURL string) (*Feed, error) {
	parsed, err := p.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s failed: %w", feedURL, err)
	}
	feed := &Feed{
		Title:   parsed.Title,
		Entries: make([]Entry, 0, len(parsed.Items)),
	}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		feed.Entries = append(feed.Entries, Entry{Title: item.Title, Link: item.Link})
	}
	return feed, nil
}
