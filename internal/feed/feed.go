// Package feed fetches the watched syndication feed.
package feed

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"quotepress/internal/model"
)

// Fetcher abstracts feed retrieval.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.Item, error)
}

// RSSFetcher retrieves and parses a single RSS/Atom feed.
type RSSFetcher struct {
	parser *gofeed.Parser
	url    string
}

// NewFetcher creates a fetcher for the given feed URL.
func NewFetcher(feedURL string) *RSSFetcher {
	return &RSSFetcher{parser: gofeed.NewParser(), url: feedURL}
}

// Fetch returns the feed's current items in feed order.
func (f *RSSFetcher) Fetch(ctx context.Context) ([]model.Item, error) {
	parsed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	items := make([]model.Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		// Use GUID if available, otherwise fall back to the link.
		id := it.GUID
		if id == "" {
			id = it.Link
		}

		var pub time.Time
		if it.PublishedParsed != nil {
			pub = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			pub = *it.UpdatedParsed
		}

		items = append(items, model.Item{
			ID:    id,
			Link:  it.Link,
			Title: it.Title,
			Date:  pub,
		})
	}
	return items, nil
}

// UnwrapLink resolves the true article URL from a feed link that routes
// through a redirect or tracking wrapper carrying the target as a "url"
// query parameter. Links without the parameter are returned unchanged.
func UnwrapLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := u.Query().Get("url"); target != "" {
		return target
	}
	return link
}
