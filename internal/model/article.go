package model

import "time"

// Item is one entry from the watched feed. The ID is whatever identifier the
// feed assigns (GUID, falling back to the link) and is the sole dedup key.
type Item struct {
	ID    string
	Link  string
	Title string
	Date  time.Time
}

// Article is the stored outcome of processing one feed item. Once created it
// is never modified; a repeated id is skipped by the poller.
type Article struct {
	ID      string   `json:"id"`
	URL     string   `json:"url"`
	Date    string   `json:"date"`
	Matches []string `json:"matches"`
	Error   string   `json:"error,omitempty"`
}

// NewArticle creates a successfully processed Article.
func NewArticle(item Item, url string, matches []string) Article {
	if matches == nil {
		matches = []string{}
	}
	return Article{
		ID:      item.ID,
		URL:     url,
		Date:    item.Date.UTC().Format(time.RFC3339),
		Matches: matches,
	}
}

// NewFailedArticle creates an Article for an item whose extraction failed.
// Matches holds whatever was salvaged from the title (possibly nothing), so
// the item is still recorded as seen and never refetched.
func NewFailedArticle(item Item, url string, matches []string, errMsg string) Article {
	a := NewArticle(item, url, matches)
	a.Error = errMsg
	return a
}

// PublishedAt parses the feed-supplied publish time.
func (a Article) PublishedAt() (time.Time, error) {
	return time.Parse(time.RFC3339, a.Date)
}
