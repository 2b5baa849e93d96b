// Package process runs the per-item pipeline: resolve the real article URL,
// extract its content, and collect phrase matches. It never fails a batch;
// every outcome is captured in the returned record or a tagged error.
package process

import (
	"context"
	"fmt"

	"quotepress/internal/extract"
	"quotepress/internal/feed"
	"quotepress/internal/match"
	"quotepress/internal/model"
)

// Processor turns one feed item into a stored Article.
type Processor struct {
	extractor extract.Extractor
	engine    *match.Engine
}

// New creates a Processor with the given collaborators.
func New(extractor extract.Extractor, engine *match.Engine) *Processor {
	return &Processor{extractor: extractor, engine: engine}
}

// ItemError tags an unrecoverable processing failure with the item identity
// so the caller can log it and still record the item as seen.
type ItemError struct {
	ID  string
	URL string
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("process item %s (%s): %v", e.ID, e.URL, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Process extracts and matches a single feed item.
//
// On extraction failure the title fallback phrase stands in when it passes
// validation; the failure message is kept on the record. Only when no
// fallback is usable does Process return an error, and even then the caller
// is expected to record a placeholder so the item is never retried.
func (p *Processor) Process(ctx context.Context, item model.Item) (model.Article, error) {
	articleURL := feed.UnwrapLink(item.Link)

	// Computed eagerly: needed on both the success and the failure path.
	fallback := p.engine.TitleFallback(item.Title)

	content, err := p.extractor.Extract(ctx, articleURL)
	if err != nil {
		if match.ValidFallback(fallback) {
			return model.NewFailedArticle(item, articleURL, []string{fallback}, err.Error()), nil
		}
		return model.Article{}, &ItemError{ID: item.ID, URL: articleURL, Err: err}
	}

	matches := p.engine.Extract(content.Title, content.Text)
	if match.ValidFallback(fallback) && !match.Subsumed(fallback, matches) {
		matches = append(matches, fallback)
	}
	return model.NewArticle(item, articleURL, matches), nil
}
