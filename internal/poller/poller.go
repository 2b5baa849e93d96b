// Package poller watches the feed: each cycle fetches the current items,
// processes the unseen ones concurrently, merges the outcomes into the store
// and schedules a persisted snapshot.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quotepress/internal/feed"
	"quotepress/internal/model"
)

// ItemProcessor runs the extraction+matching pipeline for one item.
type ItemProcessor interface {
	Process(ctx context.Context, item model.Item) (model.Article, error)
}

// Recorder is the store surface the poller needs.
type Recorder interface {
	Has(id string) bool
	Merge(records []model.Article) int
	ScheduleSave()
}

// Poller drives the poll loop.
type Poller struct {
	fetcher   feed.Fetcher
	processor ItemProcessor
	store     Recorder
	interval  time.Duration
}

// New creates a Poller.
func New(fetcher feed.Fetcher, processor ItemProcessor, store Recorder, interval time.Duration) *Poller {
	return &Poller{fetcher: fetcher, processor: processor, store: store, interval: interval}
}

// Run polls immediately and then on every interval until ctx is cancelled.
// Cycles are not guarded against overlap; the per-id merge makes a late
// duplicate cycle harmless.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("poller started", "interval", p.interval.String())
	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("poller stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs one poll cycle. A feed failure abandons only this cycle.
func (p *Poller) PollOnce(ctx context.Context) {
	items, err := p.fetcher.Fetch(ctx)
	if err != nil {
		slog.Error("feed fetch failed", "error", err)
		return
	}

	var unseen []model.Item
	for _, item := range items {
		if !p.store.Has(item.ID) {
			unseen = append(unseen, item)
		}
	}
	if len(unseen) == 0 {
		slog.Info("poll cycle complete", "items", len(items), "new", 0)
		return
	}

	// Process every unseen item concurrently. Each failure is isolated and
	// converted to a record so one bad extraction never blocks the batch.
	var (
		mu      sync.Mutex
		records []model.Article
		wg      sync.WaitGroup
	)
	for _, item := range unseen {
		wg.Add(1)
		go func(item model.Item) {
			defer wg.Done()
			record, err := p.processor.Process(ctx, item)
			if err != nil {
				slog.Warn("item processing failed", "id", item.ID, "error", err)
				// Placeholder keeps the id known so it is not retried
				// every cycle.
				record = model.NewFailedArticle(item, feed.UnwrapLink(item.Link), nil, err.Error())
			}
			mu.Lock()
			records = append(records, record)
			mu.Unlock()
		}(item)
	}
	wg.Wait()

	added := p.store.Merge(records)
	slog.Info("poll cycle complete", "items", len(items), "new", added)
	p.store.ScheduleSave()
}
