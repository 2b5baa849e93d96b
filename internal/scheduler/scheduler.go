// Package scheduler runs the print rotation: an independent, jittered,
// self-rescheduling timer loop that picks one eligible article per cycle and
// drives the printer.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"quotepress/internal/model"
	"quotepress/internal/printer"
)

// Source provides the article snapshot the scheduler selects from.
type Source interface {
	Snapshot() []model.Article
}

// Scheduler selects the next unprinted article within the recency window and
// prints its matches. Selections already made in the current rotation are
// tracked in memory only; a restart starts a fresh rotation.
type Scheduler struct {
	source   Source
	printer  printer.Printer
	interval time.Duration
	window   time.Duration

	printed map[string]struct{}

	now     func() time.Time
	randVal func() float64
}

// New creates a Scheduler printing every interval (±10% jitter), considering
// only articles published within window of the selection moment.
func New(source Source, p printer.Printer, interval, window time.Duration) *Scheduler {
	return &Scheduler{
		source:   source,
		printer:  p,
		interval: interval,
		window:   window,
		printed:  make(map[string]struct{}),
		now:      time.Now,
		randVal:  rand.Float64,
	}
}

// Run executes the print loop until ctx is cancelled. A failed cycle is
// logged and the loop reschedules regardless.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("print scheduler started", "interval", s.interval.String(), "window", s.window.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("print scheduler stopped")
			return
		case <-time.After(s.jitteredDelay()):
		}
		if err := s.Tick(); err != nil {
			slog.Error("print cycle failed", "error", err)
		}
	}
}

// jitteredDelay varies the base interval by up to ±10% so prints are not
// perfectly periodic.
func (s *Scheduler) jitteredDelay() time.Duration {
	jitter := (s.randVal()*0.2 - 0.1) * float64(s.interval)
	return s.interval + time.Duration(jitter)
}

// Tick runs one print cycle: open the device, select the next eligible
// article, print its matches line by line, cut, close. Having nothing
// eligible is not an error; a device fault is.
func (s *Scheduler) Tick() error {
	if err := s.printer.Open(); err != nil {
		return fmt.Errorf("open printer: %w", err)
	}

	article, ok := s.selectNext()
	if ok {
		slog.Info("printing article", "id", article.ID, "matches", len(article.Matches))
		for _, m := range article.Matches {
			if err := s.printer.PrintLine(m); err != nil {
				s.printer.Close()
				return fmt.Errorf("print line: %w", err)
			}
		}
		if err := s.printer.Cut(); err != nil {
			s.printer.Close()
			return fmt.Errorf("cut: %w", err)
		}
	} else {
		slog.Info("no eligible article to print")
	}

	if err := s.printer.Close(); err != nil {
		return fmt.Errorf("close printer: %w", err)
	}
	return nil
}

// selectNext scans the snapshot in iteration order and returns the first
// not-yet-printed article with at least one match published strictly after
// the recency cutoff. Every id passed over is marked printed so it is not
// reconsidered until the rotation wraps.
func (s *Scheduler) selectNext() (model.Article, bool) {
	articles := s.source.Snapshot()

	if s.allPrinted(articles) {
		// Full-rotation wraparound: every id has been selected once, so the
		// pool reopens instead of starving older eligible articles.
		s.printed = make(map[string]struct{})
	}

	cutoff := s.now().Add(-s.window)
	for _, a := range articles {
		if _, done := s.printed[a.ID]; done {
			continue
		}
		s.printed[a.ID] = struct{}{}
		if len(a.Matches) == 0 {
			continue
		}
		published, err := a.PublishedAt()
		if err != nil || !published.After(cutoff) {
			continue
		}
		return a, true
	}
	return model.Article{}, false
}

func (s *Scheduler) allPrinted(articles []model.Article) bool {
	if len(articles) == 0 {
		return false
	}
	for _, a := range articles {
		if _, done := s.printed[a.ID]; !done {
			return false
		}
	}
	return true
}
