package process

import (
	"context"
	"errors"
	"testing"
	"time"

	"quotepress/internal/extract"
	"quotepress/internal/match"
	"quotepress/internal/model"
)

// stubExtractor returns canned content or a canned error.
type stubExtractor struct {
	content *extract.Content
	err     error
	gotURL  string
}

func (s *stubExtractor) Extract(_ context.Context, url string) (*extract.Content, error) {
	s.gotURL = url
	if s.err != nil {
		return nil, s.err
	}
	return s.content, nil
}

func newEngine(t *testing.T, phrase string) *match.Engine {
	t.Helper()
	e, err := match.NewEngine(phrase, match.NewJaroWinkler())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func testItem() model.Item {
	return model.Item{
		ID:    "item-1",
		Link:  "https://news.example.com/redirect?url=https://paper.example.org/story",
		Title: "Senator: 'This is madness!' says critic",
		Date:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestProcess_ExtractionFails_TitleFallbackSalvaged(t *testing.T) {
	ext := &stubExtractor{err: errors.New("fetch: connection refused")}
	p := New(ext, newEngine(t, "madness"))

	got, err := p.Process(context.Background(), testItem())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got.ID != "item-1" {
		t.Errorf("ID = %q, want item-1", got.ID)
	}
	if got.URL != "https://paper.example.org/story" {
		t.Errorf("URL = %q, want the unwrapped article link", got.URL)
	}
	if len(got.Matches) != 1 || got.Matches[0] != "This is madness!" {
		t.Errorf("Matches = %v, want [\"This is madness!\"]", got.Matches)
	}
	if got.Error != "fetch: connection refused" {
		t.Errorf("Error = %q, want the extraction failure message", got.Error)
	}
}

func TestProcess_ExtractionFails_NoUsableFallback(t *testing.T) {
	ext := &stubExtractor{err: errors.New("HTTP 403")}
	p := New(ext, newEngine(t, "madness"))

	item := testItem()
	item.Title = "no relevant phrase here at all"

	_, err := p.Process(context.Background(), item)
	if err == nil {
		t.Fatal("expected tagged error when no fallback is usable")
	}
	var ie *ItemError
	if !errors.As(err, &ie) {
		t.Fatalf("error type = %T, want *ItemError", err)
	}
	if ie.ID != "item-1" {
		t.Errorf("ItemError.ID = %q, want item-1", ie.ID)
	}
	if ie.URL != "https://paper.example.org/story" {
		t.Errorf("ItemError.URL = %q, want unwrapped url", ie.URL)
	}
}

func TestProcess_Success_MatchesFromContent(t *testing.T) {
	ext := &stubExtractor{content: &extract.Content{
		Title: "Critics call the plan madness",
		Text:  "In a statement, the senator called the proposal sheer madness on Tuesday.",
	}}
	p := New(ext, newEngine(t, "madness"))

	item := testItem()
	item.Title = "nothing matching in the feed title"

	got, err := p.Process(context.Background(), item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(got.Matches) == 0 {
		t.Fatal("expected matches from extracted content")
	}
	if got.Error != "" {
		t.Errorf("Error = %q, want empty on success", got.Error)
	}
	if ext.gotURL != "https://paper.example.org/story" {
		t.Errorf("extractor called with %q, want the unwrapped url", ext.gotURL)
	}
}

func TestProcess_Success_FallbackAppendedWhenNotSubsumed(t *testing.T) {
	ext := &stubExtractor{content: &extract.Content{
		Title: "An unrelated extraction headline about madness today.",
		Text:  "Body text with no terminator but plenty of unrelated prose to read....",
	}}
	p := New(ext, newEngine(t, "madness"))

	item := testItem() // feed title carries "This is madness!"
	got, err := p.Process(context.Background(), item)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	found := false
	for _, m := range got.Matches {
		if m == "This is madness!" {
			found = true
		}
	}
	if !found {
		t.Errorf("Matches = %v, want the title fallback appended", got.Matches)
	}
	if got.Matches[len(got.Matches)-1] != "This is madness!" {
		t.Errorf("fallback should be appended last, got %v", got.Matches)
	}
}

func TestProcess_Success_FallbackSubsumedNotAppended(t *testing.T) {
	// The extracted title yields a match that already contains the feed
	// title's phrase, so the fallback must not be duplicated.
	ext := &stubExtractor{content: &extract.Content{
		Title: "Senator shouts 'This is madness!' during hearing.",
		Text:  "",
	}}
	p := New(ext, newEngine(t, "madness"))

	got, err := p.Process(context.Background(), testItem())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	count := 0
	for _, m := range got.Matches {
		if m == "This is madness!" {
			count++
		}
	}
	if count != 0 {
		t.Errorf("Matches = %v; subsumed fallback should not be appended", got.Matches)
	}
}
