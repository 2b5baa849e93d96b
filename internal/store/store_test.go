package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quotepress/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "articles.json")
	s, err := Load(path, time.Millisecond)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func makeArticle(id string, matches ...string) model.Article {
	if matches == nil {
		matches = []string{}
	}
	return model.Article{
		ID:      id,
		URL:     "https://example.com/" + id,
		Date:    "2026-03-14T09:00:00Z",
		Matches: matches,
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"), time.Second)
	if err != nil {
		t.Fatalf("Load of missing file should not fail: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path, time.Second)
	if err != nil {
		t.Fatalf("Load of corrupt file should not fail: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0 for corrupt file", s.Len())
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	s, err := Load(path, time.Second)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	s.Merge([]model.Article{
		makeArticle("b", "second match"),
		makeArticle("a", "first match"),
	})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// The snapshot must be a plain JSON object keyed by id.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var onDisk map[string]model.Article
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if len(onDisk) != 2 {
		t.Errorf("snapshot holds %d records, want 2", len(onDisk))
	}

	reloaded, err := Load(path, time.Second)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := reloaded.Get("b")
	if !ok {
		t.Fatal("record b missing after reload")
	}
	if len(got.Matches) != 1 || got.Matches[0] != "second match" {
		t.Errorf("reloaded matches = %v", got.Matches)
	}
}

func TestMerge_NeverOverwrites(t *testing.T) {
	s := newTestStore(t)

	original := makeArticle("id-1", "original")
	if added := s.Merge([]model.Article{original}); added != 1 {
		t.Fatalf("first merge added = %d, want 1", added)
	}

	impostor := makeArticle("id-1", "impostor")
	if added := s.Merge([]model.Article{impostor, makeArticle("id-2")}); added != 1 {
		t.Errorf("second merge added = %d, want 1 (only the new id)", added)
	}

	got, _ := s.Get("id-1")
	if got.Matches[0] != "original" {
		t.Errorf("existing record was overwritten: %v", got.Matches)
	}
}

func TestSnapshot_InsertionOrder(t *testing.T) {
	s := newTestStore(t)
	s.Merge([]model.Article{makeArticle("z"), makeArticle("a")})
	s.Merge([]model.Article{makeArticle("m")})

	snap := s.Snapshot()
	want := []string{"z", "a", "m"}
	if len(snap) != len(want) {
		t.Fatalf("snapshot len = %d, want %d", len(snap), len(want))
	}
	for i, id := range want {
		if snap[i].ID != id {
			t.Errorf("snapshot[%d] = %q, want %q", i, snap[i].ID, id)
		}
	}
}

func TestSave_EmitsEvents(t *testing.T) {
	s := newTestStore(t)
	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(events) != 2 || events[0] != EventSaving || events[1] != EventSaved {
		t.Errorf("events = %v, want [saving saved]", events)
	}
}

func TestScheduleSave_Debounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	s, err := Load(path, 30*time.Millisecond)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	saves := make(chan Event, 8)
	s.Subscribe(func(e Event) {
		if e == EventSaved {
			saves <- e
		}
	})

	s.Merge([]model.Article{makeArticle("id-1")})
	s.ScheduleSave()
	s.ScheduleSave()
	s.ScheduleSave()

	select {
	case <-saves:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced save never ran")
	}

	// Collapsed into one write.
	select {
	case <-saves:
		t.Error("multiple saves ran for rapid successive schedules")
	case <-time.After(100 * time.Millisecond):
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot file missing after debounced save: %v", err)
	}
}

func TestFlush_CancelsPendingSave(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "articles.json"), time.Second)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	saved := 0
	s.Subscribe(func(e Event) {
		if e == EventSaved {
			saved++
		}
	})

	s.Merge([]model.Article{makeArticle("id-1")})
	s.ScheduleSave()
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if saved != 1 {
		t.Errorf("saved %d times, want exactly 1", saved)
	}
}
