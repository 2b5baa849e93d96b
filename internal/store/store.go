// Package store keeps the id→article mapping in memory and mirrors it to a
// single human-readable JSON snapshot file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quotepress/internal/model"
)

// Event is a persistence lifecycle notification.
type Event string

const (
	EventSaving Event = "saving"
	EventSaved  Event = "saved"
)

// Reader provides snapshot access to stored articles.
type Reader interface {
	Get(id string) (model.Article, bool)
	Has(id string) bool
	Snapshot() []model.Article
}

// Verify at compile time that Store satisfies the read contract.
var _ Reader = (*Store)(nil)

// Store is an append-mostly mapping of article id to record. Records are
// merged by the poller and never overwritten; the print scheduler only reads.
type Store struct {
	mu       sync.RWMutex
	path     string
	articles map[string]model.Article
	order    []string // insertion order, the scan order for printing

	saveDelay time.Duration
	saveTimer *time.Timer

	subscribers []func(Event)
}

// Load reads the snapshot at path. A missing or corrupt file yields an empty
// store; only a file that exists but cannot be read is an error.
func Load(path string, saveDelay time.Duration) (*Store, error) {
	s := &Store{
		path:      path,
		articles:  make(map[string]model.Article),
		saveDelay: saveDelay,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var byID map[string]model.Article
	if err := json.Unmarshal(data, &byID); err != nil {
		slog.Warn("store file corrupt, starting empty", "path", path, "error", err)
		return s, nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	// The snapshot file carries no ordering of its own (it is a JSON object
	// with sorted keys), so loaded records scan in sorted-id order.
	sort.Strings(ids)
	for _, id := range ids {
		a := byID[id]
		if a.ID == "" {
			a.ID = id
		}
		s.articles[id] = a
		s.order = append(s.order, id)
	}
	return s, nil
}

// Subscribe registers fn to receive persistence events.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify(e Event) {
	s.mu.RLock()
	subs := make([]func(Event), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}

// Has reports whether an article id is already known.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.articles[id]
	return ok
}

// Get returns the stored article for id.
func (s *Store) Get(id string) (model.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	return a, ok
}

// Merge adds records under new ids only; an existing id is never overwritten,
// which keeps the merge idempotent under overlapping poll cycles. It returns
// the number of records actually added.
func (s *Store) Merge(records []model.Article) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, r := range records {
		if _, exists := s.articles[r.ID]; exists {
			continue
		}
		s.articles[r.ID] = r
		s.order = append(s.order, r.ID)
		added++
	}
	return added
}

// Snapshot returns all articles in insertion order.
func (s *Store) Snapshot() []model.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Article, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.articles[id])
	}
	return out
}

// Len returns the number of stored articles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}

// Save writes the full snapshot to the store file, replacing it atomically
// via a temp file and rename.
func (s *Store) Save() error {
	s.notify(EventSaving)

	s.mu.RLock()
	data, err := json.MarshalIndent(s.articles, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp := s.path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace store file: %w", err)
	}

	s.notify(EventSaved)
	return nil
}

// ScheduleSave arranges a Save after the settle delay. Successive calls
// within the delay collapse into one write; a save failure is surfaced in the
// log and the in-memory state simply stays ahead of the file until the next
// successful write.
func (s *Store) ScheduleSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.saveDelay, func() {
		if err := s.Save(); err != nil {
			slog.Error("store save failed", "path", s.path, "error", err)
		}
	})
}

// Flush cancels any pending debounced save and writes immediately.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	s.mu.Unlock()
	return s.Save()
}
