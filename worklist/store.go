package worklist

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/afero"
)

// Store is a mutex-protected, accession-number-keyed worklist backed by
// a single JSON file on fs. Every mutation and every disk write happens
// under the same mutex, per the worklist store's "mutex around the
// in-memory map; disk writes are under the same mutex" concurrency
// policy — there is no separate read path that can observe a partially
// written file.
type Store struct {
	fs   afero.Fs
	path string

	mu    sync.Mutex
	items map[string]Item
}

// Open loads path from fs (an empty or absent file starts an empty
// store) and returns a Store ready for concurrent use.
func Open(fs afero.Fs, path string) (*Store, error) {
	s := &Store{fs: fs, path: path, items: make(map[string]Item)}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		// Absent file: start empty rather than failing Open, matching
		// fsbackend's treatment of a not-yet-initialized storage root.
		return s, nil
	}
	if len(data) == 0 {
		return s, nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("worklist: decode %s: %w", path, err)
	}
	for _, it := range items {
		s.items[it.AccessionNumber] = it
	}
	return s, nil
}

// Put adds or replaces the item for its accession number and persists
// the whole store to disk.
func (s *Store) Put(item Item) error {
	if item.AccessionNumber == "" {
		return fmt.Errorf("worklist: item has no accession number")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.AccessionNumber] = item
	return s.persistLocked()
}

// Remove deletes the item for accessionNumber, if present, and
// persists the change to disk.
func (s *Store) Remove(accessionNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[accessionNumber]; !ok {
		return nil
	}
	delete(s.items, accessionNumber)
	return s.persistLocked()
}

// Get returns the item for accessionNumber, if present.
func (s *Store) Get(accessionNumber string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[accessionNumber]
	return it, ok
}

// Search returns every item matching q, ordered by accession number for
// a stable response order across repeated identical queries.
func (s *Store) Search(q Query) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if q.matches(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AccessionNumber < out[j].AccessionNumber
	})
	return out
}

// persistLocked writes the full item set to s.path. Callers must hold
// s.mu.
func (s *Store) persistLocked() error {
	items := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].AccessionNumber < items[j].AccessionNumber
	})

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("worklist: encode: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("worklist: write %s: %w", s.path, err)
	}
	return nil
}
