// Package export keeps rendered batch results in memory for a short time so
// they can be downloaded after the results page is shown.
package export

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown, expired, or evicted downloads.
var ErrNotFound = errors.New("export: not found or expired")

// File is one downloadable rendering of a batch result.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type entry struct {
	files   map[string]File
	created time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store holds exports keyed by a random id. Expired entries are swept on
// every access; when full, the oldest entry is evicted.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	max     int
	now     func() time.Time
}

// NewStore creates a Store. ttl <= 0 keeps entries until evicted;
// capacity <= 0 means no bound.
func NewStore(ttl time.Duration, capacity int, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		max:     capacity,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores files under a new id and returns it.
func (s *Store) Put(files ...File) string {
	id := uuid.NewString()
	e := entry{files: make(map[string]File, len(files)), created: s.now()}
	for _, f := range files {
		e.files[f.Name] = f
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	if s.max > 0 {
		for len(s.entries) >= s.max {
			s.evictOldest()
		}
	}
	s.entries[id] = e
	return id
}

// Get returns the named file of export id.
func (s *Store) Get(id, name string) (File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return File{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	e, ok := s.entries[id]
	if !ok {
		return File{}, ErrNotFound
	}
	f, ok := e.files[name]
	if !ok {
		return File{}, ErrNotFound
	}
	return f, nil
}

// Names lists the files of export id in name order.
func (s *Store) Names(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(e.files))
	for n := range e.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of live exports.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.entries)
}

// sweep drops expired entries. Caller holds mu.
func (s *Store) sweep() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, e := range s.entries {
		if !e.created.After(cutoff) {
			delete(s.entries, id)
		}
	}
}

// evictOldest drops the entry with the earliest creation time. Caller holds mu.
func (s *Store) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.entries {
		if oldestID == "" || e.created.Before(oldest) {
			oldestID, oldest = id, e.created
		}
	}
	delete(s.entries, oldestID)
}
