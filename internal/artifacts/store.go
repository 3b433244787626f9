package artifacts

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/crimson-sun/cropcast/internal/model"
)

var errClosed = &model.ArtifactLoadError{Artifact: "bundle", Err: errors.New("artifact store is closed")}

// Store holds the current Bundle. Readers see a consistent Bundle for the
// duration of Use; Reload swaps in a new one without disturbing them.
type Store struct {
	mu      sync.RWMutex
	current *Bundle
	load    func() (*Bundle, error)
}

// NewStore performs the initial load. A failure here is returned as is; the
// caller decides whether it is fatal.
func NewStore(load func() (*Bundle, error)) (*Store, error) {
	b, err := load()
	if err != nil {
		return nil, err
	}
	return &Store{current: b, load: load}, nil
}

// Use runs fn against the current Bundle. The Bundle is not closed while fn runs.
func (s *Store) Use(fn func(*Bundle) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return errClosed
	}
	return fn(s.current)
}

// Current returns the active Bundle without pinning it. Intended for
// read-only metadata such as LoadedAt; use Use for predictions.
func (s *Store) Current() *Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload loads a fresh Bundle and swaps it in. On failure the previous Bundle
// stays active and the error is returned.
func (s *Store) Reload() error {
	next, err := s.load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		next.Close()
		return errClosed
	}
	prev := s.current
	s.current = next
	s.mu.Unlock()

	// Lock above waited for in-flight readers, so nothing still uses prev.
	if err := prev.Close(); err != nil {
		slog.Warn("closing previous artifact bundle", "error", err)
	}
	slog.Info("artifacts reloaded", "dir", next.Dir, "loaded_at", next.LoadedAt)
	return nil
}

// Close releases the current Bundle. Later Use calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}
