// Package library implements the liked-paper store: an in-memory ordered
// collection mirrored to local SQLite storage under a single fixed key.
package library

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nishipippi/kiga-ers/internal/domain"
)

// Persister saves and restores the liked-paper list.
type Persister interface {
	// Load returns the stored list, or an empty list when nothing has
	// been stored yet.
	Load(ctx context.Context) ([]*domain.Paper, error)

	// Save replaces the stored list.
	Save(ctx context.Context, papers []*domain.Paper) error
}

// Store holds the liked papers in insertion order. The in-memory list is
// the source of truth: storage failures are logged and never corrupt or
// block the session. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	papers    []*domain.Paper
	index     map[string]int
	persister Persister
	loaded    bool
	logger    zerolog.Logger
}

// NewStore creates an empty store backed by the given persister.
func NewStore(persister Persister, logger zerolog.Logger) *Store {
	return &Store{
		index:     make(map[string]int),
		persister: persister,
		logger:    logger,
	}
}

// Load restores the list from storage. A missing or unreadable stored
// list starts the session with an empty library rather than failing.
// Mutations before Load returns do not write to storage, so a slow load
// can never be clobbered by an early like.
func (s *Store) Load(ctx context.Context) {
	papers, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("loading liked papers failed, starting empty")
		papers = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range papers {
		if p == nil || p.ID == "" {
			continue
		}
		if _, ok := s.index[p.ID]; ok {
			continue
		}
		s.index[p.ID] = len(s.papers)
		s.papers = append(s.papers, p)
	}
	s.loaded = true

	s.logger.Info().Int("count", len(s.papers)).Msg("liked papers loaded")
}

// Add appends the paper to the library. Adding a paper that is already
// present is a no-op, so repeated accepts of the same paper are safe.
func (s *Store) Add(ctx context.Context, paper *domain.Paper) error {
	if paper == nil || paper.ID == "" {
		return domain.NewValidationError("paper", "missing id")
	}

	s.mu.Lock()
	if _, ok := s.index[paper.ID]; ok {
		s.mu.Unlock()
		return nil
	}

	// Copy so later session-side mutation doesn't change the library entry.
	stored := *paper
	s.index[stored.ID] = len(s.papers)
	s.papers = append(s.papers, &stored)
	s.mu.Unlock()

	s.save(ctx)
	return nil
}

// Remove deletes the paper with the given ID. It reports whether the
// paper was present.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.papers = append(s.papers[:pos], s.papers[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.papers); i++ {
		s.index[s.papers[i].ID] = i
	}
	s.mu.Unlock()

	s.save(ctx)
	return true
}

// Contains reports whether the paper with the given ID is liked.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// List returns the liked papers in the order they were added.
func (s *Store) List() []*domain.Paper {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Paper, len(s.papers))
	copy(out, s.papers)
	return out
}

// Len returns the number of liked papers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.papers)
}

// save writes the current list to storage. Failures are logged; the
// in-memory list stays authoritative.
func (s *Store) save(ctx context.Context) {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return
	}
	snapshot := make([]*domain.Paper, len(s.papers))
	copy(snapshot, s.papers)
	s.mu.RUnlock()

	if err := s.persister.Save(ctx, snapshot); err != nil {
		s.logger.Error().Err(err).Msg("saving liked papers failed")
	}
}
