package deck

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nishipippi/kiga-ers/internal/domain"
	"github.com/nishipippi/kiga-ers/internal/observability"
)

// Manager holds the live deck sessions keyed by ID. It is safe for
// concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	source Searcher
	liker  Liker
	opts   Options
	logger zerolog.Logger
}

// NewManager creates an empty session manager.
func NewManager(source Searcher, liker Liker, opts Options, logger zerolog.Logger) *Manager {
	opts.applyDefaults()
	return &Manager{
		sessions: make(map[string]*Session),
		source:   source,
		liker:    liker,
		opts:     opts,
		logger:   logger,
	}
}

// Create makes a new session and runs its initial search. The session is
// not registered if the initial fetch fails.
func (m *Manager) Create(ctx context.Context, query string) (*Session, error) {
	id := uuid.NewString()
	session := NewSession(id, m.source, m.liker, m.opts, m.logger)

	if err := session.Search(ctx, query); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	logger := observability.WithDeckContext(m.logger, id, query)
	logger.Info().Msg("deck created")
	return session, nil
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, domain.NewNotFoundError("deck", id)
	}
	return session, nil
}

// Delete removes the session with the given ID. Deleting an unknown ID is
// a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
