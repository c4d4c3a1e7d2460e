package deck

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishipippi/kiga-ers/internal/domain"
)

// fakeLiker records Add calls in memory.
type fakeLiker struct {
	papers []*domain.Paper
	err    error
}

func (f *fakeLiker) Add(ctx context.Context, p *domain.Paper) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.papers {
		if existing.ID == p.ID {
			return nil
		}
	}
	f.papers = append(f.papers, p)
	return nil
}

func newTestSession(t *testing.T, source Searcher, liker Liker, query string) *Session {
	t.Helper()
	s := NewSession("deck-1", source, liker, Options{PageSize: 20, StackSize: 2}, zerolog.Nop())
	require.NoError(t, s.Search(context.Background(), query))
	return s
}

func TestSession_Swipe(t *testing.T) {
	t.Run("right swipe likes and advances", func(t *testing.T) {
		liker := &fakeLiker{}
		s := newTestSession(t, &fakeSearcher{total: 100}, liker, "q")

		result, err := s.Swipe(context.Background(), SwipeInput{DX: 120, DY: 5})

		require.NoError(t, err)
		assert.True(t, result.Committed)
		assert.Equal(t, DirectionRight, result.Direction)
		assert.True(t, result.Liked)
		assert.Equal(t, 1, result.Cursor)
		require.Len(t, liker.papers, 1)
		assert.Equal(t, "p000", liker.papers[0].ID)
	})

	t.Run("left swipe advances without liking", func(t *testing.T) {
		liker := &fakeLiker{}
		s := newTestSession(t, &fakeSearcher{total: 100}, liker, "q")

		result, err := s.Swipe(context.Background(), SwipeInput{DX: -120})

		require.NoError(t, err)
		assert.True(t, result.Committed)
		assert.Equal(t, DirectionLeft, result.Direction)
		assert.False(t, result.Liked)
		assert.Equal(t, 1, result.Cursor)
		assert.Empty(t, liker.papers)
	})

	t.Run("short drag snaps back without advancing", func(t *testing.T) {
		liker := &fakeLiker{}
		s := newTestSession(t, &fakeSearcher{total: 100}, liker, "q")

		result, err := s.Swipe(context.Background(), SwipeInput{DX: 40})

		require.NoError(t, err)
		assert.False(t, result.Committed)
		assert.Equal(t, 0, result.Cursor)
		assert.Equal(t, SnapBackDuration, result.Transform.Duration)
	})

	t.Run("vertical scroll is handed back", func(t *testing.T) {
		s := newTestSession(t, &fakeSearcher{total: 100}, &fakeLiker{}, "q")

		result, err := s.Swipe(context.Background(), SwipeInput{DX: 10, DY: 60})

		require.NoError(t, err)
		assert.False(t, result.Committed)
		assert.True(t, result.Scrolling)
		assert.Equal(t, 0, result.Cursor)
	})

	t.Run("cancel behaves like release", func(t *testing.T) {
		liker := &fakeLiker{}
		s := newTestSession(t, &fakeSearcher{total: 100}, liker, "q")

		result, err := s.Swipe(context.Background(), SwipeInput{DX: 120, Cancelled: true})

		require.NoError(t, err)
		assert.True(t, result.Committed)
		assert.True(t, result.Liked)
	})

	t.Run("explicit direction short-circuits the gesture", func(t *testing.T) {
		liker := &fakeLiker{}
		s := newTestSession(t, &fakeSearcher{total: 100}, liker, "q")

		result, err := s.Swipe(context.Background(), SwipeInput{Direction: DirectionRight})

		require.NoError(t, err)
		assert.True(t, result.Committed)
		assert.True(t, result.Liked)
		assert.Equal(t, 1, result.Cursor)
	})

	t.Run("invalid explicit direction is rejected", func(t *testing.T) {
		s := newTestSession(t, &fakeSearcher{total: 100}, &fakeLiker{}, "q")

		_, err := s.Swipe(context.Background(), SwipeInput{Direction: Direction("up")})

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("like failure is non-fatal", func(t *testing.T) {
		liker := &fakeLiker{err: errors.New("disk full")}
		s := newTestSession(t, &fakeSearcher{total: 100}, liker, "q")

		result, err := s.Swipe(context.Background(), SwipeInput{DX: 120})

		require.NoError(t, err)
		assert.True(t, result.Committed)
		assert.False(t, result.Liked)
		// The card is still consumed.
		assert.Equal(t, 1, result.Cursor)
	})

	t.Run("swiping an empty deck fails", func(t *testing.T) {
		source := &fakeSearcher{total: 100}
		s := NewSession("deck-2", source, &fakeLiker{}, Options{}, zerolog.Nop())

		_, err := s.Swipe(context.Background(), SwipeInput{DX: 120})

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("prefetch triggers as the stack runs low", func(t *testing.T) {
		source := &fakeSearcher{total: 100}
		s := newTestSession(t, source, &fakeLiker{}, "q")

		// Swipe through the page; near the end a second fetch fires.
		for i := 0; i < 19; i++ {
			_, err := s.Swipe(context.Background(), SwipeInput{DX: -120})
			require.NoError(t, err)
		}

		assert.Equal(t, 2, source.calls)
		assert.Equal(t, 40, s.State().Total)
	})
}

func TestSession_PlaceholderSwipes(t *testing.T) {
	t.Run("accepting the placeholder on an exhausted deck advances past it", func(t *testing.T) {
		liker := &fakeLiker{}
		s := newTestSession(t, &fakeSearcher{total: 2}, liker, "q")

		// Consume the two real cards.
		for i := 0; i < 2; i++ {
			_, err := s.Swipe(context.Background(), SwipeInput{DX: -120})
			require.NoError(t, err)
		}

		// The placeholder is now on top.
		result, err := s.Swipe(context.Background(), SwipeInput{DX: 120})
		require.NoError(t, err)
		assert.True(t, result.Committed)
		assert.False(t, result.Liked)
		assert.False(t, result.FetchTriggered)
		assert.Equal(t, 3, result.Cursor)
		assert.Empty(t, liker.papers)
		assert.Empty(t, s.Stack())
	})

	t.Run("rejecting the placeholder advances past it", func(t *testing.T) {
		s := newTestSession(t, &fakeSearcher{total: 2}, &fakeLiker{}, "q")
		for i := 0; i < 2; i++ {
			_, err := s.Swipe(context.Background(), SwipeInput{DX: -120})
			require.NoError(t, err)
		}

		result, err := s.Swipe(context.Background(), SwipeInput{DX: -120})
		require.NoError(t, err)
		assert.True(t, result.Committed)
		assert.Equal(t, 3, result.Cursor)
	})
}

func TestSession_State(t *testing.T) {
	s := newTestSession(t, &fakeSearcher{total: 5}, &fakeLiker{}, "quantum")

	st := s.State()

	assert.Equal(t, "deck-1", st.ID)
	assert.Equal(t, "quantum", st.Query)
	assert.Equal(t, 0, st.Cursor)
	assert.Equal(t, 6, st.Total)
	assert.Equal(t, "exhausted", st.Phase)
	assert.True(t, st.Exhausted)
	assert.False(t, st.CreatedAt.IsZero())
}

func TestSession_FindPaperAndAttachSummary(t *testing.T) {
	s := newTestSession(t, &fakeSearcher{total: 5}, &fakeLiker{}, "q")

	p, ok := s.FindPaper("p002")
	require.True(t, ok)
	assert.Equal(t, "p002", p.ID)

	require.NoError(t, s.AttachSummary("p002", "a concise summary"))
	p, _ = s.FindPaper("p002")
	assert.Equal(t, "a concise summary", p.Summary)

	err := s.AttachSummary("missing", "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestManager(t *testing.T) {
	t.Run("create registers a searchable session", func(t *testing.T) {
		m := NewManager(&fakeSearcher{total: 50}, &fakeLiker{}, Options{}, zerolog.Nop())

		session, err := m.Create(context.Background(), "llm agents")
		require.NoError(t, err)
		assert.Equal(t, 1, m.Len())

		got, err := m.Get(session.ID())
		require.NoError(t, err)
		assert.Same(t, session, got)
	})

	t.Run("create fails when the initial fetch fails", func(t *testing.T) {
		m := NewManager(&fakeSearcher{failAll: true}, &fakeLiker{}, Options{}, zerolog.Nop())

		_, err := m.Create(context.Background(), "q")
		require.Error(t, err)
		assert.Equal(t, 0, m.Len())
	})

	t.Run("get unknown session", func(t *testing.T) {
		m := NewManager(&fakeSearcher{total: 5}, &fakeLiker{}, Options{}, zerolog.Nop())

		_, err := m.Get("nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		m := NewManager(&fakeSearcher{total: 50}, &fakeLiker{}, Options{}, zerolog.Nop())
		session, err := m.Create(context.Background(), "q")
		require.NoError(t, err)

		m.Delete(session.ID())
		m.Delete(session.ID())
		assert.Equal(t, 0, m.Len())
	})
}
