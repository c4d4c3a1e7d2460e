package deck

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nishipippi/kiga-ers/internal/domain"
)

// Liker records papers the user accepted.
type Liker interface {
	Add(ctx context.Context, paper *domain.Paper) error
}

// Options configures a deck session.
type Options struct {
	// PageSize is the number of results fetched per page.
	PageSize int

	// StackSize is the number of visible cards; it also sets the prefetch
	// threshold.
	StackSize int
}

func (o *Options) applyDefaults() {
	if o.PageSize == 0 {
		o.PageSize = 20
	}
	if o.StackSize == 0 {
		o.StackSize = StackSize
	}
}

// Session is one user's swipe deck: a pagination controller, a gesture
// recognizer, and the link to the liked-paper store. All methods are safe
// for concurrent use.
type Session struct {
	mu sync.Mutex

	id         string
	createdAt  time.Time
	controller *Controller
	recognizer *Recognizer
	liker      Liker
	logger     zerolog.Logger
}

// NewSession creates a deck session. The deck is empty until Search is
// called.
func NewSession(id string, source Searcher, liker Liker, opts Options, logger zerolog.Logger) *Session {
	opts.applyDefaults()
	logger = logger.With().Str("deck_id", id).Logger()

	return &Session{
		id:         id,
		createdAt:  time.Now(),
		controller: NewController(source, opts.PageSize, opts.StackSize, logger),
		recognizer: NewRecognizer(),
		liker:      liker,
		logger:     logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Search starts a new search, replacing the current result set and
// resetting the cursor.
func (s *Session) Search(ctx context.Context, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.NewSearch(ctx, query)
}

// SwipeInput is one swipe attempt: either an explicit control press
// (Direction set) or a drag release (DX/DY displacement since touch-down).
type SwipeInput struct {
	Direction Direction
	DX        float64
	DY        float64

	// Cancelled marks a touch-cancel instead of a touch-end. The outcome
	// is identical.
	Cancelled bool
}

// SwipeResult reports what the swipe did.
type SwipeResult struct {
	Committed bool      `json:"committed"`
	Direction Direction `json:"direction,omitempty"`
	Scrolling bool      `json:"scrolling,omitempty"`
	Liked     bool      `json:"liked,omitempty"`

	// FetchTriggered is true when accepting the placeholder started a new
	// fetch instead of advancing.
	FetchTriggered bool `json:"fetch_triggered,omitempty"`

	Cursor    int       `json:"cursor"`
	Transform Transform `json:"transform"`
}

// Swipe runs one complete gesture against the top card and applies the
// outcome: advance on commit, add to the library on accept, trigger
// prefetch when the stack runs low.
func (s *Session) Swipe(ctx context.Context, in SwipeInput) (SwipeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	top := s.controller.Results().At(s.controller.Cursor())
	if top == nil {
		return SwipeResult{}, domain.NewValidationError("deck", "no card to swipe")
	}

	outcome, err := s.runGesture(in)
	if err != nil {
		return SwipeResult{}, err
	}

	result := SwipeResult{
		Committed: outcome.Committed,
		Direction: outcome.Direction,
		Scrolling: outcome.Scrolling,
		Transform: outcome.Transform,
	}

	if !outcome.Committed {
		s.recognizer.Settle()
		result.Cursor = s.controller.Cursor()
		return result, nil
	}

	s.recognizer.FlyOut()

	if top.IsPlaceholder {
		if outcome.Direction == DirectionRight && !s.controller.Exhausted() {
			// Accepting the end-of-results card asks for more papers; the
			// cursor stays put so new cards appear behind the placeholder.
			result.FetchTriggered = true
			if err := s.controller.ForceFetchMore(ctx); err != nil {
				s.recognizer.Settle()
				result.Cursor = s.controller.Cursor()
				return result, nil
			}
		} else {
			s.controller.Advance()
		}
	} else {
		if outcome.Direction == DirectionRight {
			if err := s.liker.Add(ctx, top); err != nil {
				s.logger.Warn().Err(err).Str("paper_id", top.ID).Msg("like failed")
			} else {
				result.Liked = true
			}
		}
		s.controller.Advance()
		// Prefetch failures are retried on the next swipe.
		_ = s.controller.MaybeFetchMore(ctx)
	}

	s.recognizer.Settle()
	result.Cursor = s.controller.Cursor()
	return result, nil
}

// runGesture drives the recognizer through one touch sequence.
func (s *Session) runGesture(in SwipeInput) (Outcome, error) {
	if in.Direction != "" {
		if !in.Direction.Valid() {
			return Outcome{}, domain.NewValidationError("direction", "must be left or right")
		}
		outcome, ok := s.recognizer.CommitExplicit(in.Direction)
		if !ok {
			// A previous card is still animating; drop the press.
			return Outcome{}, nil
		}
		return outcome, nil
	}

	if !s.recognizer.Begin() {
		return Outcome{}, nil
	}
	s.recognizer.Move(in.DX, in.DY)
	if in.Cancelled {
		return s.recognizer.Cancel(), nil
	}
	return s.recognizer.Release(), nil
}

// State is a snapshot of the deck for API responses.
type State struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Cursor    int       `json:"cursor"`
	Total     int       `json:"total"`
	Phase     string    `json:"phase"`
	Exhausted bool      `json:"exhausted"`
	CreatedAt time.Time `json:"created_at"`
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		ID:        s.id,
		Query:     s.controller.Query(),
		Cursor:    s.controller.Cursor(),
		Total:     s.controller.Results().Len(),
		Phase:     s.controller.Phase().String(),
		Exhausted: s.controller.Exhausted(),
		CreatedAt: s.createdAt,
	}
}

// Stack returns the visible card stack.
func (s *Session) Stack() []CardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stack(s.controller.Results(), s.controller.Cursor())
}

// FindPaper returns the paper with the given ID from the result set.
func (s *Session) FindPaper(id string) (*domain.Paper, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Results().Find(id)
}

// AttachSummary stores a generated summary on the paper.
func (s *Session) AttachSummary(id, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.controller.Results().Find(id)
	if !ok {
		return domain.NewNotFoundError("paper", id)
	}
	p.Summary = summary
	return nil
}
