package deck

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nishipippi/kiga-ers/internal/domain"
)

// FetchPhase is the pagination controller's fetch state.
type FetchPhase int

const (
	// PhaseIdle means no fetch is running and more results may exist.
	PhaseIdle FetchPhase = iota

	// PhaseFetchingInitial means the first page of a new search is loading.
	PhaseFetchingInitial

	// PhaseFetchingMore means a follow-up page is loading.
	PhaseFetchingMore

	// PhaseExhausted means the source returned a short page; no further
	// fetches will be made for this query.
	PhaseExhausted
)

// String returns the lower-case phase name used in API responses and logs.
func (p FetchPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetchingInitial:
		return "fetching_initial"
	case PhaseFetchingMore:
		return "fetching_more"
	case PhaseExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// InFlight reports whether a fetch is currently running.
func (p FetchPhase) InFlight() bool {
	return p == PhaseFetchingInitial || p == PhaseFetchingMore
}

// Searcher fetches one page of search results.
type Searcher interface {
	Search(ctx context.Context, query string, offset, pageSize int) ([]*domain.Paper, error)
}

// EndOfResultsMessage is shown on the placeholder card.
const EndOfResultsMessage = "You've seen everything for this search. Try a new query!"

// Controller drives pagination for one search session: it owns the result
// set, the read cursor, and the fetch phase.
//
// Controller is not safe for concurrent use; the owning Session serializes
// access.
type Controller struct {
	source    Searcher
	logger    zerolog.Logger
	pageSize  int
	stackSize int

	query   string
	results *ResultSet
	cursor  int
	phase   FetchPhase

	// fetchedCount is the raw number of entries received from the source,
	// before de-duplication. Using it as the next offset keeps pagination
	// aligned with the source even when pages overlap.
	fetchedCount int
}

// NewController creates a pagination controller. pageSize is the number of
// results requested per fetch; stackSize is how many cards the presenter
// shows, which sets the prefetch threshold.
func NewController(source Searcher, pageSize, stackSize int, logger zerolog.Logger) *Controller {
	return &Controller{
		source:    source,
		logger:    logger,
		pageSize:  pageSize,
		stackSize: stackSize,
		results:   NewResultSet(),
		phase:     PhaseIdle,
	}
}

// NewSearch discards the current result set and fetches the first page for
// the new query. On failure the controller returns to an empty idle state
// so the same query can be retried.
func (c *Controller) NewSearch(ctx context.Context, query string) error {
	if c.phase.InFlight() {
		return nil
	}

	c.query = query
	c.results = NewResultSet()
	c.cursor = 0
	c.fetchedCount = 0
	c.phase = PhaseFetchingInitial

	if err := c.fetchPage(ctx); err != nil {
		c.phase = PhaseIdle
		return err
	}
	return nil
}

// MaybeFetchMore fetches the next page when the cursor is close enough to
// the end of the results for the stack to run dry. Calls while a fetch is
// in flight or after exhaustion are dropped, not queued.
func (c *Controller) MaybeFetchMore(ctx context.Context) error {
	if c.phase.InFlight() || c.phase == PhaseExhausted {
		return nil
	}
	if c.cursor < c.results.Len()-c.stackSize {
		return nil
	}
	return c.fetchMore(ctx)
}

// ForceFetchMore fetches the next page regardless of the cursor position.
// Used when the user accepts the placeholder card before the set is
// exhausted. In-flight and exhausted guards still apply.
func (c *Controller) ForceFetchMore(ctx context.Context) error {
	if c.phase.InFlight() || c.phase == PhaseExhausted {
		return nil
	}
	return c.fetchMore(ctx)
}

func (c *Controller) fetchMore(ctx context.Context) error {
	c.phase = PhaseFetchingMore
	if err := c.fetchPage(ctx); err != nil {
		// The already-fetched cards remain usable, but no further fetches
		// are attempted for this query; a new search resets the state.
		c.phase = PhaseExhausted
		c.logger.Warn().Err(err).Str("query", c.query).Msg("fetch-more failed, stopping pagination")
		return err
	}
	return nil
}

// fetchPage performs one fetch at the current offset and folds the page
// into the result set. It sets the phase to Exhausted or Idle on success
// and leaves it untouched on failure.
func (c *Controller) fetchPage(ctx context.Context) error {
	page, err := c.source.Search(ctx, c.query, c.fetchedCount, c.pageSize)
	if err != nil {
		return err
	}

	c.fetchedCount += len(page)
	added := c.results.Append(page)

	c.logger.Debug().
		Str("query", c.query).
		Int("received", len(page)).
		Int("added", added).
		Int("total", c.results.Len()).
		Msg("page fetched")

	if len(page) < c.pageSize {
		c.phase = PhaseExhausted
		if c.results.Len() > 0 {
			c.results.AppendPlaceholder(EndOfResultsMessage)
		}
		return nil
	}
	c.phase = PhaseIdle
	return nil
}

// Advance moves the read cursor past the top card. The cursor never moves
// backward and never passes the end of the result set.
func (c *Controller) Advance() {
	if c.cursor < c.results.Len() {
		c.cursor++
	}
}

// Cursor returns the read cursor position.
func (c *Controller) Cursor() int {
	return c.cursor
}

// Results returns the result set.
func (c *Controller) Results() *ResultSet {
	return c.results
}

// Phase returns the current fetch phase.
func (c *Controller) Phase() FetchPhase {
	return c.phase
}

// Query returns the active query string.
func (c *Controller) Query() string {
	return c.query
}

// Exhausted reports whether the source has no further results.
func (c *Controller) Exhausted() bool {
	return c.phase == PhaseExhausted
}
