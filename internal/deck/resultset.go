// Package deck implements the swipe-deck state machines: the fetched result
// set, the pagination controller, the swipe gesture recognizer, and the card
// stack presenter, plus the server-side sessions that tie them together.
package deck

import "github.com/nishipippi/kiga-ers/internal/domain"

// ResultSet is the ordered, de-duplicated list of papers fetched for one
// query. It is append-only for the lifetime of a search; a new search
// replaces the whole set.
//
// ResultSet is not safe for concurrent use; the owning Session serializes
// access.
type ResultSet struct {
	papers []*domain.Paper
	seen   map[string]struct{}
}

// NewResultSet returns an empty result set.
func NewResultSet() *ResultSet {
	return &ResultSet{
		seen: make(map[string]struct{}),
	}
}

// Append adds papers to the end of the set, skipping any whose ID is
// already present. Pages from offset-based pagination overlap when new
// papers are submitted between fetches, so duplicates are expected.
// It returns the number of papers actually added.
func (rs *ResultSet) Append(papers []*domain.Paper) int {
	added := 0
	for _, p := range papers {
		if p == nil || p.ID == "" {
			continue
		}
		if _, ok := rs.seen[p.ID]; ok {
			continue
		}
		rs.seen[p.ID] = struct{}{}

		// Keep the placeholder as the trailing element.
		if n := len(rs.papers); n > 0 && rs.papers[n-1].IsPlaceholder {
			rs.papers = append(rs.papers[:n-1], p, rs.papers[n-1])
		} else {
			rs.papers = append(rs.papers, p)
		}
		added++
	}
	return added
}

// AppendPlaceholder appends the end-of-results card. At most one
// placeholder exists; repeated calls are no-ops.
func (rs *ResultSet) AppendPlaceholder(message string) {
	if rs.HasPlaceholder() {
		return
	}
	p := domain.NewPlaceholder(message)
	rs.seen[p.ID] = struct{}{}
	rs.papers = append(rs.papers, p)
}

// HasPlaceholder reports whether the trailing end-of-results card exists.
func (rs *ResultSet) HasPlaceholder() bool {
	n := len(rs.papers)
	return n > 0 && rs.papers[n-1].IsPlaceholder
}

// Len returns the number of cards, placeholder included.
func (rs *ResultSet) Len() int {
	return len(rs.papers)
}

// At returns the paper at position i, or nil if out of range.
func (rs *ResultSet) At(i int) *domain.Paper {
	if i < 0 || i >= len(rs.papers) {
		return nil
	}
	return rs.papers[i]
}

// Find returns the paper with the given ID.
func (rs *ResultSet) Find(id string) (*domain.Paper, bool) {
	if _, ok := rs.seen[id]; !ok {
		return nil, false
	}
	for _, p := range rs.papers {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Contains reports whether a paper with the given ID is in the set.
func (rs *ResultSet) Contains(id string) bool {
	_, ok := rs.seen[id]
	return ok
}

// Slice returns papers[from:to], clamped to the valid range.
func (rs *ResultSet) Slice(from, to int) []*domain.Paper {
	if from < 0 {
		from = 0
	}
	if to > len(rs.papers) {
		to = len(rs.papers)
	}
	if from >= to {
		return nil
	}
	return rs.papers[from:to]
}
