package deck

import (
	"context"
	"time"

	"github.com/nishipippi/kiga-ers/internal/domain"
	"github.com/nishipippi/kiga-ers/internal/observability"
)

// InstrumentedSearcher wraps a Searcher and records fetch metrics.
type InstrumentedSearcher struct {
	inner   Searcher
	source  string
	metrics *observability.Metrics
}

// NewInstrumentedSearcher wraps source with metric recording under the given
// source label.
func NewInstrumentedSearcher(inner Searcher, source string, metrics *observability.Metrics) *InstrumentedSearcher {
	return &InstrumentedSearcher{inner: inner, source: source, metrics: metrics}
}

// Search implements Searcher.
func (i *InstrumentedSearcher) Search(ctx context.Context, query string, offset, pageSize int) ([]*domain.Paper, error) {
	start := time.Now()
	papers, err := i.inner.Search(ctx, query, offset, pageSize)

	status := "success"
	if err != nil {
		status = "error"
	}
	i.metrics.RecordSearch(i.source, status, len(papers), time.Since(start))

	return papers, err
}
