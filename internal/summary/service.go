// Package summary orchestrates generative-AI summary and question-answer
// requests: it resolves the paper content (abstract or downloaded PDF),
// guards against duplicate in-flight requests, and issues exactly one
// provider call per request.
package summary

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nishipippi/kiga-ers/internal/domain"
	"github.com/nishipippi/kiga-ers/internal/llm"
	"github.com/nishipippi/kiga-ers/internal/observability"
)

// Mode selects the paper content sent to the model.
type Mode string

const (
	// ModeAbstract sends only the title and abstract.
	ModeAbstract Mode = "abstract"

	// ModePDF downloads the full text and attaches it to the request.
	ModePDF Mode = "pdf"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeAbstract || m == ModePDF
}

// Downloader fetches a paper's PDF.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Service runs summary and question requests. Safe for concurrent use.
type Service struct {
	generator  llm.Generator
	downloader Downloader
	logger     zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates a summary service.
func NewService(generator llm.Generator, downloader Downloader, logger zerolog.Logger) *Service {
	return &Service{
		generator:  generator,
		downloader: downloader,
		logger:     logger,
		inFlight:   make(map[string]struct{}),
	}
}

// Summarize generates a summary for the paper. A second call for the same
// paper while one is running returns ErrInProgress without issuing a
// provider request. On failure nothing is cached and the same request can
// be re-invoked immediately.
func (s *Service) Summarize(ctx context.Context, paper *domain.Paper, mode Mode) (string, error) {
	if paper.IsPlaceholder {
		return "", domain.NewValidationError("paper", "cannot summarize the end-of-results card")
	}
	if !mode.Valid() {
		return "", domain.NewValidationError("mode", "must be abstract or pdf")
	}

	key := "summary:" + paper.ID
	if !s.begin(key) {
		return "", fmt.Errorf("summary for paper %s: %w", paper.ID, domain.ErrInProgress)
	}
	defer s.end(key)

	pdfBytes, err := s.resolvePDF(ctx, paper, mode)
	if err != nil {
		return "", err
	}

	start := time.Now()
	result, err := s.generator.Summarize(ctx, llm.SummaryRequest{
		Title:    paper.Title,
		Abstract: paper.Abstract,
		PDF:      pdfBytes,
	})
	s.record(paper.ID, "summarize", start, result, err)
	if err != nil {
		return "", domain.NewGenerationError(s.generator.Provider(), "summarize failed", err)
	}
	return result.Text, nil
}

// Ask answers a question about the paper. The same in-flight and
// single-attempt rules as Summarize apply, keyed separately so a summary
// and a question can run concurrently for one paper.
func (s *Service) Ask(ctx context.Context, paper *domain.Paper, question string, mode Mode) (string, error) {
	if paper.IsPlaceholder {
		return "", domain.NewValidationError("paper", "cannot ask about the end-of-results card")
	}
	if question == "" {
		return "", domain.NewValidationError("question", "must not be empty")
	}
	if !mode.Valid() {
		return "", domain.NewValidationError("mode", "must be abstract or pdf")
	}

	key := "question:" + paper.ID
	if !s.begin(key) {
		return "", fmt.Errorf("question for paper %s: %w", paper.ID, domain.ErrInProgress)
	}
	defer s.end(key)

	pdfBytes, err := s.resolvePDF(ctx, paper, mode)
	if err != nil {
		return "", err
	}

	start := time.Now()
	result, err := s.generator.Answer(ctx, llm.QuestionRequest{
		Title:    paper.Title,
		Abstract: paper.Abstract,
		Question: question,
		PDF:      pdfBytes,
	})
	s.record(paper.ID, "answer", start, result, err)
	if err != nil {
		return "", domain.NewGenerationError(s.generator.Provider(), "answer failed", err)
	}
	return result.Text, nil
}

// resolvePDF downloads the full text for ModePDF. A paper without a PDF
// link fails immediately, before any network traffic.
func (s *Service) resolvePDF(ctx context.Context, paper *domain.Paper, mode Mode) ([]byte, error) {
	if mode != ModePDF {
		return nil, nil
	}
	if !paper.HasPDF() {
		return nil, fmt.Errorf("paper %s: %w", paper.ID, domain.ErrNoPDF)
	}

	content, err := s.downloader.Download(ctx, paper.PDFURL)
	if err != nil {
		return nil, domain.NewGenerationError(s.generator.Provider(), "pdf download failed", err)
	}
	return content, nil
}

// begin marks the key as in flight. It returns false when a request for
// the key is already running.
func (s *Service) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[key]; ok {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

// end clears the in-flight marker so the request is re-invokable whether
// it succeeded or failed.
func (s *Service) end(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

// record updates the LLM request metrics.
func (s *Service) record(paperID, operation string, start time.Time, result *llm.Result, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordLLMRequest(s.generator.Provider(), operation, status, time.Since(start))
	if result != nil {
		observability.RecordLLMTokens(s.generator.Provider(), result.InputTokens, result.OutputTokens)
	}
	if err != nil {
		logger := observability.WithPaperContext(s.logger, paperID)
		logger.Error().Err(err).Str("operation", operation).Msg("llm request failed")
	}
}
