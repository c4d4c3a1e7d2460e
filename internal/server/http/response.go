package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nishipippi/kiga-ers/internal/deck"
	"github.com/nishipippi/kiga-ers/internal/domain"
	"github.com/nishipippi/kiga-ers/internal/llm"
	"github.com/nishipippi/kiga-ers/internal/observability"
)

// Response types for JSON serialization.

type deckResponse struct {
	DeckID    string    `json:"deck_id"`
	Query     string    `json:"query"`
	Cursor    int       `json:"cursor"`
	Total     int       `json:"total"`
	Phase     string    `json:"phase"`
	Exhausted bool      `json:"exhausted"`
	CreatedAt time.Time `json:"created_at"`
}

type paperResponse struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Abstract      string           `json:"abstract,omitempty"`
	Authors       []authorResponse `json:"authors,omitempty"`
	Published     string           `json:"published,omitempty"`
	Updated       string           `json:"updated,omitempty"`
	PdfURL        string           `json:"pdf_url,omitempty"`
	Categories    []string         `json:"categories,omitempty"`
	Summary       string           `json:"summary,omitempty"`
	IsPlaceholder bool             `json:"is_placeholder,omitempty"`
	Message       string           `json:"message,omitempty"`
}

type authorResponse struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

type cardResponse struct {
	Paper       paperResponse `json:"paper"`
	Position    int           `json:"position"`
	Scale       float64       `json:"scale"`
	OffsetY     float64       `json:"offset_y"`
	Opacity     float64       `json:"opacity"`
	Rotation    float64       `json:"rotation"`
	Interactive bool          `json:"interactive"`
}

type stackResponse struct {
	Deck  deckResponse   `json:"deck"`
	Cards []cardResponse `json:"cards"`
}

type transformResponse struct {
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Rotation   float64 `json:"rotation"`
	DurationMS int64   `json:"duration_ms"`
}

type swipeResponse struct {
	Committed      bool              `json:"committed"`
	Direction      string            `json:"direction,omitempty"`
	Scrolling      bool              `json:"scrolling,omitempty"`
	Liked          bool              `json:"liked,omitempty"`
	FetchTriggered bool              `json:"fetch_triggered,omitempty"`
	Cursor         int               `json:"cursor"`
	Transform      transformResponse `json:"transform"`
	Cards          []cardResponse    `json:"cards"`
}

type libraryResponse struct {
	Papers []paperResponse `json:"papers"`
	Count  int             `json:"count"`
}

type libraryEntryResponse struct {
	PaperID string `json:"paper_id"`
	Liked   bool   `json:"liked"`
}

type summaryResponse struct {
	PaperID string `json:"paper_id"`
	Mode    string `json:"mode"`
	Summary string `json:"summary"`
}

type answerResponse struct {
	PaperID  string `json:"paper_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Converter functions

func domainPaperToResponse(p *domain.Paper) paperResponse {
	resp := paperResponse{
		ID:            p.ID,
		Title:         p.Title,
		Abstract:      p.Abstract,
		Published:     p.Published,
		Updated:       p.Updated,
		PdfURL:        p.PDFURL,
		Categories:    p.Categories,
		Summary:       p.Summary,
		IsPlaceholder: p.IsPlaceholder,
		Message:       p.Message,
	}
	for _, a := range p.Authors {
		resp.Authors = append(resp.Authors, authorResponse{Name: a.Name, Affiliation: a.Affiliation})
	}
	return resp
}

func deckStateToResponse(st deck.State) deckResponse {
	return deckResponse{
		DeckID:    st.ID,
		Query:     st.Query,
		Cursor:    st.Cursor,
		Total:     st.Total,
		Phase:     st.Phase,
		Exhausted: st.Exhausted,
		CreatedAt: st.CreatedAt,
	}
}

func cardViewsToResponse(cards []deck.CardView) []cardResponse {
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardResponse{
			Paper:       domainPaperToResponse(c.Paper),
			Position:    c.Position,
			Scale:       c.Scale,
			OffsetY:     c.OffsetY,
			Opacity:     c.Opacity,
			Rotation:    c.Rotation,
			Interactive: c.Interactive,
		})
	}
	return out
}

func transformToResponse(t deck.Transform) transformResponse {
	return transformResponse{
		TranslateX: t.TranslateX,
		TranslateY: t.TranslateY,
		Rotation:   t.Rotation,
		DurationMS: t.Duration.Milliseconds(),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// handleError maps domain errors to HTTP status codes.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.WithRequestContext(s.logger, observability.RequestIDFromContext(r.Context())).
		With().Str("path", r.URL.Path).Logger()
	if deckID := observability.DeckIDFromContext(r.Context()); deckID != "" {
		logger = logger.With().Str("deck_id", deckID).Logger()
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, "resource not found", notFound.Error())
			return
		}
		writeError(w, http.StatusNotFound, "resource not found", "")

	case errors.Is(err, domain.ErrInvalidInput):
		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			writeError(w, http.StatusBadRequest, "invalid request", validation.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())

	case errors.Is(err, domain.ErrInProgress):
		writeError(w, http.StatusConflict, "operation already in progress", err.Error())

	case errors.Is(err, domain.ErrNoPDF):
		writeError(w, http.StatusUnprocessableEntity, "paper has no PDF link", "")

	case errors.Is(err, domain.ErrRateLimited):
		logger.Warn().Err(err).Msg("request rate limited")
		writeError(w, http.StatusTooManyRequests, "rate limited", err.Error())

	case errors.Is(err, domain.ErrServiceUnavailable):
		logger.Error().Err(err).Msg("upstream service unavailable")
		writeError(w, http.StatusServiceUnavailable, "service unavailable", "")

	case errors.Is(err, domain.ErrCancelled):
		writeError(w, statusClientClosedRequest, "request cancelled", "")

	default:
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			logger.Error().Err(err).Str("source", fetchErr.Source).Msg("upstream fetch failed")
			writeError(w, http.StatusBadGateway, "upstream fetch failed", "")
			return
		}
		var genErr *domain.GenerationError
		if errors.As(err, &genErr) {
			logger.Error().Err(err).Str("provider", genErr.Provider).Msg("generation failed")
			if llm.IsTransient(err) {
				writeError(w, http.StatusBadGateway, "generation failed", "temporary provider error, retry later")
				return
			}
			writeError(w, http.StatusInternalServerError, "generation failed", "")
			return
		}
		logger.Error().Err(err).Msg("internal server error")
		writeError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

// statusClientClosedRequest is the nginx convention for cancelled requests.
const statusClientClosedRequest = 499
