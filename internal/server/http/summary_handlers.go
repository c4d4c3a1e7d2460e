package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nishipippi/kiga-ers/internal/domain"
	"github.com/nishipippi/kiga-ers/internal/summary"
)

type summarizeRequest struct {
	// DeckID identifies the deck session holding the paper.
	DeckID string `json:"deck_id" validate:"required"`

	// Mode selects the summary source: "abstract" or "pdf".
	Mode string `json:"mode,omitempty" validate:"omitempty,oneof=abstract pdf"`
}

type questionRequest struct {
	DeckID string `json:"deck_id" validate:"required"`

	// Question is the user's question about the paper.
	Question string `json:"question" validate:"required,max=2000"`

	Mode string `json:"mode,omitempty" validate:"omitempty,oneof=abstract pdf"`
}

// resolvePaper finds the paper in the deck session, checking the library as
// a fallback so liked papers stay reachable after their deck is gone.
func (s *Server) resolvePaper(deckID, paperID string) (*domain.Paper, error) {
	session, err := s.decks.Get(deckID)
	if err == nil {
		if paper, ok := session.FindPaper(paperID); ok {
			return paper, nil
		}
	}
	for _, p := range s.library.List() {
		if p.ID == paperID {
			return p, nil
		}
	}
	return nil, domain.NewNotFoundError("paper", paperID)
}

// summarizePaper handles POST /api/v1/papers/{paperID}/summary
func (s *Server) summarizePaper(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")

	var req summarizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", validationMessage(err))
		return
	}
	mode := summary.Mode(req.Mode)
	if mode == "" {
		mode = summary.ModeAbstract
	}

	paper, err := s.resolvePaper(req.DeckID, paperID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	text, err := s.summaries.Summarize(r.Context(), paper, mode)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	// Keep the generated summary on the card so repeat views are free.
	if session, err := s.decks.Get(req.DeckID); err == nil {
		_ = session.AttachSummary(paperID, text)
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		PaperID: paperID,
		Mode:    string(mode),
		Summary: text,
	})
}

// askAboutPaper handles POST /api/v1/papers/{paperID}/questions
func (s *Server) askAboutPaper(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")

	var req questionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", validationMessage(err))
		return
	}

	paper, err := s.resolvePaper(req.DeckID, paperID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	// Questions default to the full text when one is available; the
	// abstract alone rarely answers them.
	mode := summary.Mode(req.Mode)
	if mode == "" {
		if paper.HasPDF() {
			mode = summary.ModePDF
		} else {
			mode = summary.ModeAbstract
		}
	}

	answer, err := s.summaries.Ask(r.Context(), paper, req.Question, mode)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		PaperID:  paperID,
		Question: req.Question,
		Answer:   answer,
	})
}
