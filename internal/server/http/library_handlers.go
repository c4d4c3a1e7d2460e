package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nishipippi/kiga-ers/internal/domain"
)

type addToLibraryRequest struct {
	// DeckID identifies the deck session holding the paper.
	DeckID string `json:"deck_id" validate:"required"`

	// PaperID is the paper to add to the library.
	PaperID string `json:"paper_id" validate:"required"`
}

// listLibrary handles GET /api/v1/library
func (s *Server) listLibrary(w http.ResponseWriter, r *http.Request) {
	papers := s.library.List()
	resp := libraryResponse{
		Papers: make([]paperResponse, 0, len(papers)),
		Count:  len(papers),
	}
	for _, p := range papers {
		resp.Papers = append(resp.Papers, domainPaperToResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// addToLibrary handles POST /api/v1/library
//
// The paper is looked up in the given deck rather than taken from the
// request body, so clients cannot inject arbitrary paper content.
func (s *Server) addToLibrary(w http.ResponseWriter, r *http.Request) {
	var req addToLibraryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", validationMessage(err))
		return
	}

	session, err := s.decks.Get(req.DeckID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	paper, ok := session.FindPaper(req.PaperID)
	if !ok {
		s.handleError(w, r, domain.NewNotFoundError("paper", req.PaperID))
		return
	}
	if paper.IsPlaceholder {
		writeError(w, http.StatusBadRequest, "invalid request", "placeholder cards cannot be liked")
		return
	}

	if err := s.library.Add(r.Context(), paper); err != nil {
		s.handleError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.SetLikedPapers(s.library.Len())
	}

	writeJSON(w, http.StatusCreated, libraryEntryResponse{
		PaperID: paper.ID,
		Liked:   true,
	})
}

// getLibraryEntry handles GET /api/v1/library/{paperID}
func (s *Server) getLibraryEntry(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")
	writeJSON(w, http.StatusOK, libraryEntryResponse{
		PaperID: paperID,
		Liked:   s.library.Contains(paperID),
	})
}

// removeFromLibrary handles DELETE /api/v1/library/{paperID}
func (s *Server) removeFromLibrary(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")
	if !s.library.Remove(r.Context(), paperID) {
		s.handleError(w, r, domain.NewNotFoundError("liked paper", paperID))
		return
	}
	if s.metrics != nil {
		s.metrics.SetLikedPapers(s.library.Len())
	}
	w.WriteHeader(http.StatusNoContent)
}
