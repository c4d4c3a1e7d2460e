package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nishipippi/kiga-ers/internal/deck"
)

// maxRequestBodySize limits request body size to prevent abuse.
const maxRequestBodySize = 1 << 20 // 1 MB

type createDeckRequest struct {
	// Query is the search query. Empty means browse the default category.
	Query string `json:"query" validate:"max=256"`
}

type searchRequest struct {
	Query string `json:"query" validate:"max=256"`
}

type swipeRequest struct {
	// Direction, when set, is an explicit accept/reject button press.
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=left right"`

	// DX and DY are the drag displacement in pixels since touch-down.
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// Cancelled marks a touch-cancel event instead of a touch-end.
	Cancelled bool `json:"cancelled,omitempty"`
}

// decodeBody decodes a JSON request body with a size limit.
func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return io.EOF
	}
	return json.Unmarshal(body, v)
}

// validationMessage flattens validator errors into a single detail string.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fe.Field()+" failed "+fe.Tag()+" validation")
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

// createDeck handles POST /api/v1/decks
func (s *Server) createDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", validationMessage(err))
		return
	}

	session, err := s.decks.Create(r.Context(), req.Query)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.SetDecksActive(s.decks.Len())
	}

	writeJSON(w, http.StatusCreated, stackResponse{
		Deck:  deckStateToResponse(session.State()),
		Cards: cardViewsToResponse(session.Stack()),
	})
}

// getDeck handles GET /api/v1/decks/{deckID}
func (s *Server) getDeck(w http.ResponseWriter, r *http.Request) {
	session, err := s.decks.Get(chi.URLParam(r, "deckID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deckStateToResponse(session.State()))
}

// deleteDeck handles DELETE /api/v1/decks/{deckID}
func (s *Server) deleteDeck(w http.ResponseWriter, r *http.Request) {
	s.decks.Delete(chi.URLParam(r, "deckID"))
	if s.metrics != nil {
		s.metrics.SetDecksActive(s.decks.Len())
	}
	w.WriteHeader(http.StatusNoContent)
}

// getStack handles GET /api/v1/decks/{deckID}/stack
func (s *Server) getStack(w http.ResponseWriter, r *http.Request) {
	session, err := s.decks.Get(chi.URLParam(r, "deckID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stackResponse{
		Deck:  deckStateToResponse(session.State()),
		Cards: cardViewsToResponse(session.Stack()),
	})
}

// swipe handles POST /api/v1/decks/{deckID}/swipes
func (s *Server) swipe(w http.ResponseWriter, r *http.Request) {
	session, err := s.decks.Get(chi.URLParam(r, "deckID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req swipeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", validationMessage(err))
		return
	}

	result, err := session.Swipe(r.Context(), deck.SwipeInput{
		Direction: deck.Direction(req.Direction),
		DX:        req.DX,
		DY:        req.DY,
		Cancelled: req.Cancelled,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if s.metrics != nil {
		if result.Committed {
			s.metrics.RecordSwipe(string(result.Direction))
		}
		if result.Liked {
			s.metrics.SetLikedPapers(s.library.Len())
		}
	}

	writeJSON(w, http.StatusOK, swipeResponse{
		Committed:      result.Committed,
		Direction:      string(result.Direction),
		Scrolling:      result.Scrolling,
		Liked:          result.Liked,
		FetchTriggered: result.FetchTriggered,
		Cursor:         result.Cursor,
		Transform:      transformToResponse(result.Transform),
		Cards:          cardViewsToResponse(session.Stack()),
	})
}

// newSearch handles POST /api/v1/decks/{deckID}/search
func (s *Server) newSearch(w http.ResponseWriter, r *http.Request) {
	session, err := s.decks.Get(chi.URLParam(r, "deckID"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	var req searchRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", validationMessage(err))
		return
	}

	if err := session.Search(r.Context(), req.Query); err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stackResponse{
		Deck:  deckStateToResponse(session.State()),
		Cards: cardViewsToResponse(session.Stack()),
	})
}
