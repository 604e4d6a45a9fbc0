package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/middleware"
	"github.com/Dosada05/bracket-of-death/models"
	"github.com/Dosada05/bracket-of-death/scoring"
	"github.com/Dosada05/bracket-of-death/services"
)

type MatchHandler struct {
	responder
	matches services.MatchService
}

func NewMatchHandler(ms services.MatchService, log *zap.SugaredLogger) *MatchHandler {
	return &MatchHandler{responder: responder{log: log}, matches: ms}
}

// ListHandler serves GET /tournaments/{id}/matches?round=&status=.
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var filter models.MatchFilter
	query := r.URL.Query()
	if v := query.Get("round"); v != "" {
		round, err := models.ParseRound(v)
		if err != nil {
			h.badRequestResponse(w, r, err)
			return
		}
		filter.Round = round
	}
	if v := query.Get("status"); v != "" {
		status := models.MatchStatus(v)
		if !status.Valid() {
			h.badRequestResponse(w, r, fmt.Errorf("invalid status query parameter %q", v))
			return
		}
		filter.Status = status
	}

	matches, err := h.matches.ListMatches(r.Context(), id, filter)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, jsonResponse{"matches": matches})
}

// GetHandler serves GET /matches/{id}.
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	m, err := h.matches.GetMatch(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, jsonResponse{"match": m})
}

// UpdateHandler serves PATCH /matches/{id}. The authenticated operator is
// recorded on admin overrides.
func (h *MatchHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	operatorID, err := middleware.OperatorIDFromContext(r.Context())
	if err != nil {
		h.unauthorizedResponse(w, r, "authentication required to update a match")
		return
	}
	var upd scoring.MatchUpdate
	if err := readJSON(w, r, &upd); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	m, err := h.matches.UpdateMatch(r.Context(), id, upd, operatorID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, jsonResponse{"match": m})
}

type confirmInput struct {
	Round models.RoundKind `json:"round,omitempty"`
}

// ConfirmHandler serves POST /tournaments/{id}/matches/confirm. Without a
// round every completed match is confirmed.
func (h *MatchHandler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	var input confirmInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	confirmed, err := h.matches.ConfirmMatches(r.Context(), id, input.Round)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, jsonResponse{"confirmed": confirmed})
}
