package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/models"
	"github.com/Dosada05/bracket-of-death/services"
)

type TournamentHandler struct {
	responder
	progression services.ProgressionService
	live        services.LiveService
	matches     services.MatchService
}

func NewTournamentHandler(ps services.ProgressionService, ls services.LiveService, ms services.MatchService, log *zap.SugaredLogger) *TournamentHandler {
	return &TournamentHandler{
		responder:   responder{log: log},
		progression: ps,
		live:        ls,
		matches:     ms,
	}
}

// LiveHandler serves GET /tournaments/{id}/live.
func (h *TournamentHandler) LiveHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	snap, err := h.live.Snapshot(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, jsonResponse{"live": snap})
}

// PhaseHandler serves GET /tournaments/{id}/phase.
func (h *TournamentHandler) PhaseHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	p, err := h.live.Phase(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, jsonResponse{"phase": p})
}

// StandingsHandler serves GET /tournaments/{id}/standings.
func (h *TournamentHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	view, err := h.live.Standings(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, jsonResponse{"standings": view})
}

// ActionHandler serves POST /tournaments/{id}/actions.
func (h *TournamentHandler) ActionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	var input services.ActionRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.Action == "" {
		h.badRequestResponse(w, r, errors.New("action is required"))
		return
	}

	res, err := h.progression.ExecuteAction(r.Context(), id, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, jsonResponse{"result": res})
}

// AdvanceHandler serves POST /tournaments/{id}/advance. Unlike the
// advance_round action it answers 200 with the unchanged state when the
// current round is not finished.
func (h *TournamentHandler) AdvanceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	res, err := h.progression.AdvanceRound(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, jsonResponse{"result": res})
}

type generateInput struct {
	Round models.RoundKind `json:"round"`
}

// GenerateHandler serves POST /tournaments/{id}/matches/generate.
func (h *TournamentHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	var input generateInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	gen, err := h.progression.GenerateMatchesForRound(r.Context(), id, input.Round)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"generation": gen}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

type checkInInput struct {
	TeamID  string `json:"team_id"`
	Present *bool  `json:"present,omitempty"`
}

// CheckInHandler serves POST /tournaments/{id}/checkin. present defaults to
// true; false withdraws an earlier check-in.
func (h *TournamentHandler) CheckInHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	var input checkInInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.TeamID == "" {
		h.badRequestResponse(w, r, errors.New("team_id is required"))
		return
	}
	present := input.Present == nil || *input.Present

	t, err := h.matches.CheckIn(r.Context(), id, input.TeamID, present)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, jsonResponse{"tournament": t})
}
