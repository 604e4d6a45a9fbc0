// Package phase derives where a tournament stands from its stored status and
// match set, and authorizes the operator actions that move it along.
package phase

import (
	"github.com/Dosada05/bracket-of-death/brackets"
	"github.com/Dosada05/bracket-of-death/models"
)

type Phase string

const (
	Setup        Phase = "setup"
	Registration Phase = "registration"
	CheckIn      Phase = "check_in"
	RoundRobin   Phase = "round_robin"
	Bracket      Phase = "bracket"
	Completed    Phase = "completed"
)

type RoundStatus string

const (
	RoundNotStarted RoundStatus = "not_started"
	RoundInProgress RoundStatus = "in_progress"
	RoundCompleted  RoundStatus = "completed"
)

type TournamentPhase struct {
	Phase            Phase            `json:"phase"`
	CurrentRound     models.RoundKind `json:"current_round,omitempty"`
	RoundStatus      RoundStatus      `json:"round_status"`
	TotalMatches     int              `json:"total_matches"`
	CompletedMatches int              `json:"completed_matches"`
	RoundMatches     int              `json:"round_matches"`
	RoundCompleted   int              `json:"round_completed"`
	CanAdvance       bool             `json:"can_advance"`
}

// Derive computes the phase of t. resultCount is the number of stored
// tournament results; results without any match mark back-filled history.
func Derive(t *models.Tournament, matches []*models.Match, resultCount int) TournamentPhase {
	p := TournamentPhase{
		Phase:        Setup,
		RoundStatus:  RoundNotStarted,
		TotalMatches: len(matches),
	}
	for _, m := range matches {
		if m.Status == models.MatchCompleted {
			p.CompletedMatches++
		}
	}

	switch t.Status {
	case models.TournamentOpen:
		p.Phase = Registration
		return p
	case models.TournamentCompleted:
		p.Phase = Completed
		p.RoundStatus = RoundCompleted
		return p
	case models.TournamentCancelled:
		return p
	case models.TournamentScheduled, models.TournamentActive:
	}

	if len(matches) == 0 && resultCount > 0 {
		p.Phase = Completed
		p.RoundStatus = RoundCompleted
		return p
	}
	if t.Status == models.TournamentScheduled && len(matches) == 0 {
		return p
	}

	idx := brackets.NewRoundIndex(matches, t.Byes)
	if len(matches) == 0 && len(t.Byes) == 0 {
		if len(t.Players) == 0 && len(t.GeneratedTeams) == 0 {
			p.Phase = CheckIn
			return p
		}
		if t.BracketType.StartsWithRoundRobin() {
			p.Phase, p.CurrentRound = RoundRobin, models.RoundRobin1
		} else {
			p.Phase, p.CurrentRound = Bracket, models.RoundQuarterfinal
		}
		return p
	}

	if hasAny(idx, models.BracketRounds) {
		p.Phase = Bracket
		p.CurrentRound = currentRound(idx, models.BracketRounds)
	} else {
		p.Phase = RoundRobin
		p.CurrentRound = currentRound(idx, models.RoundRobinRounds)
		if p.CurrentRound == models.RoundUnknown {
			p.CurrentRound = models.RoundRobin1
		}
	}

	for _, m := range idx.Matches(p.CurrentRound) {
		p.RoundMatches++
		if m.Status == models.MatchCompleted {
			p.RoundCompleted++
		}
	}
	p.RoundStatus = roundStatus(idx, p.CurrentRound, p.RoundMatches, p.RoundCompleted)
	p.CanAdvance = p.RoundStatus == RoundCompleted
	return p
}

func hasAny(idx *brackets.RoundIndex, order []models.RoundKind) bool {
	for _, r := range order {
		if idx.Present(r) {
			return true
		}
	}
	return false
}

// currentRound is the first round in order with an unfinished match, or the
// deepest round present when everything is done.
func currentRound(idx *brackets.RoundIndex, order []models.RoundKind) models.RoundKind {
	for _, r := range order {
		if idx.Present(r) && !idx.Completed(r) {
			return r
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		if idx.Present(order[i]) {
			return order[i]
		}
	}
	return models.RoundUnknown
}

func roundStatus(idx *brackets.RoundIndex, round models.RoundKind, total, completed int) RoundStatus {
	switch {
	case idx.Completed(round):
		// a round made only of byes has nothing left to play
		return RoundCompleted
	case total > 0 && completed == total:
		return RoundCompleted
	case completed > 0:
		return RoundInProgress
	}
	for _, m := range idx.Matches(round) {
		if m.Status == models.MatchInProgress {
			return RoundInProgress
		}
	}
	return RoundNotStarted
}
