package phase

import (
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-of-death/models"
)

var ErrInvalidTransition = errors.New("invalid transition")

type Action string

const (
	ActionStartRegistration  Action = "start_registration"
	ActionCloseRegistration  Action = "close_registration"
	ActionStartCheckIn       Action = "start_checkin"
	ActionStartRoundRobin    Action = "start_round_robin"
	ActionAdvanceRound       Action = "advance_round"
	ActionStartBracket       Action = "start_bracket"
	ActionCompleteTournament Action = "complete_tournament"
	ActionResetTournament    Action = "reset_tournament"
	ActionSetRound           Action = "set_round"
)

func (a Action) Valid() bool {
	switch a {
	case ActionStartRegistration, ActionCloseRegistration, ActionStartCheckIn, ActionStartRoundRobin,
		ActionAdvanceRound, ActionStartBracket, ActionCompleteTournament, ActionResetTournament, ActionSetRound:
		return true
	}
	return false
}

// TransitionError explains why an action is not allowed right now.
type TransitionError struct {
	Action Action
	Status models.TournamentStatus
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while tournament is %s: %s", e.Action, e.Status, e.Reason)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Authorize checks action against the tournament's status and derived phase.
func Authorize(t *models.Tournament, p TournamentPhase, action Action) error {
	deny := func(reason string) error {
		return &TransitionError{Action: action, Status: t.Status, Reason: reason}
	}
	if !action.Valid() {
		return deny("unknown action")
	}
	if action == ActionResetTournament {
		return nil
	}
	if t.Status == models.TournamentCancelled {
		return deny("tournament is cancelled")
	}
	if t.Status == models.TournamentCompleted && action != ActionSetRound {
		return deny("tournament is already completed")
	}

	switch action {
	case ActionStartRegistration:
		if t.Status != models.TournamentScheduled {
			return deny("registration can only start from scheduled")
		}
	case ActionCloseRegistration:
		if t.Status != models.TournamentOpen {
			return deny("registration is not open")
		}
	case ActionStartCheckIn:
		if t.Status != models.TournamentActive {
			return deny("check-in needs an active tournament")
		}
	case ActionStartRoundRobin:
		if t.Status != models.TournamentActive && t.Status != models.TournamentScheduled {
			return deny("round robin needs a scheduled or active tournament")
		}
		if !t.BracketType.StartsWithRoundRobin() {
			return deny(fmt.Sprintf("bracket type %s has no round robin", t.BracketType))
		}
		if p.TotalMatches > 0 {
			return deny("matches already exist")
		}
	case ActionAdvanceRound:
		if t.Status != models.TournamentActive {
			return deny("only active tournaments advance")
		}
		if !p.CanAdvance {
			return deny(fmt.Sprintf("round %s is %s", p.CurrentRound, p.RoundStatus))
		}
	case ActionStartBracket:
		if t.Status != models.TournamentActive {
			return deny("bracket needs an active tournament")
		}
		if !t.BracketType.HasPlayoff() {
			return deny("round robin tournaments have no bracket")
		}
		if p.Phase == Bracket && (p.TotalMatches > 0 || len(t.Byes) > 0) {
			return deny("bracket already started")
		}
		if p.Phase == RoundRobin && p.TotalMatches > 0 && !p.CanAdvance {
			return deny("round robin is still being played")
		}
	case ActionCompleteTournament:
		if t.Status != models.TournamentActive {
			return deny("only active tournaments complete")
		}
	case ActionSetRound:
	case ActionResetTournament:
	}
	return nil
}

// RosterPreselected reports whether every seat is already taken, in which
// case registration is skipped.
func RosterPreselected(t *models.Tournament) bool {
	if t.MaxPlayers <= 0 {
		return false
	}
	count := len(t.Players)
	for _, tm := range t.GeneratedTeams {
		count += len(tm.Players)
	}
	return count >= t.MaxPlayers
}
