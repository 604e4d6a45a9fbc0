package scoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/bracket-of-death/models"
)

var (
	ErrInvalidInput = errors.New("invalid match update")
	ErrInvalidScore = errors.New("score fails validity rule")
)

// OverrideRequest is the caller's half of an admin override. The authorizing
// identity and timestamp are filled in by the resolver.
type OverrideRequest struct {
	Reason string `json:"reason"`
}

// MatchUpdate is a partial update: a nil field was not part of this write.
type MatchUpdate struct {
	Team1Score        *int                 `json:"team1_score,omitempty"`
	Team2Score        *int                 `json:"team2_score,omitempty"`
	Team1PlayerScores []models.PlayerScore `json:"team1_player_scores,omitempty"`
	Team2PlayerScores []models.PlayerScore `json:"team2_player_scores,omitempty"`
	Status            *models.MatchStatus  `json:"status,omitempty"`
	Notes             *string              `json:"notes,omitempty"`
	ScheduledDate     *time.Time           `json:"scheduled_date,omitempty"`
	CompletedDate     *time.Time           `json:"completed_date,omitempty"`
	AdminOverride     *OverrideRequest     `json:"admin_override,omitempty"`
}

// Resolution describes what an applied update changed.
type Resolution struct {
	PreviousStatus models.MatchStatus
	PreviousWinner models.Side
	AutoCompleted  bool
	Overridden     bool
}

// BecameCompleted reports a transition into completed on this write.
func (r Resolution) BecameCompleted(m *models.Match) bool {
	return r.PreviousStatus != models.MatchCompleted && m.Status == models.MatchCompleted
}

// ResultChanged reports an edit that invalidates statistics already counted
// for a previously completed match.
func (r Resolution) ResultChanged(m *models.Match) bool {
	if r.PreviousStatus != models.MatchCompleted {
		return false
	}
	return m.Status != models.MatchCompleted || m.Winner != r.PreviousWinner
}

type Resolver struct {
	rule ValidityRule
	now  func() time.Time
}

func NewResolver(rule ValidityRule) *Resolver {
	if rule == nil {
		rule = NewProSetRule()
	}
	return &Resolver{rule: rule, now: time.Now}
}

// WithClock replaces the server clock, used by tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Apply merges upd into m and resolves winner and status. operatorID is the
// authenticated identity recorded on an admin override.
func (r *Resolver) Apply(m *models.Match, upd MatchUpdate, operatorID string) (Resolution, error) {
	res := Resolution{PreviousStatus: m.Status, PreviousWinner: m.Winner}
	prev1, prev2 := m.Team1.Score, m.Team2.Score

	if err := r.applyFields(m, upd); err != nil {
		return res, err
	}

	m.Winner = DetermineWinner(m.Team1.Score, m.Team2.Score)
	now := r.now()

	scoreOK, reason := true, ""
	if m.Winner != models.SideNone {
		scoreOK, reason = r.rule.Check(m.Team1.ScoreValue(), m.Team2.ScoreValue())
	}

	switch {
	case upd.Status != nil:
		m.Status = *upd.Status
	case m.Winner != models.SideNone && res.PreviousStatus == models.MatchInProgress:
		// a score-only write on a live match finishes it; the validity check
		// below still applies
		m.Status = models.MatchCompleted
		res.AutoCompleted = true
	}

	if m.Status != models.MatchCompleted {
		m.AdminOverride = nil
		m.CompletedDate = nil
		return res, nil
	}

	if m.Winner == models.SideNone {
		return res, fmt.Errorf("%w: a tied or unscored match cannot be completed", ErrInvalidInput)
	}

	if m.CompletedDate == nil {
		m.CompletedDate = &now
	}

	if scoreOK {
		m.AdminOverride = nil
		return res, nil
	}

	switch {
	case upd.AdminOverride != nil:
		if upd.AdminOverride.Reason == "" {
			return res, fmt.Errorf("%w: admin override requires a reason", ErrInvalidInput)
		}
		if operatorID == "" {
			return res, fmt.Errorf("%w: admin override requires an authenticated operator", ErrInvalidInput)
		}
		m.AdminOverride = &models.AdminOverride{
			Reason:       upd.AdminOverride.Reason,
			AuthorizedBy: operatorID,
			Timestamp:    now,
		}
		res.Overridden = true
	case m.AdminOverride != nil && sameScore(prev1, m.Team1.Score) && sameScore(prev2, m.Team2.Score):
		// the override on record still covers this exact score
	default:
		return res, fmt.Errorf("%w: %s", ErrInvalidScore, reason)
	}
	return res, nil
}

func (r *Resolver) applyFields(m *models.Match, upd MatchUpdate) error {
	if upd.Status != nil && !upd.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *upd.Status)
	}
	if err := applyTeamScore(&m.Team1, upd.Team1Score, upd.Team1PlayerScores); err != nil {
		return fmt.Errorf("team1: %w", err)
	}
	if err := applyTeamScore(&m.Team2, upd.Team2Score, upd.Team2PlayerScores); err != nil {
		return fmt.Errorf("team2: %w", err)
	}
	if len(m.Team1.Players) != len(m.Team1.PlayerNames) || len(m.Team2.Players) != len(m.Team2.PlayerNames) {
		return fmt.Errorf("%w: player and player name counts differ", ErrInvalidInput)
	}
	if upd.Notes != nil {
		m.Notes = *upd.Notes
	}
	if upd.ScheduledDate != nil {
		m.ScheduledDate = upd.ScheduledDate
	}
	if upd.CompletedDate != nil {
		m.CompletedDate = upd.CompletedDate
	}
	return nil
}

func applyTeamScore(t *models.MatchTeam, score *int, playerScores []models.PlayerScore) error {
	if score != nil && *score < 0 {
		return fmt.Errorf("%w: score cannot be negative", ErrInvalidInput)
	}
	if playerScores == nil {
		if score != nil {
			v := *score
			t.Score = &v
		}
		return nil
	}

	members := make(map[string]bool, len(t.Players))
	for _, p := range t.Players {
		members[p] = true
	}
	sum := 0
	for _, ps := range playerScores {
		if ps.Score < 0 {
			return fmt.Errorf("%w: player score cannot be negative", ErrInvalidInput)
		}
		if ps.PlayerID != "" && !members[ps.PlayerID] {
			return fmt.Errorf("%w: player %s is not on this team", ErrInvalidInput, ps.PlayerID)
		}
		sum += ps.Score
	}
	if score != nil && *score != sum {
		return fmt.Errorf("%w: team score %d does not match player scores total %d", ErrInvalidInput, *score, sum)
	}
	t.PlayerScores = append([]models.PlayerScore(nil), playerScores...)
	t.Score = &sum
	return nil
}

// DetermineWinner picks the side with the strictly higher score. Missing or
// equal scores leave the winner unset.
func DetermineWinner(team1, team2 *int) models.Side {
	if team1 == nil || team2 == nil {
		return models.SideNone
	}
	switch {
	case *team1 > *team2:
		return models.SideTeam1
	case *team2 > *team1:
		return models.SideTeam2
	}
	return models.SideNone
}

func sameScore(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
