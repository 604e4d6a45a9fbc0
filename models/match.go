package models

import "time"

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in-progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCancelled  MatchStatus = "cancelled"
	MatchPostponed  MatchStatus = "postponed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchScheduled, MatchInProgress, MatchCompleted, MatchCancelled, MatchPostponed:
		return true
	}
	return false
}

// Side identifies one of the two teams of a match. The zero value means unset.
type Side string

const (
	SideNone  Side = ""
	SideTeam1 Side = "team1"
	SideTeam2 Side = "team2"
)

// PlayerScore is a single player's contribution to the team score.
type PlayerScore struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
}

// MatchTeam is the snapshot of a team embedded in a match. It is copied, not
// referenced, so the match keeps a faithful record of who played.
type MatchTeam struct {
	TeamID       string        `json:"team_id,omitempty"`
	Players      []string      `json:"players"`
	PlayerNames  []string      `json:"player_names"`
	Score        *int          `json:"score,omitempty"`
	Seed         int           `json:"seed,omitempty"`
	PlayerScores []PlayerScore `json:"player_scores,omitempty"`
}

// ScoreValue returns the score, treating an unset score as zero.
func (t MatchTeam) ScoreValue() int {
	if t.Score == nil {
		return 0
	}
	return *t.Score
}

// Key identifies the team across matches and results.
func (t MatchTeam) Key() string {
	if t.TeamID != "" {
		return t.TeamID
	}
	return PlayersKey(t.Players)
}

type AdminOverride struct {
	Reason       string    `json:"reason"`
	AuthorizedBy string    `json:"authorized_by"`
	Timestamp    time.Time `json:"timestamp"`
}

type Match struct {
	ID              string         `json:"id" db:"id"`
	TournamentID    string         `json:"tournament_id" db:"tournament_id"`
	MatchNumber     int            `json:"match_number" db:"match_number"`
	Round           RoundKind      `json:"round" db:"round"`
	RoundNumber     int            `json:"round_number" db:"round_number"`
	BracketPosition int            `json:"bracket_position" db:"bracket_position"`
	Team1           MatchTeam      `json:"team1" db:"team1"`
	Team2           MatchTeam      `json:"team2" db:"team2"`
	Winner          Side           `json:"winner,omitempty" db:"winner"`
	Status          MatchStatus    `json:"status" db:"status"`
	ScheduledDate   *time.Time     `json:"scheduled_date,omitempty" db:"scheduled_date"`
	CompletedDate   *time.Time     `json:"completed_date,omitempty" db:"completed_date"`
	ConfirmedAt     *time.Time     `json:"confirmed_at,omitempty" db:"confirmed_at"`
	Notes           string         `json:"notes,omitempty" db:"notes"`
	AdminOverride   *AdminOverride `json:"admin_override,omitempty" db:"admin_override"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

func (m *Match) Team(side Side) *MatchTeam {
	switch side {
	case SideTeam1:
		return &m.Team1
	case SideTeam2:
		return &m.Team2
	}
	return nil
}

// WinningTeam returns the winner's snapshot, nil while undecided.
func (m *Match) WinningTeam() *MatchTeam {
	return m.Team(m.Winner)
}

// LosingTeam returns the loser's snapshot, nil while undecided.
func (m *Match) LosingTeam() *MatchTeam {
	switch m.Winner {
	case SideTeam1:
		return &m.Team2
	case SideTeam2:
		return &m.Team1
	}
	return nil
}

func (m *Match) IsCompleted() bool {
	return m.Status == MatchCompleted
}

// Clone returns a deep copy so callers can diff before/after an update.
func (m *Match) Clone() *Match {
	c := *m
	c.Team1 = m.Team1.clone()
	c.Team2 = m.Team2.clone()
	if m.AdminOverride != nil {
		o := *m.AdminOverride
		c.AdminOverride = &o
	}
	return &c
}

func (t MatchTeam) clone() MatchTeam {
	c := t
	c.Players = append([]string(nil), t.Players...)
	c.PlayerNames = append([]string(nil), t.PlayerNames...)
	c.PlayerScores = append([]PlayerScore(nil), t.PlayerScores...)
	if t.Score != nil {
		s := *t.Score
		c.Score = &s
	}
	return c
}

// MatchFilter narrows FindMatches. Zero fields match everything.
type MatchFilter struct {
	Round  RoundKind
	Status MatchStatus
}
