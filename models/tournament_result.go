package models

import "time"

type RoundRobinScores struct {
	Round1          int     `json:"round1"`
	Round2          int     `json:"round2"`
	Round3          int     `json:"round3"`
	RRWon           int     `json:"rr_won"`
	RRLost          int     `json:"rr_lost"`
	RRPlayed        int     `json:"rr_played"`
	RRWinPercentage float64 `json:"rr_win_percentage"`
}

type BracketScores struct {
	R16Won         int       `json:"r16_won"`
	R16Lost        int       `json:"r16_lost"`
	QFWon          int       `json:"qf_won"`
	QFLost         int       `json:"qf_lost"`
	SFWon          int       `json:"sf_won"`
	SFLost         int       `json:"sf_lost"`
	FinalsWon      int       `json:"finals_won"`
	FinalsLost     int       `json:"finals_lost"`
	LosersWon      int       `json:"losers_won"`
	LosersLost     int       `json:"losers_lost"`
	GrandFinalWon  int       `json:"grand_final_won"`
	GrandFinalLost int       `json:"grand_final_lost"`
	EliminatedIn   RoundKind `json:"eliminated_in,omitempty"`
	BracketWon     int       `json:"bracket_won"`
	BracketLost    int       `json:"bracket_lost"`
	BracketPlayed  int       `json:"bracket_played"`
}

type TotalStats struct {
	TotalWon      int     `json:"total_won"`
	TotalLost     int     `json:"total_lost"`
	TotalPlayed   int     `json:"total_played"`
	WinPercentage float64 `json:"win_percentage"`
	FinalRank     int     `json:"final_rank,omitempty"`
	BODFinish     int     `json:"bod_finish,omitempty"`
	Home          bool    `json:"home"`
}

// TournamentResult is one team's record in one tournament.
type TournamentResult struct {
	ID               string           `json:"id" db:"id"`
	TournamentID     string           `json:"tournament_id" db:"tournament_id"`
	TeamKey          string           `json:"team_key" db:"team_key"`
	TeamName         string           `json:"team_name" db:"team_name"`
	Players          []string         `json:"players" db:"players"`
	PlayerNames      []string         `json:"player_names" db:"player_names"`
	Division         string           `json:"division,omitempty" db:"division"`
	Seed             int              `json:"seed,omitempty" db:"seed"`
	RoundRobinScores RoundRobinScores `json:"round_robin_scores" db:"round_robin_scores"`
	BracketScores    BracketScores    `json:"bracket_scores" db:"bracket_scores"`
	TotalStats       TotalStats       `json:"total_stats" db:"total_stats"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// Finish is the placement used for career statistics.
func (r *TournamentResult) Finish() int {
	if r.TotalStats.BODFinish > 0 {
		return r.TotalStats.BODFinish
	}
	return r.TotalStats.FinalRank
}
