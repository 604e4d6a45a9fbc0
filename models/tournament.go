package models

import (
	"strings"
	"time"
)

type TournamentStatus string

const (
	TournamentScheduled TournamentStatus = "scheduled"
	TournamentOpen      TournamentStatus = "open"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
	TournamentCancelled TournamentStatus = "cancelled"
)

type BracketType string

const (
	BracketLegacy            BracketType = ""
	BracketRoundRobin        BracketType = "round_robin"
	BracketRoundRobinPlayoff BracketType = "round_robin_playoff"
	BracketSingleElimination BracketType = "single_elimination"
	BracketDoubleElimination BracketType = "double_elimination"
)

// StartsWithRoundRobin reports whether play opens with round-robin rounds.
// The legacy empty value behaves as round robin followed by a playoff.
func (b BracketType) StartsWithRoundRobin() bool {
	switch b {
	case BracketLegacy, BracketRoundRobin, BracketRoundRobinPlayoff:
		return true
	}
	return false
}

// HasPlayoff reports whether an elimination bracket is played at all.
func (b BracketType) HasPlayoff() bool {
	return b != BracketRoundRobin
}

func (b BracketType) Valid() bool {
	switch b {
	case BracketLegacy, BracketRoundRobin, BracketRoundRobinPlayoff, BracketSingleElimination, BracketDoubleElimination:
		return true
	}
	return false
}

// Division formats award division championships; the rest are individual.
var divisionFormats = map[string]bool{"M": true, "W": true}

const DefaultRoundRobinRounds = 3

type PlayerRef struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

type SeedInfo struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Seed       int    `json:"seed"`
}

// Bye records a team advancing from a round without a match.
type Bye struct {
	Round    RoundKind `json:"round"`
	Team     Team      `json:"team"`
	Position int       `json:"position"`
}

type ManagementState struct {
	CurrentRound RoundKind `json:"current_round,omitempty"`
}

type Tournament struct {
	ID                 string           `json:"id" db:"id"`
	Name               string           `json:"name" db:"name"`
	Format             string           `json:"format" db:"format"`
	Location           string           `json:"location,omitempty" db:"location"`
	Date               *time.Time       `json:"date,omitempty" db:"date"`
	Status             TournamentStatus `json:"status" db:"status"`
	BracketType        BracketType      `json:"bracket_type,omitempty" db:"bracket_type"`
	MaxPlayers         int              `json:"max_players" db:"max_players"`
	RoundRobinRounds   int              `json:"round_robin_rounds,omitempty" db:"round_robin_rounds"`
	Players            []PlayerRef      `json:"players" db:"players"`
	GeneratedSeeds     []SeedInfo       `json:"generated_seeds,omitempty" db:"generated_seeds"`
	GeneratedTeams     []Team           `json:"generated_teams,omitempty" db:"generated_teams"`
	Byes               []Bye            `json:"byes,omitempty" db:"byes"`
	CheckedIn          []string         `json:"checked_in,omitempty" db:"checked_in"`
	Champion           *PlayerRef       `json:"champion,omitempty" db:"champion"`
	ManagementState    ManagementState  `json:"management_state" db:"management_state"`
	CareerStatsApplied bool             `json:"career_stats_applied" db:"career_stats_applied"`
	ArchiveURL         string           `json:"archive_url,omitempty" db:"archive_url"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}

// IsSingles reports whether teams consist of one player.
func (t *Tournament) IsSingles() bool {
	return strings.Contains(strings.ToLower(t.Format), "singles")
}

func (t *Tournament) IsDivisionFormat() bool {
	return divisionFormats[t.Format]
}

// RRRounds is the number of round-robin rounds played, clamped to 1..3.
func (t *Tournament) RRRounds() []RoundKind {
	n := t.RoundRobinRounds
	if n <= 0 || n > len(RoundRobinRounds) {
		n = DefaultRoundRobinRounds
	}
	return RoundRobinRounds[:n]
}

// ByesFor returns the byes recorded for a round ordered as stored.
func (t *Tournament) ByesFor(round RoundKind) []Bye {
	var out []Bye
	for _, b := range t.Byes {
		if b.Round == round {
			out = append(out, b)
		}
	}
	return out
}

// ReplaceByes swaps the byes of one round, leaving others untouched.
func (t *Tournament) ReplaceByes(round RoundKind, byes []Bye) {
	kept := t.Byes[:0:0]
	for _, b := range t.Byes {
		if b.Round != round {
			kept = append(kept, b)
		}
	}
	t.Byes = append(kept, byes...)
}

func (t *Tournament) IsCheckedIn(teamID string) bool {
	for _, id := range t.CheckedIn {
		if id == teamID {
			return true
		}
	}
	return false
}
