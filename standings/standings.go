package standings

import (
	"math"
	"sort"

	"github.com/Dosada05/bracket-of-death/models"
)

// Entry is one line of a standings table.
type Entry struct {
	Team          models.Team `json:"team"`
	Rank          int         `json:"rank"`
	Played        int         `json:"played"`
	Won           int         `json:"won"`
	Lost          int         `json:"lost"`
	WinPercentage float64     `json:"win_percentage"`
	PointsFor     int         `json:"points_for"`
	PointsAgainst int         `json:"points_against"`
	PointDiff     int         `json:"point_diff"`
}

// Table collects per-team lines from completed matches of the rounds
// accepted by include. Teams are listed even before they play.
func Table(teams []models.Team, matches []*models.Match, include func(models.RoundKind) bool) []Entry {
	entries := make([]Entry, 0, len(teams))
	byKey := make(map[string]int, len(teams))
	for _, t := range teams {
		byKey[t.Snapshot().Key()] = len(entries)
		entries = append(entries, Entry{Team: t})
	}

	for _, m := range matches {
		if !include(m.Round) || m.Status != models.MatchCompleted || m.Winner == models.SideNone {
			continue
		}
		for _, side := range []models.Side{models.SideTeam1, models.SideTeam2} {
			team := m.Team(side)
			i, ok := byKey[team.Key()]
			if !ok {
				continue
			}
			opp := m.Team(other(side))
			e := &entries[i]
			e.Played++
			if m.Winner == side {
				e.Won++
			} else {
				e.Lost++
			}
			e.PointsFor += team.ScoreValue()
			e.PointsAgainst += opp.ScoreValue()
		}
	}
	for i := range entries {
		e := &entries[i]
		e.WinPercentage = ratio(e.Won, e.Played)
		e.PointDiff = e.PointsFor - e.PointsAgainst
	}
	return entries
}

func other(side models.Side) models.Side {
	if side == models.SideTeam1 {
		return models.SideTeam2
	}
	return models.SideTeam1
}

// RoundRobin ranks teams on round-robin play: win percentage descending,
// ties broken by combined seed ascending. The sort is stable.
func RoundRobin(teams []models.Team, matches []*models.Match) []Entry {
	entries := Table(teams, matches, models.RoundKind.IsRoundRobin)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].WinPercentage != entries[j].WinPercentage {
			return entries[i].WinPercentage > entries[j].WinPercentage
		}
		return entries[i].Team.CombinedSeed < entries[j].Team.CombinedSeed
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Live ranks teams across every round for the live dashboard: win
// percentage, then point differential, then seed.
func Live(teams []models.Team, matches []*models.Match) []Entry {
	entries := Table(teams, matches, func(models.RoundKind) bool { return true })
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.WinPercentage != b.WinPercentage {
			return a.WinPercentage > b.WinPercentage
		}
		if a.PointDiff != b.PointDiff {
			return a.PointDiff > b.PointDiff
		}
		return a.Team.CombinedSeed < b.Team.CombinedSeed
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Qualifiers keeps, in standings order, the teams with wins >= floor(played/2).
// The list is capped at limit when limit > 0. When fewer than two teams
// qualify the top two of the standings go through instead.
func Qualifiers(entries []Entry, limit int) []models.Team {
	var out []models.Team
	for _, e := range entries {
		if e.Won >= e.Played/2 {
			out = append(out, e.Team)
		}
	}
	if len(out) < 2 {
		out = out[:0]
		for i := 0; i < len(entries) && i < 2; i++ {
			out = append(out, entries[i].Team)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Reseed assigns bracket seeds from standings order so the playoff layout
// follows round-robin results.
func Reseed(teams []models.Team) []models.Team {
	out := make([]models.Team, len(teams))
	for i, t := range teams {
		t.CombinedSeed = i + 1
		out[i] = t
	}
	return out
}

// FinalRank places a team at tournament completion.
func FinalRank(r *models.TournamentResult, totalTeams int, bracket models.BracketType) int {
	b := r.BracketScores
	if bracket == models.BracketDoubleElimination {
		switch {
		case b.GrandFinalWon > 0:
			return 1
		case b.GrandFinalLost > 0:
			return 2
		case b.FinalsLost > 0:
			return minInt(3, totalTeams)
		case b.EliminatedIn == models.RoundLosersFinal:
			return minInt(4, totalTeams)
		case b.BracketPlayed > 0:
			return minInt(5, totalTeams)
		}
		return rrRank(r, totalTeams)
	}

	switch {
	case b.FinalsWon > 0:
		return 1
	case b.FinalsLost > 0:
		return 2
	case b.EliminatedIn == models.RoundThirdPlace:
		return minInt(4, totalTeams)
	case b.SFLost > 0:
		return 3
	case b.QFLost > 0:
		return minInt(5, totalTeams)
	case b.R16Lost > 0:
		return minInt(9, totalTeams)
	}
	return rrRank(r, totalTeams)
}

// rrRank places a team without bracket play by round-robin percentile, never
// above mid-field.
func rrRank(r *models.TournamentResult, totalTeams int) int {
	rank := int(math.Ceil((1 - r.RoundRobinScores.RRWinPercentage) * float64(totalTeams)))
	floor := int(math.Ceil(float64(totalTeams) * 0.5))
	if rank < floor {
		return floor
	}
	return rank
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// AssignFinalRanks writes final rank and BOD finish on every result. For a
// tournament without a playoff the round-robin standings order is the finish.
func AssignFinalRanks(results []*models.TournamentResult, bracket models.BracketType, rrOrder []Entry) {
	if !bracket.HasPlayoff() && len(rrOrder) > 0 {
		pos := make(map[string]int, len(rrOrder))
		for _, e := range rrOrder {
			pos[e.Team.Snapshot().Key()] = e.Rank
		}
		for _, r := range results {
			rank, ok := pos[r.TeamKey]
			if !ok {
				rank = len(rrOrder)
			}
			r.TotalStats.FinalRank, r.TotalStats.BODFinish = rank, rank
		}
		return
	}
	for _, r := range results {
		rank := FinalRank(r, len(results), bracket)
		r.TotalStats.FinalRank, r.TotalStats.BODFinish = rank, rank
	}
}

// SortByRank orders results by final rank, then win percentage.
func SortByRank(results []*models.TournamentResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].TotalStats, results[j].TotalStats
		if a.FinalRank != b.FinalRank {
			return a.FinalRank < b.FinalRank
		}
		return a.WinPercentage > b.WinPercentage
	})
}

// CareerDeltas turns final results into one delta per player.
func CareerDeltas(results []*models.TournamentResult, divisionFormat bool) map[string]models.CareerDelta {
	out := make(map[string]models.CareerDelta)
	for _, r := range results {
		for _, p := range r.Players {
			out[p] = models.CareerDelta{
				GamesPlayed:    r.TotalStats.TotalPlayed,
				GamesWon:       r.TotalStats.TotalWon,
				Finish:         r.Finish(),
				DivisionFormat: divisionFormat,
			}
		}
	}
	return out
}
