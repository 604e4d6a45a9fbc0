// Package standings rolls completed matches into per-team tournament results,
// round-robin standings, final ranks and career deltas.
package standings

import (
	"github.com/Dosada05/bracket-of-death/models"
)

// ApplyMatch counts one completed match for the team on side. Matches that
// are not completed or have no winner are ignored.
func ApplyMatch(r *models.TournamentResult, m *models.Match, side models.Side) {
	if m.Status != models.MatchCompleted || m.Winner == models.SideNone {
		return
	}
	won := m.Winner == side

	if m.Round.IsRoundRobin() {
		rr := &r.RoundRobinScores
		if won {
			rr.RRWon++
			switch m.Round {
			case models.RoundRobin1:
				rr.Round1++
			case models.RoundRobin2:
				rr.Round2++
			case models.RoundRobin3:
				rr.Round3++
			}
		} else {
			rr.RRLost++
		}
		Recompute(r)
		return
	}

	b := &r.BracketScores
	switch m.Round.Counter() {
	case models.CounterR16:
		bump(won, &b.R16Won, &b.R16Lost)
	case models.CounterQF:
		bump(won, &b.QFWon, &b.QFLost)
	case models.CounterSF:
		bump(won, &b.SFWon, &b.SFLost)
	case models.CounterFinals:
		bump(won, &b.FinalsWon, &b.FinalsLost)
	case models.CounterLosers:
		bump(won, &b.LosersWon, &b.LosersLost)
	case models.CounterGrandFinal:
		bump(won, &b.GrandFinalWon, &b.GrandFinalLost)
	case models.CounterNone:
	}
	if won {
		b.BracketWon++
	} else {
		b.BracketLost++
		if m.Round.Number() > b.EliminatedIn.Number() {
			b.EliminatedIn = m.Round
		}
	}
	Recompute(r)
}

func bump(won bool, w, l *int) {
	if won {
		*w++
	} else {
		*l++
	}
}

// Recompute derives every total from its components so a stored total that
// drifted is overwritten rather than trusted.
func Recompute(r *models.TournamentResult) {
	rr := &r.RoundRobinScores
	rr.RRPlayed = rr.RRWon + rr.RRLost
	rr.RRWinPercentage = ratio(rr.RRWon, rr.RRPlayed)

	b := &r.BracketScores
	b.BracketPlayed = b.BracketWon + b.BracketLost

	t := &r.TotalStats
	t.TotalWon = rr.RRWon + b.BracketWon
	t.TotalLost = rr.RRLost + b.BracketLost
	t.TotalPlayed = t.TotalWon + t.TotalLost
	t.WinPercentage = ratio(t.TotalWon, t.TotalPlayed)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// NewResult starts an empty result for a team snapshot.
func NewResult(tournament *models.Tournament, team models.MatchTeam) *models.TournamentResult {
	return &models.TournamentResult{
		TournamentID: tournament.ID,
		TeamKey:      team.Key(),
		Players:      append([]string(nil), team.Players...),
		PlayerNames:  append([]string(nil), team.PlayerNames...),
		Division:     tournament.Format,
		Seed:         team.Seed,
		TotalStats:   models.TotalStats{Home: tournament.Location == "Home"},
	}
}

// Rebuild computes results from scratch over every completed match. Teams
// with no completed match still get an empty result.
func Rebuild(tournament *models.Tournament, teams []models.Team, matches []*models.Match) map[string]*models.TournamentResult {
	results := make(map[string]*models.TournamentResult, len(teams))
	for _, t := range teams {
		snap := t.Snapshot()
		r := NewResult(tournament, snap)
		r.TeamName = t.TeamName
		results[snap.Key()] = r
	}
	for _, m := range matches {
		for _, side := range []models.Side{models.SideTeam1, models.SideTeam2} {
			team := m.Team(side)
			key := team.Key()
			r, ok := results[key]
			if !ok {
				r = NewResult(tournament, *team)
				results[key] = r
			}
			ApplyMatch(r, m, side)
		}
	}
	for _, r := range results {
		Recompute(r)
	}
	return results
}
