package phase

import (
	"github.com/Dosada05/bracket-of-death/brackets"
	"github.com/Dosada05/bracket-of-death/models"
)

type TeamState string

const (
	TeamActive     TeamState = "active"
	TeamAdvanced   TeamState = "advanced"
	TeamEliminated TeamState = "eliminated"
	TeamChampion   TeamState = "champion"
)

// TeamStatus is one team's live standing in the tournament.
type TeamStatus struct {
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	Seed      int       `json:"seed"`
	State     TeamState `json:"state"`
	Played    int       `json:"played"`
	Won       int       `json:"won"`
	Lost      int       `json:"lost"`
	CheckedIn bool      `json:"checked_in"`
}

// winnersRounds are the rounds a bracket can open with, earliest first.
var winnersRounds = []models.RoundKind{
	models.RoundOf64, models.RoundOf32, models.RoundOf16,
	models.RoundQuarterfinal, models.RoundSemifinal, models.RoundFinal,
}

// OpeningRound returns the earliest winners round present, if any.
func OpeningRound(matches []*models.Match, byes []models.Bye) (models.RoundKind, bool) {
	idx := brackets.NewRoundIndex(matches, byes)
	for _, r := range winnersRounds {
		if idx.Present(r) {
			return r, true
		}
	}
	return models.RoundUnknown, false
}

// TeamStatuses derives a status line per team from the match set.
func TeamStatuses(t *models.Tournament, teams []models.Team, matches []*models.Match) []TeamStatus {
	idx := brackets.NewRoundIndex(matches, t.Byes)

	var graph *brackets.Graph
	if opening, ok := OpeningRound(matches, t.Byes); ok {
		graph, _ = brackets.NewGraph(opening, t.BracketType == models.BracketDoubleElimination)
	}

	type tally struct {
		played, won, lost int
		inBracket         bool
		out               bool
		lastRound         models.RoundKind
		lastWon           bool
	}
	byKey := make(map[string]*tally, len(teams))
	for _, tm := range teams {
		byKey[tm.Snapshot().Key()] = &tally{}
	}

	for _, m := range matches {
		bracket := !m.Round.IsRoundRobin()
		for _, side := range []models.Side{models.SideTeam1, models.SideTeam2} {
			tl, ok := byKey[m.Team(side).Key()]
			if !ok {
				continue
			}
			if bracket {
				tl.inBracket = true
			}
			if m.Status != models.MatchCompleted || m.Winner == models.SideNone {
				continue
			}
			tl.played++
			won := m.Winner == side
			if won {
				tl.won++
			} else {
				tl.lost++
				if bracket && (graph == nil || !graph.LosersContinue(m.Round)) {
					tl.out = true
				}
			}
			if bracket && m.Round.Number() >= tl.lastRound.Number() {
				tl.lastRound, tl.lastWon = m.Round, won
			}
		}
	}
	for _, r := range models.BracketRounds {
		for _, e := range idx.Winners(r) {
			if tl, ok := byKey[e.Team.Snapshot().Key()]; ok {
				tl.inBracket = true
			}
		}
	}

	bracketStarted := hasAny(idx, models.BracketRounds)
	var champion string
	if graph != nil {
		if c, ok := graph.Champion(idx); ok && graph.Finished(idx) {
			champion = c.Snapshot().Key()
		}
	}

	out := make([]TeamStatus, 0, len(teams))
	for _, tm := range teams {
		key := tm.Snapshot().Key()
		tl := byKey[key]
		st := TeamStatus{
			TeamID:    key,
			TeamName:  tm.TeamName,
			Seed:      tm.CombinedSeed,
			State:     TeamActive,
			Played:    tl.played,
			Won:       tl.won,
			Lost:      tl.lost,
			CheckedIn: t.IsCheckedIn(key),
		}
		switch {
		case key == champion || (champion == "" && isChampion(t, tm)):
			st.State = TeamChampion
		case bracketStarted && (!tl.inBracket || tl.out):
			st.State = TeamEliminated
		case bracketStarted && tl.lastWon:
			st.State = TeamAdvanced
		}
		out = append(out, st)
	}
	return out
}

func isChampion(t *models.Tournament, tm models.Team) bool {
	if t.Champion == nil {
		return false
	}
	for _, p := range tm.Players {
		if p.PlayerID == t.Champion.PlayerID {
			return true
		}
	}
	return false
}
