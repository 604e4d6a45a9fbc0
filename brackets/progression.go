package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/bracket-of-death/models"
)

type Take int

const (
	TakeWinners Take = iota
	TakeLosers
)

// Feed names a source of entrants for a round.
type Feed struct {
	From models.RoundKind
	Take Take
}

// Graph describes which rounds feed which for one elimination layout.
type Graph struct {
	opening  models.RoundKind
	feeds    map[models.RoundKind][]Feed
	terminal models.RoundKind
}

// OpeningRound picks the first elimination round for a field size.
func OpeningRound(teams int, allowLarge bool) models.RoundKind {
	switch {
	case teams <= 2:
		return models.RoundFinal
	case teams <= 4:
		return models.RoundSemifinal
	case teams <= 8 || !allowLarge:
		return models.RoundQuarterfinal
	case teams <= 16:
		return models.RoundOf16
	case teams <= 32:
		return models.RoundOf32
	}
	return models.RoundOf64
}

// NewGraph builds the round graph starting at opening. Double elimination is
// laid out for brackets opening at the round of 16 or later.
func NewGraph(opening models.RoundKind, double bool) (*Graph, error) {
	if opening.Size() == 0 || opening.Number() > models.RoundFinal.Number() {
		return nil, fmt.Errorf("%w: %s cannot open a bracket", ErrUnsupportedRound, opening)
	}
	g := &Graph{opening: opening, feeds: make(map[models.RoundKind][]Feed), terminal: models.RoundFinal}

	prev := opening
	for {
		next, ok := prev.NextWinnersRound()
		if !ok {
			break
		}
		g.feeds[next] = []Feed{{From: prev, Take: TakeWinners}}
		prev = next
	}
	if !double || opening == models.RoundFinal {
		return g, nil
	}

	winners := func(r models.RoundKind) Feed { return Feed{From: r, Take: TakeWinners} }
	losers := func(r models.RoundKind) Feed { return Feed{From: r, Take: TakeLosers} }

	switch opening {
	case models.RoundSemifinal:
		g.feeds[models.RoundLosersFinal] = []Feed{losers(models.RoundSemifinal)}
	case models.RoundQuarterfinal:
		g.feeds[models.RoundLosers1] = []Feed{losers(models.RoundQuarterfinal)}
		g.feeds[models.RoundLosersSemifinal] = []Feed{losers(models.RoundSemifinal), winners(models.RoundLosers1)}
		g.feeds[models.RoundLosersFinal] = []Feed{winners(models.RoundLosersSemifinal)}
	case models.RoundOf16:
		g.feeds[models.RoundLosers1] = []Feed{losers(models.RoundOf16)}
		g.feeds[models.RoundLosers2] = []Feed{losers(models.RoundQuarterfinal), winners(models.RoundLosers1)}
		g.feeds[models.RoundLosersQuarterfinal] = []Feed{winners(models.RoundLosers2)}
		g.feeds[models.RoundLosersSemifinal] = []Feed{losers(models.RoundSemifinal), winners(models.RoundLosersQuarterfinal)}
		g.feeds[models.RoundLosersFinal] = []Feed{winners(models.RoundLosersSemifinal)}
	default:
		return nil, fmt.Errorf("%w: double elimination cannot open at %s", ErrUnsupportedRound, opening)
	}
	g.feeds[models.RoundGrandFinal] = []Feed{winners(models.RoundFinal), winners(models.RoundLosersFinal)}
	g.terminal = models.RoundGrandFinal
	return g, nil
}

func (g *Graph) Opening() models.RoundKind { return g.opening }

// Terminal is the round whose winner is the champion.
func (g *Graph) Terminal() models.RoundKind { return g.terminal }

func (g *Graph) Feeds(round models.RoundKind) []Feed { return g.feeds[round] }

// LosersContinue reports whether teams beaten in round play on.
func (g *Graph) LosersContinue(round models.RoundKind) bool {
	for _, feeds := range g.feeds {
		for _, f := range feeds {
			if f.From == round && f.Take == TakeLosers {
				return true
			}
		}
	}
	return false
}

// Rounds lists every round of the graph in canonical order.
func (g *Graph) Rounds() []models.RoundKind {
	out := []models.RoundKind{g.opening}
	for r := range g.feeds {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number() < out[j].Number() })
	return out
}

// RoundIndex groups a tournament's matches and byes by round.
type RoundIndex struct {
	matches map[models.RoundKind][]*models.Match
	byes    map[models.RoundKind][]models.Bye
}

func NewRoundIndex(matches []*models.Match, byes []models.Bye) *RoundIndex {
	idx := &RoundIndex{
		matches: make(map[models.RoundKind][]*models.Match),
		byes:    make(map[models.RoundKind][]models.Bye),
	}
	for _, m := range matches {
		idx.matches[m.Round] = append(idx.matches[m.Round], m)
	}
	for r := range idx.matches {
		ms := idx.matches[r]
		sort.SliceStable(ms, func(i, j int) bool {
			if ms[i].BracketPosition != ms[j].BracketPosition {
				return ms[i].BracketPosition < ms[j].BracketPosition
			}
			return ms[i].MatchNumber < ms[j].MatchNumber
		})
	}
	for _, b := range byes {
		idx.byes[b.Round] = append(idx.byes[b.Round], b)
	}
	return idx
}

func (idx *RoundIndex) Matches(round models.RoundKind) []*models.Match { return idx.matches[round] }

// Present reports whether the round has been generated.
func (idx *RoundIndex) Present(round models.RoundKind) bool {
	return len(idx.matches[round]) > 0 || len(idx.byes[round]) > 0
}

// Completed reports whether the round exists and every match in it is done.
func (idx *RoundIndex) Completed(round models.RoundKind) bool {
	if !idx.Present(round) {
		return false
	}
	for _, m := range idx.matches[round] {
		if m.Status != models.MatchCompleted {
			return false
		}
	}
	return true
}

// Winners returns match winners and bye holders of a round in bracket order.
func (idx *RoundIndex) Winners(round models.RoundKind) []Entrant {
	var out []Entrant
	for _, m := range idx.matches[round] {
		if w := m.WinningTeam(); w != nil {
			out = append(out, Entrant{Team: models.TeamFromSnapshot(*w), Position: m.BracketPosition})
		}
	}
	for _, b := range idx.byes[round] {
		out = append(out, Entrant{Team: b.Team, Position: b.Position})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Losers returns the losing teams of a round in the order they were played.
func (idx *RoundIndex) Losers(round models.RoundKind) []Entrant {
	var out []Entrant
	for _, m := range idx.matches[round] {
		if l := m.LosingTeam(); l != nil {
			out = append(out, Entrant{Team: models.TeamFromSnapshot(*l), Position: m.BracketPosition})
		}
	}
	return out
}

// Entrants collects the teams feeding round, in feed order.
func (g *Graph) Entrants(round models.RoundKind, idx *RoundIndex) []Entrant {
	var out []Entrant
	for _, f := range g.feeds[round] {
		switch f.Take {
		case TakeWinners:
			out = append(out, idx.Winners(f.From)...)
		case TakeLosers:
			out = append(out, idx.Losers(f.From)...)
		}
	}
	return out
}

// Ready reports whether every source of round is complete.
func (g *Graph) Ready(round models.RoundKind, idx *RoundIndex) bool {
	feeds := g.feeds[round]
	if len(feeds) == 0 {
		return false
	}
	for _, f := range feeds {
		if !idx.Completed(f.From) {
			return false
		}
	}
	return true
}

// NextRounds lists rounds that can be generated now: all sources complete
// and not yet present.
func (g *Graph) NextRounds(idx *RoundIndex) []models.RoundKind {
	var out []models.RoundKind
	for _, r := range g.Rounds() {
		if r == g.opening || idx.Present(r) {
			continue
		}
		if g.Ready(r, idx) {
			out = append(out, r)
		}
	}
	return out
}

// Finished reports whether the terminal round has been decided.
func (g *Graph) Finished(idx *RoundIndex) bool {
	return idx.Completed(g.terminal) && len(idx.Winners(g.terminal)) == 1
}

// Champion is the terminal round's winner.
func (g *Graph) Champion(idx *RoundIndex) (models.Team, bool) {
	w := idx.Winners(g.terminal)
	if len(w) != 1 {
		return models.Team{}, false
	}
	return w[0].Team, true
}
