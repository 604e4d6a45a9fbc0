package brackets

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/bracket-of-death/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateRound lays out a winners-bracket round. Without entrants the round
// is seeded from Teams; otherwise entrants from position p fill slot p and
// slots 2k and 2k+1 meet at position k.
func (g *SingleEliminationGenerator) GenerateRound(ctx context.Context, params GenerateRoundParams) (*RoundPlan, error) {
	if params.Round.IsRoundRobin() || params.Round.IsLosersBracket() {
		return nil, fmt.Errorf("%w: %s is not a winners-bracket round", ErrUnsupportedRound, params.Round)
	}
	if params.Entrants != nil {
		return g.advance(params)
	}
	return g.seed(params)
}

func (g *SingleEliminationGenerator) seed(params GenerateRoundParams) (*RoundPlan, error) {
	teams := SortBySeed(params.Teams)
	if limit := params.Round.Size(); limit > 0 && len(teams) > limit {
		teams = teams[:limit]
	}
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: %s needs at least 2 teams, found %d", ErrNotEnoughTeams, params.Round, len(teams))
	}

	size := nextPowerOfTwo(len(teams))
	order := SeedOrder(size)
	plan := &RoundPlan{Round: params.Round}
	number := startNumber(params.StartMatchNumber)

	for pos := 0; pos < size/2; pos++ {
		hi, lo := order[2*pos], order[2*pos+1]
		if lo < hi {
			hi, lo = lo, hi
		}
		// seeds are 1-based ranks into the sorted field; beyond the field is a bye
		if lo > len(teams) {
			plan.Byes = append(plan.Byes, models.Bye{Round: params.Round, Team: teams[hi-1], Position: pos})
			continue
		}
		plan.Matches = append(plan.Matches, newMatch(params.TournamentID, params.Round, number, pos, teams[hi-1], teams[lo-1]))
		number++
	}
	return plan, nil
}

func (g *SingleEliminationGenerator) advance(params GenerateRoundParams) (*RoundPlan, error) {
	if len(params.Entrants) < 2 {
		return nil, fmt.Errorf("%w: %s needs at least 2 entrants, found %d", ErrNotEnoughTeams, params.Round, len(params.Entrants))
	}
	entrants := append([]Entrant(nil), params.Entrants...)
	sort.SliceStable(entrants, func(i, j int) bool { return entrants[i].Position < entrants[j].Position })

	slots := make(map[int][]Entrant)
	positions := make([]int, 0)
	for _, e := range entrants {
		pos := e.Position / 2
		if _, ok := slots[pos]; !ok {
			positions = append(positions, pos)
		}
		slots[pos] = append(slots[pos], e)
	}

	plan := &RoundPlan{Round: params.Round}
	number := startNumber(params.StartMatchNumber)
	for _, pos := range positions {
		pair := slots[pos]
		switch len(pair) {
		case 1:
			plan.Byes = append(plan.Byes, models.Bye{Round: params.Round, Team: pair[0].Team, Position: pos})
		case 2:
			plan.Matches = append(plan.Matches, newMatch(params.TournamentID, params.Round, number, pos, pair[0].Team, pair[1].Team))
			number++
		default:
			return nil, fmt.Errorf("bracket position %d of %s has %d entrants", pos, params.Round, len(pair))
		}
	}
	return plan, nil
}

// PreviewMatch is one slot of a projected bracket. Later-round slots point at
// the matches that feed them.
type PreviewMatch struct {
	UID           string           `json:"uid"`
	Round         models.RoundKind `json:"round"`
	Position      int              `json:"position"`
	Team1         *models.Team     `json:"team1,omitempty"`
	Team2         *models.Team     `json:"team2,omitempty"`
	Source1UID    string           `json:"source1_uid,omitempty"`
	Source2UID    string           `json:"source2_uid,omitempty"`
	IsBye         bool             `json:"is_bye"`
	IsPlaceholder bool             `json:"is_placeholder"`
}

type previewNode struct {
	team      *models.Team
	sourceUID string
	bye       bool
}

// Preview projects the full seeded bracket from its opening round to the
// final, resolving byes forward and leaving later rounds as placeholders.
func Preview(opening models.RoundKind, teams []models.Team) []PreviewMatch {
	sorted := SortBySeed(teams)
	if limit := opening.Size(); limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	if len(sorted) < 2 {
		return nil
	}
	size := nextPowerOfTwo(len(sorted))
	nodes := make([]previewNode, size)
	for i, s := range SeedOrder(size) {
		if s > len(sorted) {
			nodes[i] = previewNode{bye: true}
			continue
		}
		t := sorted[s-1]
		nodes[i] = previewNode{team: &t}
	}

	var out []PreviewMatch
	round := opening
	for len(nodes) > 1 {
		next := make([]previewNode, 0, len(nodes)/2)
		for i := 0; i < len(nodes); i += 2 {
			a, b := nodes[i], nodes[i+1]
			pm := PreviewMatch{
				UID:        fmt.Sprintf("%s-%d", round, i/2),
				Round:      round,
				Position:   i / 2,
				Team1:      a.team,
				Team2:      b.team,
				Source1UID: a.sourceUID,
				Source2UID: b.sourceUID,
			}
			pm.IsPlaceholder = pm.Source1UID != "" || pm.Source2UID != ""
			switch {
			case a.bye && b.bye:
				next = append(next, previewNode{bye: true})
				continue
			case b.bye && a.team != nil:
				pm.IsBye = true
				next = append(next, previewNode{team: a.team})
			case a.bye && b.team != nil:
				pm.IsBye, pm.Team1, pm.Team2 = true, b.team, nil
				next = append(next, previewNode{team: b.team})
			default:
				next = append(next, previewNode{sourceUID: pm.UID})
			}
			out = append(out, pm)
		}
		nodes = next
		nr, ok := round.NextWinnersRound()
		if !ok {
			break
		}
		round = nr
	}
	return out
}
