package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-of-death/models"
)

// SequentialGenerator pairs entrants in the order they arrive: 0v1, 2v3 and
// so on, without reseeding. An odd team out gets a bye. It lays out losers
// bracket rounds, the grand final and the third-place match.
type SequentialGenerator struct{}

func NewSequentialGenerator() BracketGenerator {
	return &SequentialGenerator{}
}

func (g *SequentialGenerator) GetName() string {
	return "Sequential"
}

func (g *SequentialGenerator) GenerateRound(ctx context.Context, params GenerateRoundParams) (*RoundPlan, error) {
	switch {
	case params.Round.IsLosersBracket(), params.Round == models.RoundGrandFinal, params.Round == models.RoundThirdPlace:
	default:
		return nil, fmt.Errorf("%w: %s is not paired sequentially", ErrUnsupportedRound, params.Round)
	}

	teams := make([]models.Team, 0, len(params.Entrants))
	for _, e := range params.Entrants {
		teams = append(teams, e.Team)
	}
	if params.Entrants == nil {
		teams = append(teams, params.Teams...)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: %s has no entrants", ErrNotEnoughTeams, params.Round)
	}
	if len(teams) == 1 && params.Round == models.RoundGrandFinal {
		return nil, fmt.Errorf("%w: grand final needs both bracket champions", ErrNotEnoughTeams)
	}

	plan := &RoundPlan{Round: params.Round}
	number := startNumber(params.StartMatchNumber)
	pos := 0
	for i := 0; i+1 < len(teams); i += 2 {
		plan.Matches = append(plan.Matches, newMatch(params.TournamentID, params.Round, number, pos, teams[i], teams[i+1]))
		number++
		pos++
	}
	if len(teams)%2 == 1 {
		plan.Byes = append(plan.Byes, models.Bye{Round: params.Round, Team: teams[len(teams)-1], Position: pos})
	}
	return plan, nil
}
