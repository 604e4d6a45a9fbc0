package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/bracket-of-death/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateRound pairs every team with every other team once, iterating
// i=0..n-1, j=i+1..n-1 so the order is stable across regenerations.
func (g *RoundRobinGenerator) GenerateRound(ctx context.Context, params GenerateRoundParams) (*RoundPlan, error) {
	if !params.Round.IsRoundRobin() {
		return nil, fmt.Errorf("%w: %s is not a round-robin round", ErrUnsupportedRound, params.Round)
	}
	teams := params.Teams
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: round robin needs at least 2 teams, found %d", ErrNotEnoughTeams, len(teams))
	}

	plan := &RoundPlan{
		Round:   params.Round,
		Matches: make([]*models.Match, 0, len(teams)*(len(teams)-1)/2),
	}
	number := startNumber(params.StartMatchNumber)
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			plan.Matches = append(plan.Matches, newMatch(params.TournamentID, params.Round, number, 0, teams[i], teams[j]))
			number++
		}
	}
	return plan, nil
}
