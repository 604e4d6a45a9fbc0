package brackets

import (
	"context"
	"errors"

	"github.com/Dosada05/bracket-of-death/models"
)

var (
	ErrNotEnoughTeams   = errors.New("not enough teams to generate round")
	ErrUnsupportedRound = errors.New("round is not supported by this generator")
)

// Entrant is a team carried into a round together with the bracket position
// it comes from. Position is ignored by sequential pairing.
type Entrant struct {
	Team     models.Team
	Position int
}

type GenerateRoundParams struct {
	TournamentID     string
	Round            models.RoundKind
	StartMatchNumber int

	// Teams is the seeded field, used when a round is laid out from seeds.
	Teams []models.Team
	// Entrants carries teams in from earlier rounds. When set it takes
	// precedence over Teams.
	Entrants []Entrant
}

// RoundPlan is everything a generator produces for one round.
type RoundPlan struct {
	Round   models.RoundKind
	Matches []*models.Match
	Byes    []models.Bye
}

type BracketGenerator interface {
	GenerateRound(ctx context.Context, params GenerateRoundParams) (*RoundPlan, error)

	GetName() string
}

// GeneratorFor picks the generator that lays out a round.
func GeneratorFor(round models.RoundKind) BracketGenerator {
	switch {
	case round.IsRoundRobin():
		return NewRoundRobinGenerator()
	case round.IsLosersBracket(), round == models.RoundGrandFinal, round == models.RoundThirdPlace:
		return NewSequentialGenerator()
	default:
		return NewSingleEliminationGenerator()
	}
}

func newMatch(tournamentID string, round models.RoundKind, number, position int, t1, t2 models.Team) *models.Match {
	return &models.Match{
		TournamentID:    tournamentID,
		MatchNumber:     number,
		Round:           round,
		RoundNumber:     round.Number(),
		BracketPosition: position,
		Team1:           t1.Snapshot(),
		Team2:           t2.Snapshot(),
		Status:          models.MatchScheduled,
	}
}

func startNumber(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
