package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/bracket-of-death/models"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrMatchNumberTaken   = errors.New("match number already used in tournament")
)

// ResultMutator edits a team's result in place. created is true when no
// result was stored yet and r starts empty.
type ResultMutator func(r *models.TournamentResult, created bool) error

// Store is everything the progression engine reads and writes.
type Store interface {
	FindTournament(ctx context.Context, id string) (*models.Tournament, error)
	SaveTournament(ctx context.Context, t *models.Tournament) error

	// FindMatches returns matches sorted by round number then match number.
	FindMatches(ctx context.Context, tournamentID string, filter models.MatchFilter) ([]*models.Match, error)
	FindMatch(ctx context.Context, id string) (*models.Match, error)
	SaveMatch(ctx context.Context, m *models.Match) error
	DeleteMatches(ctx context.Context, tournamentID string, round models.RoundKind) (int, error)
	DeleteAllMatches(ctx context.Context, tournamentID string) (int, error)
	InsertMatches(ctx context.Context, matches []*models.Match) error
	// MaxMatchNumber is the highest match number used in the tournament, 0 if none.
	MaxMatchNumber(ctx context.Context, tournamentID string) (int, error)

	// FindTournamentResults returns results sorted by final rank, unranked last.
	FindTournamentResults(ctx context.Context, tournamentID string) ([]*models.TournamentResult, error)
	// UpdateTournamentResult reads the latest stored result for the team,
	// applies fn and writes it back atomically.
	UpdateTournamentResult(ctx context.Context, tournamentID, teamKey string, fn ResultMutator) (*models.TournamentResult, error)
	ReplaceTournamentResults(ctx context.Context, tournamentID string, results []*models.TournamentResult) error

	FindPlayers(ctx context.Context, ids []string) ([]*models.Player, error)
	SavePlayer(ctx context.Context, p *models.Player) error
	UpdatePlayerCareerStats(ctx context.Context, playerID string, delta models.CareerDelta) error

	// WithTournamentLock runs fn while holding the tournament's exclusive
	// lock. Calls nested under the same lock run fn directly.
	WithTournamentLock(ctx context.Context, tournamentID string, fn func(ctx context.Context, s Store) error) error
}

func rankOrder(a, b *models.TournamentResult) bool {
	ra, rb := a.TotalStats.FinalRank, b.TotalStats.FinalRank
	if ra == 0 {
		ra = int(^uint(0) >> 1)
	}
	if rb == 0 {
		rb = int(^uint(0) >> 1)
	}
	if ra != rb {
		return ra < rb
	}
	return a.TeamKey < b.TeamKey
}
