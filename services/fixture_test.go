package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/events"
	"github.com/Dosada05/bracket-of-death/metrics"
	"github.com/Dosada05/bracket-of-death/models"
	"github.com/Dosada05/bracket-of-death/repositories"
	"github.com/Dosada05/bracket-of-death/scoring"
	"github.com/Dosada05/bracket-of-death/storage"
)

type published struct {
	TournamentID string
	Type         events.Type
	Payload      interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, tournamentID string, eventType events.Type, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{TournamentID: tournamentID, Type: eventType, Payload: payload})
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type fixture struct {
	ctx         context.Context
	store       *repositories.MemoryStore
	pub         *recordingPublisher
	progression ProgressionService
	matches     MatchService
	live        LiveService
}

func newFixture(t *testing.T, archiver storage.Archiver) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	pub := &recordingPublisher{}
	log := zap.NewNop().Sugar()
	tracer := noop.NewTracerProvider().Tracer("test")
	m := metrics.NewNop()
	return &fixture{
		ctx:         context.Background(),
		store:       store,
		pub:         pub,
		progression: NewProgressionService(store, pub, archiver, m, tracer, log),
		matches:     NewMatchService(store, scoring.NewResolver(scoring.NewProSetRule()), pub, m, tracer, log),
		live:        NewLiveService(store, log),
	}
}

// seededTeams builds n doubles teams with seeds 1..n in seed order.
func seededTeams(tournamentID string, n int) []models.Team {
	faker := gofakeit.New(uint64(n))
	teams := make([]models.Team, n)
	for i := range teams {
		seed := i + 1
		a, b := faker.FirstName(), faker.FirstName()
		teams[i] = models.Team{
			TeamID:   fmt.Sprintf("%s-T%d", tournamentID, seed),
			TeamName: a + " & " + b,
			Players: []models.TeamPlayer{
				{PlayerID: fmt.Sprintf("%s-p%da", tournamentID, seed), PlayerName: a, Seed: seed},
				{PlayerID: fmt.Sprintf("%s-p%db", tournamentID, seed), PlayerName: b, Seed: seed},
			},
			CombinedSeed: seed,
		}
	}
	return teams
}

func (f *fixture) tournament(t *testing.T, id string, bracket models.BracketType, teams int, mutate ...func(*models.Tournament)) *models.Tournament {
	t.Helper()
	tour := &models.Tournament{
		ID:               id,
		Name:             "Bracket of Death " + id,
		Format:           "Mixed",
		Status:           models.TournamentActive,
		BracketType:      bracket,
		RoundRobinRounds: 1,
		GeneratedTeams:   seededTeams(id, teams),
	}
	for _, fn := range mutate {
		fn(tour)
	}
	require.NoError(t, f.store.SaveTournament(f.ctx, tour))
	return tour
}

func (f *fixture) roundMatches(t *testing.T, tournamentID string, round models.RoundKind) []*models.Match {
	t.Helper()
	matches, err := f.store.FindMatches(f.ctx, tournamentID, models.MatchFilter{Round: round})
	require.NoError(t, err)
	return matches
}

func completed(team1, team2 int) scoring.MatchUpdate {
	status := models.MatchCompleted
	return scoring.MatchUpdate{Team1Score: &team1, Team2Score: &team2, Status: &status}
}

// playRound completes every match of a round. team1Wins decides each match.
func (f *fixture) playRound(t *testing.T, tournamentID string, round models.RoundKind, team1Wins func(m *models.Match) bool) {
	t.Helper()
	for _, m := range f.roundMatches(t, tournamentID, round) {
		upd := completed(11, 5)
		if team1Wins != nil && !team1Wins(m) {
			upd = completed(5, 11)
		}
		_, err := f.matches.UpdateMatch(f.ctx, m.ID, upd, "")
		require.NoError(t, err, "match %d of %s", m.MatchNumber, round)
	}
}

func seedPairs(matches []*models.Match) [][2]int {
	out := make([][2]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, [2]int{m.Team1.Seed, m.Team2.Seed})
	}
	return out
}

func resultsByKey(t *testing.T, f *fixture, tournamentID string) map[string]*models.TournamentResult {
	t.Helper()
	results, err := f.store.FindTournamentResults(f.ctx, tournamentID)
	require.NoError(t, err)
	out := make(map[string]*models.TournamentResult, len(results))
	for _, r := range results {
		out[r.TeamKey] = r
	}
	return out
}
