package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/bracket-of-death/models"
	"github.com/Dosada05/bracket-of-death/phase"
	"github.com/Dosada05/bracket-of-death/repositories"
	"github.com/Dosada05/bracket-of-death/standings"
)

// LiveSnapshot is the full current picture of a tournament, sent to live
// subscribers when they join and after every change.
type LiveSnapshot struct {
	Tournament *models.Tournament         `json:"tournament"`
	Phase      phase.TournamentPhase      `json:"phase"`
	Teams      []phase.TeamStatus         `json:"teams"`
	Matches    []*models.Match            `json:"matches"`
	Standings  []standings.Entry          `json:"standings"`
	Results    []*models.TournamentResult `json:"results"`
}

// StandingsView is the standings payload: round-robin order, the live table
// over every match and the stored per-team results.
type StandingsView struct {
	TournamentID string                     `json:"tournament_id"`
	RoundRobin   []standings.Entry          `json:"round_robin"`
	Live         []standings.Entry          `json:"live"`
	Results      []*models.TournamentResult `json:"results"`
}

type LiveService interface {
	Snapshot(ctx context.Context, tournamentID string) (*LiveSnapshot, error)
	Phase(ctx context.Context, tournamentID string) (*phase.TournamentPhase, error)
	Standings(ctx context.Context, tournamentID string) (*StandingsView, error)
}

type liveService struct {
	store repositories.Store
	log   *zap.SugaredLogger
}

func NewLiveService(store repositories.Store, log *zap.SugaredLogger) LiveService {
	return &liveService{store: store, log: log}
}

func (s *liveService) Snapshot(ctx context.Context, tournamentID string) (*LiveSnapshot, error) {
	snap, err := loadSnapshot(ctx, s.store, tournamentID)
	if err != nil {
		return nil, classify(err)
	}
	return snap, nil
}

func (s *liveService) Phase(ctx context.Context, tournamentID string) (*phase.TournamentPhase, error) {
	snap, err := s.Snapshot(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return &snap.Phase, nil
}

func (s *liveService) Standings(ctx context.Context, tournamentID string) (*StandingsView, error) {
	snap, err := s.Snapshot(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return &StandingsView{
		TournamentID: tournamentID,
		RoundRobin:   standings.RoundRobin(snap.Tournament.GeneratedTeams, snap.Matches),
		Live:         snap.Standings,
		Results:      snap.Results,
	}, nil
}

// loadSnapshot reads tournament, matches and results concurrently.
func loadSnapshot(ctx context.Context, store repositories.Store, tournamentID string) (*LiveSnapshot, error) {
	var (
		t       *models.Tournament
		matches []*models.Match
		results []*models.TournamentResult
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = store.FindTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load tournament %s: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = store.FindMatches(gCtx, tournamentID, models.MatchFilter{})
		if err != nil {
			return fmt.Errorf("failed to load matches of tournament %s: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		results, err = store.FindTournamentResults(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load results of tournament %s: %w", tournamentID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return buildSnapshot(t, matches, results), nil
}

func buildSnapshot(t *models.Tournament, matches []*models.Match, results []*models.TournamentResult) *LiveSnapshot {
	if matches == nil {
		matches = []*models.Match{}
	}
	if results == nil {
		results = []*models.TournamentResult{}
	}
	return &LiveSnapshot{
		Tournament: t,
		Phase:      phase.Derive(t, matches, len(results)),
		Teams:      phase.TeamStatuses(t, t.GeneratedTeams, matches),
		Matches:    matches,
		Standings:  standings.Live(t.GeneratedTeams, matches),
		Results:    results,
	}
}
