package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/events"
	"github.com/Dosada05/bracket-of-death/metrics"
	"github.com/Dosada05/bracket-of-death/models"
	"github.com/Dosada05/bracket-of-death/repositories"
	"github.com/Dosada05/bracket-of-death/scoring"
	"github.com/Dosada05/bracket-of-death/standings"
)

var ErrMatchesListFailed = errors.New("failed to list matches")

type MatchService interface {
	ListMatches(ctx context.Context, tournamentID string, filter models.MatchFilter) ([]*models.Match, error)
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	// UpdateMatch applies a partial score update. operatorID is the
	// authenticated caller, recorded on admin overrides.
	UpdateMatch(ctx context.Context, matchID string, upd scoring.MatchUpdate, operatorID string) (*models.Match, error)
	// ConfirmMatches stamps completed matches as confirmed. RoundUnknown
	// confirms every round.
	ConfirmMatches(ctx context.Context, tournamentID string, round models.RoundKind) ([]*models.Match, error)
	CheckIn(ctx context.Context, tournamentID, teamID string, present bool) (*models.Tournament, error)
}

type matchService struct {
	store    repositories.Store
	resolver *scoring.Resolver
	metrics  metrics.Metrics
	tracer   trace.Tracer
	log      *zap.SugaredLogger
	notify   *notifier
	now      func() time.Time
}

func NewMatchService(
	store repositories.Store,
	resolver *scoring.Resolver,
	publisher events.Publisher,
	m metrics.Metrics,
	tracer trace.Tracer,
	log *zap.SugaredLogger,
) MatchService {
	return &matchService{
		store:    store,
		resolver: resolver,
		metrics:  m,
		tracer:   tracer,
		log:      log,
		notify:   newNotifier(store, publisher, m, log),
		now:      time.Now,
	}
}

func (s *matchService) ListMatches(ctx context.Context, tournamentID string, filter models.MatchFilter) ([]*models.Match, error) {
	if _, err := s.store.FindTournament(ctx, tournamentID); err != nil {
		return nil, classify(err)
	}
	matches, err := s.store.FindMatches(ctx, tournamentID, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: tournament %s: %w", ErrMatchesListFailed, tournamentID, err)
	}
	if matches == nil {
		return []*models.Match{}, nil
	}
	return matches, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	m, err := s.store.FindMatch(ctx, matchID)
	if err != nil {
		return nil, classify(err)
	}
	return m, nil
}

func (s *matchService) UpdateMatch(ctx context.Context, matchID string, upd scoring.MatchUpdate, operatorID string) (*models.Match, error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.UpdateMatch", trace.WithAttributes(attribute.String("match_id", matchID)))
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("update_match", time.Since(start)) }()

	current, err := s.store.FindMatch(ctx, matchID)
	if err != nil {
		return nil, classify(err)
	}
	tournamentID := current.TournamentID

	var (
		m          *models.Match
		res        scoring.Resolution
		statsMoved bool
	)
	err = s.store.WithTournamentLock(ctx, tournamentID, func(ctx context.Context, st repositories.Store) error {
		t, err := st.FindTournament(ctx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load tournament %s: %w", tournamentID, err)
		}
		if t.Status == models.TournamentCancelled {
			return transitionErrorf("tournament %s is cancelled", tournamentID)
		}
		// re-read under the lock; the first read only located the tournament
		m, err = st.FindMatch(ctx, matchID)
		if err != nil {
			return err
		}

		res, err = s.resolver.Apply(m, upd, operatorID)
		if err != nil {
			s.recordRejection(err)
			return err
		}
		if err := st.SaveMatch(ctx, m); err != nil {
			return fmt.Errorf("failed to save match %s: %w", matchID, err)
		}

		switch {
		case res.ResultChanged(m):
			statsMoved = true
			return s.rebuildResults(ctx, st, t)
		case res.BecameCompleted(m):
			statsMoved = true
			return s.countMatch(ctx, st, t, m)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, classify(err)
	}

	s.log.Infow("Match updated", "tournament_id", tournamentID, "match_id", matchID, "round", m.Round,
		"status", m.Status, "winner", m.Winner, "auto_completed", res.AutoCompleted, "overridden", res.Overridden)

	if statsMoved {
		s.notify.publish(ctx, tournamentID, events.StatsUpdate, matchRefPayload{MatchID: matchID})
	}
	s.notify.publish(ctx, tournamentID, events.MatchUpdate, matchUpdatePayload{MatchID: matchID, Update: upd})
	s.notify.publishSnapshot(ctx, tournamentID)
	return m, nil
}

func (s *matchService) recordRejection(err error) {
	switch {
	case errors.Is(err, scoring.ErrInvalidScore):
		s.metrics.RecordScoreRejected("validity")
	case errors.Is(err, scoring.ErrInvalidInput):
		s.metrics.RecordScoreRejected("input")
	}
}

// countMatch adds a newly completed match to both teams' results. Each side
// is a read-modify-write against the stored row so concurrent completions
// never lose counts.
func (s *matchService) countMatch(ctx context.Context, st repositories.Store, t *models.Tournament, m *models.Match) error {
	for _, side := range []models.Side{models.SideTeam1, models.SideTeam2} {
		team := *m.Team(side)
		_, err := st.UpdateTournamentResult(ctx, t.ID, team.Key(), func(r *models.TournamentResult, created bool) error {
			if created {
				fresh := standings.NewResult(t, team)
				fresh.ID = r.ID
				fresh.TeamName = teamName(t, team)
				*r = *fresh
			}
			standings.ApplyMatch(r, m, side)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to update result of team %s: %w", team.Key(), err)
		}
	}
	return nil
}

// rebuildResults recounts every result after a completed match was edited.
// Ranks and the champion are reassigned when the tournament is already
// completed.
func (s *matchService) rebuildResults(ctx context.Context, st repositories.Store, t *models.Tournament) error {
	matches, err := st.FindMatches(ctx, t.ID, models.MatchFilter{})
	if err != nil {
		return fmt.Errorf("failed to load matches of tournament %s: %w", t.ID, err)
	}
	var results []*models.TournamentResult
	if t.Status == models.TournamentCompleted {
		results = finalResults(t, t.GeneratedTeams, matches)
		if err := s.recrown(ctx, st, t, matches); err != nil {
			return err
		}
	} else {
		for _, r := range standings.Rebuild(t, t.GeneratedTeams, matches) {
			results = append(results, r)
		}
	}
	if err := st.ReplaceTournamentResults(ctx, t.ID, results); err != nil {
		return fmt.Errorf("failed to rebuild results of tournament %s: %w", t.ID, err)
	}
	s.log.Infow("Rebuilt tournament results", "tournament_id", t.ID, "teams", len(results))
	return nil
}

// recrown keeps the stored champion in line with the decided terminal match.
func (s *matchService) recrown(ctx context.Context, st repositories.Store, t *models.Tournament, matches []*models.Match) error {
	champion, err := championOf(t, matches, func() ([]models.Team, error) { return t.GeneratedTeams, nil })
	if err != nil {
		return fmt.Errorf("failed to derive champion of tournament %s: %w", t.ID, err)
	}
	var next *models.PlayerRef
	if champion != nil {
		next = championRef(*champion)
	}
	if samePlayerRef(t.Champion, next) {
		return nil
	}
	t.Champion = next
	if err := st.SaveTournament(ctx, t); err != nil {
		return fmt.Errorf("failed to save tournament %s: %w", t.ID, err)
	}
	s.log.Infow("Champion changed after match edit", "tournament_id", t.ID, "champion", next)
	return nil
}

func samePlayerRef(a, b *models.PlayerRef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func teamName(t *models.Tournament, team models.MatchTeam) string {
	key := team.Key()
	for _, tm := range t.GeneratedTeams {
		if tm.TeamID == key || tm.Snapshot().Key() == key {
			return tm.TeamName
		}
	}
	return models.TeamFromSnapshot(team).TeamName
}

func (s *matchService) ConfirmMatches(ctx context.Context, tournamentID string, round models.RoundKind) ([]*models.Match, error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.ConfirmMatches", trace.WithAttributes(attribute.String("tournament_id", tournamentID)))
	defer span.End()

	var confirmed []*models.Match
	err := s.store.WithTournamentLock(ctx, tournamentID, func(ctx context.Context, st repositories.Store) error {
		if _, err := st.FindTournament(ctx, tournamentID); err != nil {
			return err
		}
		matches, err := st.FindMatches(ctx, tournamentID, models.MatchFilter{Round: round, Status: models.MatchCompleted})
		if err != nil {
			return fmt.Errorf("failed to load completed matches of tournament %s: %w", tournamentID, err)
		}
		now := s.now().UTC()
		for _, m := range matches {
			if m.ConfirmedAt != nil {
				continue
			}
			m.ConfirmedAt = &now
			if err := st.SaveMatch(ctx, m); err != nil {
				return fmt.Errorf("failed to confirm match %s: %w", m.ID, err)
			}
			confirmed = append(confirmed, m)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, classify(err)
	}

	s.log.Infow("Matches confirmed", "tournament_id", tournamentID, "round", round, "count", len(confirmed))
	for _, m := range confirmed {
		s.notify.publish(ctx, tournamentID, events.MatchConfirmed, matchRefPayload{MatchID: m.ID})
	}
	s.notify.publishSnapshot(ctx, tournamentID)
	if confirmed == nil {
		confirmed = []*models.Match{}
	}
	return confirmed, nil
}

func (s *matchService) CheckIn(ctx context.Context, tournamentID, teamID string, present bool) (*models.Tournament, error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.CheckIn", trace.WithAttributes(attribute.String("tournament_id", tournamentID), attribute.String("team_id", teamID)))
	defer span.End()

	var t *models.Tournament
	err := s.store.WithTournamentLock(ctx, tournamentID, func(ctx context.Context, st repositories.Store) error {
		var err error
		t, err = st.FindTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		teams, _, err := resolveTeams(ctx, st, t, s.log)
		if err != nil {
			return err
		}
		found := false
		for _, tm := range teams {
			if tm.TeamID == teamID {
				found = true
				break
			}
		}
		if !found {
			return &NotFoundError{Err: fmt.Errorf("team %s is not part of tournament %s", teamID, tournamentID)}
		}

		kept := t.CheckedIn[:0:0]
		for _, id := range t.CheckedIn {
			if id != teamID {
				kept = append(kept, id)
			}
		}
		if present {
			kept = append(kept, teamID)
		}
		t.CheckedIn = kept
		return st.SaveTournament(ctx, t)
	})
	if err != nil {
		span.RecordError(err)
		return nil, classify(err)
	}

	s.log.Infow("Team check-in recorded", "tournament_id", tournamentID, "team_id", teamID, "present", present)
	s.notify.publish(ctx, tournamentID, events.TeamCheckIn, checkInPayload{TeamID: teamID, Present: present})
	s.notify.publishSnapshot(ctx, tournamentID)
	return t, nil
}
