package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/brackets"
	"github.com/Dosada05/bracket-of-death/events"
	"github.com/Dosada05/bracket-of-death/metrics"
	"github.com/Dosada05/bracket-of-death/models"
	"github.com/Dosada05/bracket-of-death/phase"
	"github.com/Dosada05/bracket-of-death/repositories"
	"github.com/Dosada05/bracket-of-death/standings"
	"github.com/Dosada05/bracket-of-death/storage"
)

// maxPlayoffField caps how many round-robin qualifiers enter the bracket.
const maxPlayoffField = 8

type ActionRequest struct {
	Action phase.Action `json:"action"`
	Round  string       `json:"round,omitempty"`
}

// RoundGeneration reports one regenerated round.
type RoundGeneration struct {
	Round   models.RoundKind `json:"round"`
	Matches []*models.Match  `json:"matches"`
	Byes    []models.Bye     `json:"byes,omitempty"`
	Deleted int              `json:"deleted"`
}

type ProgressResult struct {
	Tournament *models.Tournament    `json:"tournament"`
	Phase      phase.TournamentPhase `json:"phase"`
	Generated  []*RoundGeneration    `json:"generated,omitempty"`
	Completed  bool                  `json:"completed"`
}

type ProgressionService interface {
	GenerateMatchesForRound(ctx context.Context, tournamentID string, round models.RoundKind) (*RoundGeneration, error)
	// AdvanceRound moves the tournament on when the current round is done.
	// It returns the unchanged tournament when nothing can advance.
	AdvanceRound(ctx context.Context, tournamentID string) (*ProgressResult, error)
	ExecuteAction(ctx context.Context, tournamentID string, req ActionRequest) (*ProgressResult, error)
}

type progressionService struct {
	store    repositories.Store
	archiver storage.Archiver
	metrics  metrics.Metrics
	tracer   trace.Tracer
	log      *zap.SugaredLogger
	notify   *notifier
}

// NewProgressionService wires the orchestrator. archiver may be nil, in which
// case completed tournaments are not archived.
func NewProgressionService(
	store repositories.Store,
	publisher events.Publisher,
	archiver storage.Archiver,
	m metrics.Metrics,
	tracer trace.Tracer,
	log *zap.SugaredLogger,
) ProgressionService {
	return &progressionService{
		store:    store,
		archiver: archiver,
		metrics:  m,
		tracer:   tracer,
		log:      log,
		notify:   newNotifier(store, publisher, m, log),
	}
}

// tournamentState is what one locked operation reads and mutates.
type tournamentState struct {
	t           *models.Tournament
	matches     []*models.Match
	resultCount int
	dirty       bool

	generated      []*RoundGeneration
	final          *completion
	discardArchive bool
}

// completion carries what runs after the lock is released.
type completion struct {
	results []*models.TournamentResult
	rollup  bool
}

func loadState(ctx context.Context, st repositories.Store, tournamentID string) (*tournamentState, error) {
	// sequential on purpose: st may be bound to a single transaction
	t, err := st.FindTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %s: %w", tournamentID, err)
	}
	matches, err := st.FindMatches(ctx, tournamentID, models.MatchFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load matches of tournament %s: %w", tournamentID, err)
	}
	results, err := st.FindTournamentResults(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results of tournament %s: %w", tournamentID, err)
	}
	return &tournamentState{t: t, matches: matches, resultCount: len(results)}, nil
}

func (s *tournamentState) phase() phase.TournamentPhase {
	return phase.Derive(s.t, s.matches, s.resultCount)
}

func (s *tournamentState) index() *brackets.RoundIndex {
	return brackets.NewRoundIndex(s.matches, s.t.Byes)
}

func (s *tournamentState) result() *ProgressResult {
	return &ProgressResult{
		Tournament: s.t,
		Phase:      s.phase(),
		Generated:  s.generated,
		Completed:  s.final != nil,
	}
}

// run executes fn under the tournament lock, saves the tournament when fn
// marked it dirty and performs post-commit side effects.
func (s *progressionService) run(ctx context.Context, op, tournamentID string, fn func(ctx context.Context, st repositories.Store, state *tournamentState) error) (*tournamentState, error) {
	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration(op, time.Since(start)) }()

	var state *tournamentState
	err := s.store.WithTournamentLock(ctx, tournamentID, func(ctx context.Context, st repositories.Store) error {
		var err error
		state, err = loadState(ctx, st, tournamentID)
		if err != nil {
			return err
		}
		if err := fn(ctx, st, state); err != nil {
			return err
		}
		if state.dirty {
			if err := st.SaveTournament(ctx, state.t); err != nil {
				return fmt.Errorf("failed to save tournament %s: %w", tournamentID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	for _, gen := range state.generated {
		s.metrics.RecordMatchesGenerated(gen.Round.String(), len(gen.Matches))
		s.notify.publish(ctx, tournamentID, events.MatchesGenerated, matchesGeneratedPayload{Round: gen.Round, Count: len(gen.Matches)})
	}
	if state.final != nil {
		s.finish(ctx, state)
	}
	if state.discardArchive {
		s.discardArchive(ctx, tournamentID)
	}
	return state, nil
}

func (s *progressionService) GenerateMatchesForRound(ctx context.Context, tournamentID string, round models.RoundKind) (*RoundGeneration, error) {
	ctx, span := s.tracer.Start(ctx, "ProgressionService.GenerateMatchesForRound",
		trace.WithAttributes(attribute.String("tournament_id", tournamentID), attribute.String("round", round.String())))
	defer span.End()

	var gen *RoundGeneration
	_, err := s.run(ctx, "generate", tournamentID, func(ctx context.Context, st repositories.Store, state *tournamentState) error {
		switch state.t.Status {
		case models.TournamentCompleted, models.TournamentCancelled:
			return transitionErrorf("cannot generate matches while tournament is %s", state.t.Status)
		}
		var err error
		gen, err = s.generate(ctx, st, state, round)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.log.Infow("Generated round", "tournament_id", tournamentID, "round", round, "matches", len(gen.Matches), "byes", len(gen.Byes), "deleted", gen.Deleted)
	s.notify.publishSnapshot(ctx, tournamentID)
	return gen, nil
}

func (s *progressionService) AdvanceRound(ctx context.Context, tournamentID string) (*ProgressResult, error) {
	ctx, span := s.tracer.Start(ctx, "ProgressionService.AdvanceRound",
		trace.WithAttributes(attribute.String("tournament_id", tournamentID)))
	defer span.End()

	state, err := s.run(ctx, "advance", tournamentID, func(ctx context.Context, st repositories.Store, state *tournamentState) error {
		return s.advance(ctx, st, state)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	res := state.result()
	if len(res.Generated) == 0 && !res.Completed {
		s.log.Debugw("Nothing to advance", "tournament_id", tournamentID, "phase", res.Phase.Phase, "round", res.Phase.CurrentRound)
		return res, nil
	}
	s.metrics.RecordRoundAdvanced(string(res.Phase.Phase))
	s.log.Infow("Advanced tournament", "tournament_id", tournamentID, "phase", res.Phase.Phase, "round", res.Phase.CurrentRound, "completed", res.Completed)
	s.notify.publishSnapshot(ctx, tournamentID)
	return res, nil
}

func (s *progressionService) ExecuteAction(ctx context.Context, tournamentID string, req ActionRequest) (*ProgressResult, error) {
	ctx, span := s.tracer.Start(ctx, "ProgressionService.ExecuteAction",
		trace.WithAttributes(attribute.String("tournament_id", tournamentID), attribute.String("action", string(req.Action))))
	defer span.End()

	state, err := s.run(ctx, "action:"+string(req.Action), tournamentID, func(ctx context.Context, st repositories.Store, state *tournamentState) error {
		if err := phase.Authorize(state.t, state.phase(), req.Action); err != nil {
			return err
		}
		return s.apply(ctx, st, state, req)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	res := state.result()
	if req.Action == phase.ActionAdvanceRound {
		s.metrics.RecordRoundAdvanced(string(res.Phase.Phase))
	}
	s.log.Infow("Executed tournament action", "tournament_id", tournamentID, "action", req.Action, "status", res.Tournament.Status, "phase", res.Phase.Phase)
	s.notify.publishSnapshot(ctx, tournamentID)
	return res, nil
}

func (s *progressionService) apply(ctx context.Context, st repositories.Store, state *tournamentState, req ActionRequest) error {
	t := state.t
	switch req.Action {
	case phase.ActionStartRegistration:
		if phase.RosterPreselected(t) {
			t.Status = models.TournamentActive
		} else {
			t.Status = models.TournamentOpen
		}
		state.dirty = true

	case phase.ActionCloseRegistration:
		t.Status = models.TournamentActive
		state.dirty = true

	case phase.ActionStartCheckIn:
		// check-in is recorded per team; the action only confirms the window

	case phase.ActionStartRoundRobin:
		if t.Status == models.TournamentScheduled {
			t.Status = models.TournamentActive
			state.dirty = true
		}
		_, err := s.generate(ctx, st, state, t.RRRounds()[0])
		return err

	case phase.ActionAdvanceRound:
		return s.advance(ctx, st, state)

	case phase.ActionStartBracket:
		teams, err := s.teams(ctx, st, state)
		if err != nil {
			return err
		}
		field := bracketField(t, teams, state.matches)
		opening := openingRound(t, len(field))
		_, err = s.generate(ctx, st, state, opening)
		return err

	case phase.ActionCompleteTournament:
		champion, err := s.currentChampion(ctx, st, state)
		if err != nil {
			return err
		}
		return s.complete(ctx, st, state, champion)

	case phase.ActionResetTournament:
		return s.reset(ctx, st, state)

	case phase.ActionSetRound:
		round, err := models.ParseRound(req.Round)
		if err != nil {
			return &ValidationError{Err: err}
		}
		t.ManagementState.CurrentRound = round
		state.dirty = true
	}
	return nil
}

// advance is a no-op unless the current round is finished.
func (s *progressionService) advance(ctx context.Context, st repositories.Store, state *tournamentState) error {
	p := state.phase()
	if !p.CanAdvance {
		return nil
	}
	switch p.Phase {
	case phase.RoundRobin:
		return s.advanceRoundRobin(ctx, st, state, p.CurrentRound)
	case phase.Bracket:
		return s.advanceBracket(ctx, st, state)
	}
	return nil
}

func (s *progressionService) advanceRoundRobin(ctx context.Context, st repositories.Store, state *tournamentState, current models.RoundKind) error {
	t := state.t
	idx := state.index()
	rounds := t.RRRounds()
	for i, r := range rounds {
		if r == current && i+1 < len(rounds) && !idx.Present(rounds[i+1]) {
			_, err := s.generate(ctx, st, state, rounds[i+1])
			return err
		}
	}

	teams, err := s.teams(ctx, st, state)
	if err != nil {
		return err
	}
	if !t.BracketType.HasPlayoff() {
		var champion *models.Team
		if entries := standings.RoundRobin(teams, state.matches); len(entries) > 0 {
			champion = &entries[0].Team
		}
		return s.complete(ctx, st, state, champion)
	}

	field := bracketField(t, teams, state.matches)
	s.log.Infow("Round robin finished", "tournament_id", t.ID, "qualified", len(field), "teams", len(teams))
	_, err = s.generate(ctx, st, state, brackets.OpeningRound(len(field), false))
	return err
}

func (s *progressionService) advanceBracket(ctx context.Context, st repositories.Store, state *tournamentState) error {
	t := state.t
	double := t.BracketType == models.BracketDoubleElimination
	for range models.BracketRounds {
		opening, ok := phase.OpeningRound(state.matches, t.Byes)
		if !ok {
			return nil
		}
		g, err := brackets.NewGraph(opening, double)
		if err != nil {
			return err
		}
		idx := state.index()
		if g.Finished(idx) {
			champion, _ := g.Champion(idx)
			return s.complete(ctx, st, state, &champion)
		}

		next := g.NextRounds(idx)
		if len(next) == 0 {
			return nil
		}
		played := false
		for _, round := range next {
			gen, err := s.generate(ctx, st, state, round)
			if err != nil {
				return err
			}
			if len(gen.Matches) > 0 {
				played = true
			}
		}
		// rounds made only of byes are complete already, keep going
		if played {
			return nil
		}
	}
	return nil
}

// generate replaces one round's matches and byes. The plan is built before
// anything is deleted so a failing layout leaves the round untouched.
func (s *progressionService) generate(ctx context.Context, st repositories.Store, state *tournamentState, round models.RoundKind) (*RoundGeneration, error) {
	t := state.t
	teams, err := s.teams(ctx, st, state)
	if err != nil {
		return nil, err
	}
	params, err := roundParams(state, teams, round)
	if err != nil {
		return nil, err
	}
	plan, err := brackets.GeneratorFor(round).GenerateRound(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out %s for tournament %s: %w", round, t.ID, err)
	}

	deleted, err := st.DeleteMatches(ctx, t.ID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s matches of tournament %s: %w", round, t.ID, err)
	}
	last, err := st.MaxMatchNumber(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read match numbers of tournament %s: %w", t.ID, err)
	}
	for i, m := range plan.Matches {
		m.MatchNumber = last + 1 + i
	}
	if len(plan.Matches) > 0 {
		if err := st.InsertMatches(ctx, plan.Matches); err != nil {
			return nil, fmt.Errorf("failed to insert %s matches of tournament %s: %w", round, t.ID, err)
		}
	}
	t.ReplaceByes(round, plan.Byes)
	state.dirty = true

	kept := make([]*models.Match, 0, len(state.matches)+len(plan.Matches))
	lostResults := false
	for _, m := range state.matches {
		if m.Round == round {
			lostResults = lostResults || m.IsCompleted()
			continue
		}
		kept = append(kept, m)
	}
	state.matches = append(kept, plan.Matches...)

	if lostResults {
		if err := s.rebuildResults(ctx, st, state, teams); err != nil {
			return nil, err
		}
	}

	gen := &RoundGeneration{Round: round, Matches: plan.Matches, Byes: plan.Byes, Deleted: deleted}
	if gen.Matches == nil {
		gen.Matches = []*models.Match{}
	}
	state.generated = append(state.generated, gen)
	return gen, nil
}

func (s *progressionService) teams(ctx context.Context, st repositories.Store, state *tournamentState) ([]models.Team, error) {
	teams, changed, err := resolveTeams(ctx, st, state.t, s.log)
	if err != nil {
		return nil, err
	}
	if changed {
		state.dirty = true
	}
	return teams, nil
}

// roundParams picks where a round's teams come from.
func roundParams(state *tournamentState, teams []models.Team, round models.RoundKind) (brackets.GenerateRoundParams, error) {
	t := state.t
	params := brackets.GenerateRoundParams{TournamentID: t.ID, Round: round, StartMatchNumber: 1}
	idx := state.index()

	switch {
	case round == models.RoundUnknown:
		return params, validationErrorf("round is required")

	case round.IsRoundRobin():
		if !t.BracketType.StartsWithRoundRobin() {
			return params, transitionErrorf("bracket type %s has no round robin", t.BracketType)
		}
		if !containsRound(t.RRRounds(), round) {
			return params, validationErrorf("tournament plays %d round-robin rounds, %s is out of range", len(t.RRRounds()), round)
		}
		params.Teams = teams

	case round == models.RoundThirdPlace:
		if !idx.Completed(models.RoundSemifinal) {
			return params, transitionErrorf("third-place match needs a completed semifinal")
		}
		params.Entrants = idx.Losers(models.RoundSemifinal)

	default:
		opening, ok := phase.OpeningRound(state.matches, t.Byes)
		followUp := round.IsLosersBracket() || round == models.RoundGrandFinal || (ok && round.Number() > opening.Number())
		if !followUp {
			params.Teams = bracketField(t, teams, state.matches)
			return params, nil
		}
		if !ok {
			return params, transitionErrorf("%s needs an opening bracket round", round)
		}
		g, err := brackets.NewGraph(opening, t.BracketType == models.BracketDoubleElimination)
		if err != nil {
			return params, err
		}
		if !g.Ready(round, idx) {
			return params, transitionErrorf("%s cannot be generated before the rounds feeding it are completed", round)
		}
		params.Entrants = g.Entrants(round, idx)
	}
	return params, nil
}

// bracketField is the seeded bracket entry list. After round-robin play the
// qualifiers enter reseeded by standings; otherwise every team enters.
func bracketField(t *models.Tournament, teams []models.Team, matches []*models.Match) []models.Team {
	if !t.BracketType.StartsWithRoundRobin() || !hasRoundRobin(matches) {
		return teams
	}
	entries := standings.RoundRobin(teams, matches)
	return standings.Reseed(standings.Qualifiers(entries, maxPlayoffField))
}

// openingRound sizes the first bracket round. Larger openings are only laid
// out for straight elimination; double elimination stops at the round of 16.
func openingRound(t *models.Tournament, teams int) models.RoundKind {
	allowLarge := false
	switch t.BracketType {
	case models.BracketSingleElimination:
		allowLarge = true
	case models.BracketDoubleElimination:
		allowLarge = teams <= 16
	}
	return brackets.OpeningRound(teams, allowLarge)
}

func hasRoundRobin(matches []*models.Match) bool {
	for _, m := range matches {
		if m.Round.IsRoundRobin() {
			return true
		}
	}
	return false
}

func containsRound(rounds []models.RoundKind, round models.RoundKind) bool {
	for _, r := range rounds {
		if r == round {
			return true
		}
	}
	return false
}

// currentChampion names the champion for a manual completion: the bracket
// winner when the terminal round is decided, the round-robin leader when no
// playoff is played, nobody otherwise.
func (s *progressionService) currentChampion(ctx context.Context, st repositories.Store, state *tournamentState) (*models.Team, error) {
	return championOf(state.t, state.matches, func() ([]models.Team, error) {
		return s.teams(ctx, st, state)
	})
}

// championOf derives the champion from the match set. teams is only called
// for a round-robin only tournament.
func championOf(t *models.Tournament, matches []*models.Match, teams func() ([]models.Team, error)) (*models.Team, error) {
	if opening, ok := phase.OpeningRound(matches, t.Byes); ok {
		g, err := brackets.NewGraph(opening, t.BracketType == models.BracketDoubleElimination)
		if err != nil {
			return nil, err
		}
		idx := brackets.NewRoundIndex(matches, t.Byes)
		if g.Finished(idx) {
			champion, _ := g.Champion(idx)
			return &champion, nil
		}
		return nil, nil
	}
	if t.BracketType.HasPlayoff() || !hasRoundRobin(matches) {
		return nil, nil
	}
	field, err := teams()
	if err != nil {
		return nil, err
	}
	entries := standings.RoundRobin(field, matches)
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0].Team, nil
}

// complete closes the tournament and writes final ranks. Career rollup and
// archiving happen after the lock is released, see finish.
func (s *progressionService) complete(ctx context.Context, st repositories.Store, state *tournamentState, champion *models.Team) error {
	t := state.t
	teams, err := s.teams(ctx, st, state)
	var noTeams *InvalidTransitionError
	if err != nil && !errors.As(err, &noTeams) {
		return err
	}

	t.Status = models.TournamentCompleted
	if champion != nil {
		t.Champion = championRef(*champion)
	}

	results := finalResults(t, teams, state.matches)
	if err := st.ReplaceTournamentResults(ctx, t.ID, results); err != nil {
		return fmt.Errorf("failed to store final results of tournament %s: %w", t.ID, err)
	}
	state.resultCount = len(results)

	rollup := !t.CareerStatsApplied
	t.CareerStatsApplied = true
	state.dirty = true
	state.final = &completion{results: results, rollup: rollup}
	return nil
}

func finalResults(t *models.Tournament, teams []models.Team, matches []*models.Match) []*models.TournamentResult {
	rebuilt := standings.Rebuild(t, teams, matches)
	results := make([]*models.TournamentResult, 0, len(rebuilt))
	for _, r := range rebuilt {
		results = append(results, r)
	}
	standings.AssignFinalRanks(results, t.BracketType, standings.RoundRobin(teams, matches))
	standings.SortByRank(results)
	return results
}

func (s *progressionService) rebuildResults(ctx context.Context, st repositories.Store, state *tournamentState, teams []models.Team) error {
	t := state.t
	var results []*models.TournamentResult
	if t.Status == models.TournamentCompleted {
		results = finalResults(t, teams, state.matches)
	} else {
		for _, r := range standings.Rebuild(t, teams, state.matches) {
			results = append(results, r)
		}
	}
	if err := st.ReplaceTournamentResults(ctx, t.ID, results); err != nil {
		return fmt.Errorf("failed to rebuild results of tournament %s: %w", t.ID, err)
	}
	state.resultCount = len(results)
	return nil
}

func (s *progressionService) reset(ctx context.Context, st repositories.Store, state *tournamentState) error {
	t := state.t
	deleted, err := st.DeleteAllMatches(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("failed to delete matches of tournament %s: %w", t.ID, err)
	}
	if err := st.ReplaceTournamentResults(ctx, t.ID, nil); err != nil {
		return fmt.Errorf("failed to clear results of tournament %s: %w", t.ID, err)
	}
	t.Status = models.TournamentScheduled
	t.Byes = nil
	t.Champion = nil
	t.CheckedIn = nil
	t.ManagementState = models.ManagementState{}
	if t.ArchiveURL != "" {
		t.ArchiveURL = ""
		state.discardArchive = true
	}
	state.matches = nil
	state.resultCount = 0
	state.dirty = true
	s.log.Warnw("Tournament reset", "tournament_id", t.ID, "deleted_matches", deleted)
	return nil
}

// finish runs the best-effort completion side effects. Each failure is
// logged and counted; the completion itself is already committed.
func (s *progressionService) finish(ctx context.Context, state *tournamentState) {
	t := state.t
	if state.final.rollup {
		s.rollupCareers(ctx, t, state.final.results)
	} else {
		s.log.Infow("Career statistics already applied", "tournament_id", t.ID)
	}
	s.archive(ctx, t)
}

func (s *progressionService) rollupCareers(ctx context.Context, t *models.Tournament, results []*models.TournamentResult) {
	deltas := standings.CareerDeltas(results, t.IsDivisionFormat())
	failed := 0
	for playerID, delta := range deltas {
		if err := s.store.UpdatePlayerCareerStats(ctx, playerID, delta); err != nil {
			failed++
			s.metrics.RecordRollupFailure("career")
			s.log.Warnw("Failed to update career statistics", "tournament_id", t.ID, "player_id", playerID, "error", err)
		}
	}
	s.log.Infow("Career statistics rolled up", "tournament_id", t.ID, "players", len(deltas), "failed", failed)
}

func (s *progressionService) discardArchive(ctx context.Context, tournamentID string) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Discard(ctx, tournamentID); err != nil {
		s.metrics.RecordRollupFailure("archive")
		s.log.Warnw("Failed to discard archived snapshot", "tournament_id", tournamentID, "error", err)
		return
	}
	s.log.Infow("Discarded archived snapshot", "tournament_id", tournamentID)
}

func (s *progressionService) archive(ctx context.Context, t *models.Tournament) {
	if s.archiver == nil {
		return
	}
	snap, err := loadSnapshot(ctx, s.store, t.ID)
	if err != nil {
		s.metrics.RecordRollupFailure("archive")
		s.log.Warnw("Failed to load final snapshot", "tournament_id", t.ID, "error", err)
		return
	}
	url, err := s.archiver.ArchiveFinal(ctx, t.ID, snap)
	if err != nil {
		s.metrics.RecordRollupFailure("archive")
		s.log.Warnw("Failed to archive final snapshot", "tournament_id", t.ID, "error", err)
		return
	}
	err = s.store.WithTournamentLock(ctx, t.ID, func(ctx context.Context, st repositories.Store) error {
		latest, err := st.FindTournament(ctx, t.ID)
		if err != nil {
			return err
		}
		latest.ArchiveURL = url
		return st.SaveTournament(ctx, latest)
	})
	if err != nil {
		s.metrics.RecordRollupFailure("archive")
		s.log.Warnw("Failed to record archive location", "tournament_id", t.ID, "error", err)
		return
	}
	t.ArchiveURL = url
	s.log.Infow("Archived final snapshot", "tournament_id", t.ID, "url", url)
}
