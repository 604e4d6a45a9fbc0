package phase

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-of-death/models"
)

func team(seed int) models.Team {
	return models.Team{
		TeamID:       fmt.Sprintf("team-%d", seed),
		TeamName:     fmt.Sprintf("Team %d", seed),
		CombinedSeed: seed,
		Players:      []models.TeamPlayer{{PlayerID: fmt.Sprintf("p%d", seed), PlayerName: fmt.Sprintf("P%d", seed)}},
	}
}

func match(round models.RoundKind, pos int, a, b models.Team, status models.MatchStatus, winner models.Side) *models.Match {
	return &models.Match{
		Round:           round,
		RoundNumber:     round.Number(),
		BracketPosition: pos,
		Team1:           a.Snapshot(),
		Team2:           b.Snapshot(),
		Status:          status,
		Winner:          winner,
	}
}

func TestDerive_StatusDrivenPhases(t *testing.T) {
	p := Derive(&models.Tournament{Status: models.TournamentOpen}, nil, 0)
	assert.Equal(t, Registration, p.Phase)

	p = Derive(&models.Tournament{Status: models.TournamentCompleted}, nil, 0)
	assert.Equal(t, Completed, p.Phase)
	assert.Equal(t, RoundCompleted, p.RoundStatus)
	assert.False(t, p.CanAdvance)

	p = Derive(&models.Tournament{Status: models.TournamentCancelled}, nil, 0)
	assert.Equal(t, Setup, p.Phase)
	assert.False(t, p.CanAdvance)

	p = Derive(&models.Tournament{Status: models.TournamentScheduled}, nil, 0)
	assert.Equal(t, Setup, p.Phase)
}

func TestDerive_HistoricalResultsWithoutMatches(t *testing.T) {
	for _, status := range []models.TournamentStatus{models.TournamentScheduled, models.TournamentActive} {
		p := Derive(&models.Tournament{Status: status}, nil, 6)
		assert.Equal(t, Completed, p.Phase, status)
	}
}

func TestDerive_ActiveShortcut(t *testing.T) {
	p := Derive(&models.Tournament{Status: models.TournamentActive}, nil, 0)
	assert.Equal(t, CheckIn, p.Phase)

	rr := &models.Tournament{Status: models.TournamentActive, Players: []models.PlayerRef{{PlayerID: "a"}}}
	p = Derive(rr, nil, 0)
	assert.Equal(t, RoundRobin, p.Phase)
	assert.Equal(t, models.RoundRobin1, p.CurrentRound)
	assert.Equal(t, RoundNotStarted, p.RoundStatus)

	se := &models.Tournament{
		Status:         models.TournamentActive,
		BracketType:    models.BracketDoubleElimination,
		GeneratedTeams: []models.Team{team(1), team(2)},
	}
	p = Derive(se, nil, 0)
	assert.Equal(t, Bracket, p.Phase)
	assert.Equal(t, models.RoundQuarterfinal, p.CurrentRound)
	assert.False(t, p.CanAdvance)
}

func TestDerive_RoundRobinRounds(t *testing.T) {
	tour := &models.Tournament{Status: models.TournamentActive}
	a, b, c := team(1), team(2), team(3)
	matches := []*models.Match{
		match(models.RoundRobin1, 0, a, b, models.MatchCompleted, models.SideTeam1),
		match(models.RoundRobin1, 0, a, c, models.MatchCompleted, models.SideTeam1),
		match(models.RoundRobin1, 0, b, c, models.MatchInProgress, models.SideNone),
	}
	p := Derive(tour, matches, 0)
	assert.Equal(t, RoundRobin, p.Phase)
	assert.Equal(t, models.RoundRobin1, p.CurrentRound)
	assert.Equal(t, RoundInProgress, p.RoundStatus)
	assert.Equal(t, 3, p.RoundMatches)
	assert.Equal(t, 2, p.RoundCompleted)
	assert.False(t, p.CanAdvance)

	matches[2].Status, matches[2].Winner = models.MatchCompleted, models.SideTeam2
	matches = append(matches, match(models.RoundRobin2, 0, a, b, models.MatchScheduled, models.SideNone))
	p = Derive(tour, matches, 0)
	assert.Equal(t, models.RoundRobin2, p.CurrentRound)
	assert.Equal(t, RoundNotStarted, p.RoundStatus)
	assert.Equal(t, 4, p.TotalMatches)
	assert.Equal(t, 3, p.CompletedMatches)

	matches[3].Status, matches[3].Winner = models.MatchCompleted, models.SideTeam1
	p = Derive(tour, matches, 0)
	assert.Equal(t, models.RoundRobin2, p.CurrentRound, "deepest round once all are done")
	assert.True(t, p.CanAdvance)
}

func TestDerive_BracketTakesOverAndByesOnlyRoundIsComplete(t *testing.T) {
	a, b, c, d := team(1), team(2), team(3), team(4)
	tour := &models.Tournament{
		Status:      models.TournamentActive,
		BracketType: models.BracketDoubleElimination,
		Byes:        []models.Bye{{Round: models.RoundLosers1, Team: d, Position: 0}},
	}
	matches := []*models.Match{
		match(models.RoundRobin1, 0, a, b, models.MatchCompleted, models.SideTeam1),
		match(models.RoundQuarterfinal, 0, a, d, models.MatchCompleted, models.SideTeam1),
		match(models.RoundQuarterfinal, 1, b, c, models.MatchCompleted, models.SideTeam1),
		match(models.RoundSemifinal, 0, a, b, models.MatchScheduled, models.SideNone),
	}
	p := Derive(tour, matches, 0)
	assert.Equal(t, Bracket, p.Phase)
	assert.Equal(t, models.RoundSemifinal, p.CurrentRound)

	matches[3].Status, matches[3].Winner = models.MatchCompleted, models.SideTeam1
	p = Derive(tour, matches, 0)
	assert.Equal(t, models.RoundLosers1, p.CurrentRound)
	assert.Equal(t, 0, p.RoundMatches)
	assert.Equal(t, RoundCompleted, p.RoundStatus)
	assert.True(t, p.CanAdvance)
}

func TestAuthorize(t *testing.T) {
	scheduled := &models.Tournament{Status: models.TournamentScheduled}
	assert.NoError(t, Authorize(scheduled, Derive(scheduled, nil, 0), ActionStartRegistration))
	assert.ErrorIs(t, Authorize(scheduled, Derive(scheduled, nil, 0), ActionCloseRegistration), ErrInvalidTransition)
	assert.ErrorIs(t, Authorize(scheduled, Derive(scheduled, nil, 0), ActionAdvanceRound), ErrInvalidTransition)
	assert.ErrorIs(t, Authorize(scheduled, TournamentPhase{}, Action("explode")), ErrInvalidTransition)

	active := &models.Tournament{Status: models.TournamentActive, BracketType: models.BracketRoundRobin}
	p := Derive(active, nil, 0)
	assert.NoError(t, Authorize(active, p, ActionStartRoundRobin))
	err := Authorize(active, p, ActionStartBracket)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ActionStartBracket, te.Action)

	live := &models.Tournament{Status: models.TournamentActive}
	matches := []*models.Match{match(models.RoundRobin1, 0, team(1), team(2), models.MatchInProgress, models.SideNone)}
	p = Derive(live, matches, 0)
	assert.ErrorIs(t, Authorize(live, p, ActionAdvanceRound), ErrInvalidTransition)
	assert.ErrorIs(t, Authorize(live, p, ActionStartBracket), ErrInvalidTransition)
	assert.ErrorIs(t, Authorize(live, p, ActionStartRoundRobin), ErrInvalidTransition)

	done := &models.Tournament{Status: models.TournamentCompleted}
	assert.ErrorIs(t, Authorize(done, Derive(done, nil, 0), ActionAdvanceRound), ErrInvalidTransition)
	assert.NoError(t, Authorize(done, Derive(done, nil, 0), ActionResetTournament))

	cancelled := &models.Tournament{Status: models.TournamentCancelled}
	assert.ErrorIs(t, Authorize(cancelled, Derive(cancelled, nil, 0), ActionStartRegistration), ErrInvalidTransition)
}

func TestAuthorize_StartBracketWithoutMatches(t *testing.T) {
	tour := &models.Tournament{
		Status:         models.TournamentActive,
		BracketType:    models.BracketSingleElimination,
		GeneratedTeams: []models.Team{team(1), team(2)},
	}
	p := Derive(tour, nil, 0)
	require.Equal(t, Bracket, p.Phase)
	assert.NoError(t, Authorize(tour, p, ActionStartBracket))

	matches := []*models.Match{match(models.RoundFinal, 0, team(1), team(2), models.MatchScheduled, models.SideNone)}
	assert.ErrorIs(t, Authorize(tour, Derive(tour, matches, 0), ActionStartBracket), ErrInvalidTransition)
}

func TestRosterPreselected(t *testing.T) {
	tour := &models.Tournament{MaxPlayers: 4, GeneratedTeams: []models.Team{team(1), team(2)}}
	assert.False(t, RosterPreselected(tour))
	tour.Players = []models.PlayerRef{{PlayerID: "x"}, {PlayerID: "y"}}
	assert.True(t, RosterPreselected(tour))
	assert.False(t, RosterPreselected(&models.Tournament{}))
}

func TestTeamStatuses_SingleElimination(t *testing.T) {
	a, b, c, d, e := team(1), team(2), team(3), team(4), team(5)
	tour := &models.Tournament{BracketType: models.BracketSingleElimination, CheckedIn: []string{"team-1"}}
	matches := []*models.Match{
		match(models.RoundRobin1, 0, d, e, models.MatchCompleted, models.SideTeam1),
		match(models.RoundSemifinal, 0, a, d, models.MatchCompleted, models.SideTeam1),
		match(models.RoundSemifinal, 1, b, c, models.MatchInProgress, models.SideNone),
	}
	got := map[string]TeamStatus{}
	for _, st := range TeamStatuses(tour, []models.Team{a, b, c, d, e}, matches) {
		got[st.TeamID] = st
	}
	assert.Equal(t, TeamAdvanced, got["team-1"].State)
	assert.True(t, got["team-1"].CheckedIn)
	assert.Equal(t, TeamActive, got["team-2"].State)
	assert.Equal(t, TeamEliminated, got["team-4"].State)
	assert.Equal(t, 2, got["team-4"].Played)
	assert.Equal(t, TeamEliminated, got["team-5"].State, "did not reach the bracket")
}

func TestTeamStatuses_DoubleEliminationLosersPlayOn(t *testing.T) {
	a, b := team(1), team(2)
	tour := &models.Tournament{BracketType: models.BracketDoubleElimination}
	matches := []*models.Match{
		match(models.RoundSemifinal, 0, a, b, models.MatchCompleted, models.SideTeam1),
	}
	got := TeamStatuses(tour, []models.Team{a, b}, matches)
	require.Len(t, got, 2)
	assert.Equal(t, TeamAdvanced, got[0].State)
	assert.Equal(t, TeamActive, got[1].State)

	tour.Champion = &models.PlayerRef{PlayerID: "p2"}
	got = TeamStatuses(&models.Tournament{Champion: tour.Champion}, []models.Team{a, b}, nil)
	assert.Equal(t, TeamChampion, got[1].State)
}
