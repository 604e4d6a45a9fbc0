package standings

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-of-death/models"
)

func teamsOf(n int) []models.Team {
	faker := gofakeit.New(42)
	teams := make([]models.Team, n)
	for i := range teams {
		seed := i + 1
		teams[i] = models.Team{
			TeamID:       fmt.Sprintf("team-%d", seed),
			TeamName:     faker.Name(),
			CombinedSeed: seed,
			Players: []models.TeamPlayer{
				{PlayerID: fmt.Sprintf("p%da", seed), PlayerName: faker.FirstName(), Seed: seed},
				{PlayerID: fmt.Sprintf("p%db", seed), PlayerName: faker.FirstName(), Seed: seed},
			},
		}
	}
	return teams
}

func played(round models.RoundKind, t1, t2 models.Team, s1, s2 int) *models.Match {
	m := &models.Match{
		Round:       round,
		RoundNumber: round.Number(),
		Team1:       t1.Snapshot(),
		Team2:       t2.Snapshot(),
		Status:      models.MatchCompleted,
	}
	m.Team1.Score, m.Team2.Score = &s1, &s2
	if s1 > s2 {
		m.Winner = models.SideTeam1
	} else {
		m.Winner = models.SideTeam2
	}
	return m
}

func assertInvariant(t *testing.T, r *models.TournamentResult) {
	t.Helper()
	ts := r.TotalStats
	assert.Equal(t, ts.TotalPlayed, ts.TotalWon+ts.TotalLost, r.TeamKey)
	assert.Equal(t, ts.TotalPlayed, r.RoundRobinScores.RRPlayed+r.BracketScores.BracketPlayed, r.TeamKey)
}

func TestApplyMatch_CountsBySection(t *testing.T) {
	teams := teamsOf(2)
	tour := &models.Tournament{ID: "t1", Format: "M", Location: "Home"}
	r := NewResult(tour, teams[0].Snapshot())

	ApplyMatch(r, played(models.RoundRobin2, teams[0], teams[1], 11, 4), models.SideTeam1)
	ApplyMatch(r, played(models.RoundRobin3, teams[0], teams[1], 5, 11), models.SideTeam1)
	ApplyMatch(r, played(models.RoundQuarterfinal, teams[0], teams[1], 11, 9), models.SideTeam1)
	ApplyMatch(r, played(models.RoundSemifinal, teams[0], teams[1], 3, 11), models.SideTeam1)

	assert.Equal(t, 1, r.RoundRobinScores.Round2)
	assert.Equal(t, 0, r.RoundRobinScores.Round3)
	assert.Equal(t, 2, r.RoundRobinScores.RRPlayed)
	assert.InDelta(t, 0.5, r.RoundRobinScores.RRWinPercentage, 1e-9)
	assert.Equal(t, 1, r.BracketScores.QFWon)
	assert.Equal(t, 1, r.BracketScores.SFLost)
	assert.Equal(t, models.RoundSemifinal, r.BracketScores.EliminatedIn)
	assert.Equal(t, 4, r.TotalStats.TotalPlayed)
	assert.True(t, r.TotalStats.Home)
	assert.Equal(t, "M", r.Division)
	assertInvariant(t, r)
}

func TestApplyMatch_IgnoresOpenMatches(t *testing.T) {
	teams := teamsOf(2)
	r := NewResult(&models.Tournament{}, teams[0].Snapshot())
	m := played(models.RoundRobin1, teams[0], teams[1], 6, 3)
	m.Status = models.MatchInProgress
	ApplyMatch(r, m, models.SideTeam1)
	assert.Zero(t, r.TotalStats.TotalPlayed)
}

func TestRecompute_HealsDriftedTotals(t *testing.T) {
	r := &models.TournamentResult{}
	r.RoundRobinScores.RRWon, r.RoundRobinScores.RRLost = 2, 1
	r.BracketScores.BracketWon = 1
	r.TotalStats.TotalPlayed = 99
	r.TotalStats.TotalWon = 0

	Recompute(r)
	assert.Equal(t, 4, r.TotalStats.TotalPlayed)
	assert.Equal(t, 3, r.TotalStats.TotalWon)
	assert.InDelta(t, 0.75, r.TotalStats.WinPercentage, 1e-9)
	assertInvariant(t, r)
}

func TestRebuild_InvariantHoldsForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	teams := teamsOf(6)
	rounds := []models.RoundKind{
		models.RoundRobin1, models.RoundRobin2, models.RoundQuarterfinal,
		models.RoundSemifinal, models.RoundLosers1, models.RoundGrandFinal,
	}
	for iter := 0; iter < 50; iter++ {
		var matches []*models.Match
		n := rng.Intn(30)
		for k := 0; k < n; k++ {
			i, j := rng.Intn(len(teams)), rng.Intn(len(teams))
			if i == j {
				continue
			}
			s1, s2 := rng.Intn(12), rng.Intn(12)
			if s1 == s2 {
				s1++
			}
			matches = append(matches, played(rounds[rng.Intn(len(rounds))], teams[i], teams[j], s1, s2))
		}
		results := Rebuild(&models.Tournament{ID: "t"}, teams, matches)
		require.Len(t, results, len(teams))

		var won, lost int
		for _, r := range results {
			assertInvariant(t, r)
			won += r.TotalStats.TotalWon
			lost += r.TotalStats.TotalLost
		}
		assert.Equal(t, len(matches), won)
		assert.Equal(t, len(matches), lost)
	}
}

func TestRoundRobin_FourTeamScenario(t *testing.T) {
	teams := teamsOf(4)
	var matches []*models.Match
	// lower seed always wins: a strict 3-2-1-0 ranking
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			matches = append(matches, played(models.RoundRobin1, teams[i], teams[j], 11, 5+j))
		}
	}
	require.Len(t, matches, 6)

	entries := RoundRobin(teams, matches)
	var wins int
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
		assert.Equal(t, i+1, e.Team.CombinedSeed)
		assert.Equal(t, 3-i, e.Won)
		wins += e.Won
	}
	assert.Equal(t, 6, wins)

	results := Rebuild(&models.Tournament{BracketType: models.BracketRoundRobin}, teams, matches)
	list := make([]*models.TournamentResult, 0, len(results))
	for _, r := range results {
		list = append(list, r)
	}
	AssignFinalRanks(list, models.BracketRoundRobin, entries)
	SortByRank(list)
	for i, r := range list {
		assert.Equal(t, i+1, r.TotalStats.FinalRank)
		assert.Equal(t, fmt.Sprintf("team-%d", i+1), r.TeamKey)
	}
}

func TestRoundRobin_TiesBrokenBySeedStably(t *testing.T) {
	teams := teamsOf(4)
	// team-4 and team-2 both go 1-1, team-4 is listed first in the input
	input := []models.Team{teams[3], teams[1], teams[0], teams[2]}
	matches := []*models.Match{
		played(models.RoundRobin1, teams[3], teams[1], 11, 2),
		played(models.RoundRobin1, teams[1], teams[2], 11, 2),
		played(models.RoundRobin1, teams[0], teams[3], 11, 2),
	}
	entries := RoundRobin(input, matches)
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.Team.TeamID
	}
	assert.Equal(t, []string{"team-1", "team-2", "team-4", "team-3"}, got)
}

func TestQualifiers(t *testing.T) {
	teams := teamsOf(5)
	entries := []Entry{
		{Team: teams[0], Won: 4, Played: 4},
		{Team: teams[1], Won: 2, Played: 4},
		{Team: teams[2], Won: 2, Played: 4},
		{Team: teams[3], Won: 1, Played: 4},
		{Team: teams[4], Won: 1, Played: 4},
	}
	q := Qualifiers(entries, 0)
	assert.Len(t, q, 3)

	q = Qualifiers(entries, 2)
	assert.Equal(t, []string{"team-1", "team-2"}, []string{q[0].TeamID, q[1].TeamID})

	// fewer than two qualifiers falls back to the top two
	q = Qualifiers([]Entry{
		{Team: teams[0], Won: 3, Played: 7},
		{Team: teams[1], Won: 0, Played: 7},
		{Team: teams[2], Won: 0, Played: 7},
	}, 0)
	require.Len(t, q, 2)
	assert.Equal(t, "team-2", q[1].TeamID)

	reseeded := Reseed([]models.Team{teams[4], teams[0]})
	assert.Equal(t, 1, reseeded[0].CombinedSeed)
	assert.Equal(t, "team-5", reseeded[0].TeamID)
	assert.Equal(t, 5, teams[4].CombinedSeed, "input is not mutated")
}

func TestFinalRank_SingleElimination(t *testing.T) {
	mk := func(f func(b *models.BracketScores), rrPct float64) *models.TournamentResult {
		r := &models.TournamentResult{}
		f(&r.BracketScores)
		r.RoundRobinScores.RRWinPercentage = rrPct
		return r
	}
	se := models.BracketSingleElimination
	assert.Equal(t, 1, FinalRank(mk(func(b *models.BracketScores) { b.FinalsWon = 1 }, 0), 10, se))
	assert.Equal(t, 2, FinalRank(mk(func(b *models.BracketScores) { b.FinalsLost = 1 }, 0), 10, se))
	assert.Equal(t, 3, FinalRank(mk(func(b *models.BracketScores) { b.SFLost = 1 }, 0), 10, se))
	assert.Equal(t, 4, FinalRank(mk(func(b *models.BracketScores) {
		b.SFLost = 1
		b.EliminatedIn = models.RoundThirdPlace
	}, 0), 10, se))
	assert.Equal(t, 5, FinalRank(mk(func(b *models.BracketScores) { b.QFLost = 1 }, 0), 10, se))
	assert.Equal(t, 4, FinalRank(mk(func(b *models.BracketScores) { b.QFLost = 1 }, 0), 4, se))
	assert.Equal(t, 9, FinalRank(mk(func(b *models.BracketScores) { b.R16Lost = 1 }, 0), 16, se))

	// no bracket play: percentile, floored at mid-field
	assert.Equal(t, 5, FinalRank(mk(func(*models.BracketScores) {}, 0.9), 10, se))
	assert.Equal(t, 8, FinalRank(mk(func(*models.BracketScores) {}, 0.25), 10, se))
}

func TestFinalRank_DoubleElimination(t *testing.T) {
	de := models.BracketDoubleElimination
	r := &models.TournamentResult{}
	r.BracketScores.GrandFinalWon = 1
	assert.Equal(t, 1, FinalRank(r, 8, de))

	r = &models.TournamentResult{}
	r.BracketScores.GrandFinalLost = 1
	r.BracketScores.FinalsWon = 1
	assert.Equal(t, 2, FinalRank(r, 8, de))

	r = &models.TournamentResult{}
	r.BracketScores.FinalsLost = 1
	assert.Equal(t, 3, FinalRank(r, 8, de))

	r = &models.TournamentResult{}
	r.BracketScores.SFLost = 1
	r.BracketScores.LosersLost = 1
	r.BracketScores.EliminatedIn = models.RoundLosersFinal
	r.BracketScores.BracketPlayed = 2
	assert.Equal(t, 4, FinalRank(r, 8, de))

	r = &models.TournamentResult{}
	r.BracketScores.EliminatedIn = models.RoundLosers1
	r.BracketScores.BracketPlayed = 2
	assert.Equal(t, 5, FinalRank(r, 8, de))
}

func TestLive_OrdersByDifferential(t *testing.T) {
	teams := teamsOf(3)
	// a three-way 1-1 tie split on points
	matches := []*models.Match{
		played(models.RoundRobin1, teams[0], teams[1], 11, 9),
		played(models.RoundRobin1, teams[1], teams[2], 11, 9),
		played(models.RoundRobin1, teams[2], teams[0], 11, 0),
	}
	entries := Live(teams, matches)
	got := []string{entries[0].Team.TeamID, entries[1].Team.TeamID, entries[2].Team.TeamID}
	assert.Equal(t, []string{"team-3", "team-2", "team-1"}, got)
	assert.Equal(t, 9, entries[0].PointDiff)
	assert.Equal(t, 20, entries[0].PointsFor)
	for _, e := range entries {
		assert.Equal(t, e.PointsFor-e.PointsAgainst, e.PointDiff)
		assert.Equal(t, 2, e.Played)
	}
}

func TestCareerDeltas(t *testing.T) {
	r := &models.TournamentResult{Players: []string{"a", "b"}}
	r.TotalStats.TotalPlayed, r.TotalStats.TotalWon, r.TotalStats.FinalRank = 6, 4, 2
	deltas := CareerDeltas([]*models.TournamentResult{r}, true)
	require.Len(t, deltas, 2)
	assert.Equal(t, models.CareerDelta{GamesPlayed: 6, GamesWon: 4, Finish: 2, DivisionFormat: true}, deltas["b"])
}
