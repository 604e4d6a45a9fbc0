package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-of-death/models"
)

func completeAll(matches []*models.Match, side models.Side) {
	for _, m := range matches {
		m.Status = models.MatchCompleted
		m.Winner = side
	}
}

func TestOpeningRound(t *testing.T) {
	assert.Equal(t, models.RoundFinal, OpeningRound(2, false))
	assert.Equal(t, models.RoundSemifinal, OpeningRound(3, false))
	assert.Equal(t, models.RoundQuarterfinal, OpeningRound(8, false))
	assert.Equal(t, models.RoundQuarterfinal, OpeningRound(12, false))
	assert.Equal(t, models.RoundOf16, OpeningRound(12, true))
	assert.Equal(t, models.RoundOf32, OpeningRound(20, true))
	assert.Equal(t, models.RoundOf64, OpeningRound(40, true))
}

func TestGraph_SingleElimination(t *testing.T) {
	g, err := NewGraph(models.RoundQuarterfinal, false)
	require.NoError(t, err)
	assert.Equal(t, models.RoundFinal, g.Terminal())
	assert.Equal(t, []models.RoundKind{models.RoundQuarterfinal, models.RoundSemifinal, models.RoundFinal}, g.Rounds())

	_, err = NewGraph(models.RoundGrandFinal, false)
	assert.ErrorIs(t, err, ErrUnsupportedRound)
	_, err = NewGraph(models.RoundOf32, true)
	assert.ErrorIs(t, err, ErrUnsupportedRound)
}

// playRound generates round from the graph, lets team1 win everything and
// returns the combined match and bye lists.
func playRound(t *testing.T, g *Graph, round models.RoundKind, matches []*models.Match, byes []models.Bye) ([]*models.Match, []models.Bye) {
	t.Helper()
	idx := NewRoundIndex(matches, byes)
	plan, err := GeneratorFor(round).GenerateRound(context.Background(), GenerateRoundParams{
		Round:            round,
		Entrants:         g.Entrants(round, idx),
		StartMatchNumber: len(matches) + 1,
	})
	require.NoError(t, err, round.String())
	completeAll(plan.Matches, models.SideTeam1)
	return append(matches, plan.Matches...), append(byes, plan.Byes...)
}

func TestGraph_DoubleEliminationEightTeams(t *testing.T) {
	g, err := NewGraph(models.RoundQuarterfinal, true)
	require.NoError(t, err)
	assert.Equal(t, models.RoundGrandFinal, g.Terminal())

	qf, err := NewSingleEliminationGenerator().GenerateRound(context.Background(), GenerateRoundParams{
		Round: models.RoundQuarterfinal, Teams: seededTeams(t, 8), StartMatchNumber: 1,
	})
	require.NoError(t, err)
	matches, byes := qf.Matches, qf.Byes

	idx := NewRoundIndex(matches, byes)
	assert.Empty(t, g.NextRounds(idx), "nothing is ready while the quarterfinal is open")

	completeAll(qf.Matches, models.SideTeam1)
	idx = NewRoundIndex(matches, byes)
	assert.Equal(t, []models.RoundKind{models.RoundSemifinal, models.RoundLosers1}, g.NextRounds(idx))

	losers := g.Entrants(models.RoundLosers1, idx)
	require.Len(t, losers, 4)
	assert.Equal(t, 8, losers[0].Team.CombinedSeed, "losers arrive in bracket order")

	matches, byes = playRound(t, g, models.RoundSemifinal, matches, byes)
	idx = NewRoundIndex(matches, byes)
	assert.Equal(t, []models.RoundKind{models.RoundFinal, models.RoundLosers1}, g.NextRounds(idx))

	matches, byes = playRound(t, g, models.RoundLosers1, matches, byes)
	idx = NewRoundIndex(matches, byes)
	assert.Equal(t, []models.RoundKind{models.RoundFinal, models.RoundLosersSemifinal}, g.NextRounds(idx))

	lsf := g.Entrants(models.RoundLosersSemifinal, idx)
	require.Len(t, lsf, 4)
	assert.Equal(t, []int{4, 2, 8, 6}, []int{
		lsf[0].Team.CombinedSeed, lsf[1].Team.CombinedSeed, lsf[2].Team.CombinedSeed, lsf[3].Team.CombinedSeed,
	}, "semifinal losers first, then losers round one winners")

	matches, byes = playRound(t, g, models.RoundFinal, matches, byes)
	matches, byes = playRound(t, g, models.RoundLosersSemifinal, matches, byes)
	idx = NewRoundIndex(matches, byes)
	assert.Equal(t, []models.RoundKind{models.RoundLosersFinal}, g.NextRounds(idx))
	assert.False(t, g.Finished(idx))

	matches, byes = playRound(t, g, models.RoundLosersFinal, matches, byes)
	idx = NewRoundIndex(matches, byes)
	assert.Equal(t, []models.RoundKind{models.RoundGrandFinal}, g.NextRounds(idx))

	gfEntrants := g.Entrants(models.RoundGrandFinal, idx)
	require.Len(t, gfEntrants, 2)
	assert.Equal(t, 1, gfEntrants[0].Team.CombinedSeed, "winners bracket champion is team1")

	matches, byes = playRound(t, g, models.RoundGrandFinal, matches, byes)
	idx = NewRoundIndex(matches, byes)
	assert.True(t, g.Finished(idx))
	assert.Empty(t, g.NextRounds(idx))
	champ, ok := g.Champion(idx)
	require.True(t, ok)
	assert.Equal(t, 1, champ.CombinedSeed)
}

func TestGraph_ByesOnlyRoundCountsAsComplete(t *testing.T) {
	g, err := NewGraph(models.RoundQuarterfinal, true)
	require.NoError(t, err)

	qf, err := NewSingleEliminationGenerator().GenerateRound(context.Background(), GenerateRoundParams{
		Round: models.RoundQuarterfinal, Teams: seededTeams(t, 5), StartMatchNumber: 1,
	})
	require.NoError(t, err)
	require.Len(t, qf.Matches, 1)
	completeAll(qf.Matches, models.SideTeam1)

	matches, byes := playRound(t, g, models.RoundLosers1, qf.Matches, qf.Byes)
	idx := NewRoundIndex(matches, byes)
	assert.True(t, idx.Present(models.RoundLosers1))
	assert.True(t, idx.Completed(models.RoundLosers1))
	assert.Empty(t, idx.Matches(models.RoundLosers1))
}
