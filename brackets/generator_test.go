package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/bracket-of-death/models"
)

// seededTeams builds n doubles teams with seeds 1..n in shuffled input order.
func seededTeams(t *testing.T, n int) []models.Team {
	t.Helper()
	faker := gofakeit.New(uint64(n))
	teams := make([]models.Team, n)
	for i := 0; i < n; i++ {
		seed := i + 1
		teams[i] = models.Team{
			TeamID:   fmt.Sprintf("team-%d", seed),
			TeamName: faker.Name(),
			Players: []models.TeamPlayer{
				{PlayerID: fmt.Sprintf("p%da", seed), PlayerName: faker.FirstName(), Seed: seed},
				{PlayerID: fmt.Sprintf("p%db", seed), PlayerName: faker.FirstName(), Seed: seed},
			},
			CombinedSeed: seed,
		}
	}
	faker.ShuffleAnySlice(teams)
	return teams
}

func seedPairs(matches []*models.Match) [][2]int {
	out := make([][2]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, [2]int{m.Team1.Seed, m.Team2.Seed})
	}
	return out
}

func TestSeedOrder(t *testing.T) {
	assert.Equal(t, []int{1, 2}, SeedOrder(2))
	assert.Equal(t, []int{1, 4, 3, 2}, SeedOrder(4))
	assert.Equal(t, []int{1, 8, 5, 4, 3, 6, 7, 2}, SeedOrder(8))

	order := SeedOrder(16)
	require.Len(t, order, 16)
	seen := map[int]bool{}
	for i := 0; i < 16; i += 2 {
		assert.Equal(t, 17, order[i]+order[i+1], "slot pair %d", i/2)
		seen[order[i]], seen[order[i+1]] = true, true
	}
	assert.Len(t, seen, 16)
}

func TestRoundRobin_AllPairsOnce(t *testing.T) {
	gen := NewRoundRobinGenerator()
	for n := 2; n <= 9; n++ {
		teams := seededTeams(t, n)
		plan, err := gen.GenerateRound(context.Background(), GenerateRoundParams{
			TournamentID:     "t1",
			Round:            models.RoundRobin1,
			Teams:            teams,
			StartMatchNumber: 5,
		})
		require.NoError(t, err)
		require.Len(t, plan.Matches, n*(n-1)/2)

		pairs := map[string]bool{}
		for i, m := range plan.Matches {
			assert.Equal(t, 5+i, m.MatchNumber)
			assert.Equal(t, models.RoundRobin1.Number(), m.RoundNumber)
			assert.Equal(t, models.MatchScheduled, m.Status)
			key := models.PlayersKey([]string{m.Team1.TeamID, m.Team2.TeamID})
			assert.False(t, pairs[key], "duplicate pair %s", key)
			pairs[key] = true
		}
	}
}

func TestRoundRobin_IterationOrder(t *testing.T) {
	teams := SortBySeed(seededTeams(t, 4))
	plan, err := NewRoundRobinGenerator().GenerateRound(context.Background(), GenerateRoundParams{
		Round: models.RoundRobin2, Teams: teams, StartMatchNumber: 1,
	})
	require.NoError(t, err)
	want := [][2]int{{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}}
	if diff := cmp.Diff(want, seedPairs(plan.Matches)); diff != "" {
		t.Errorf("pairing mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundRobin_Errors(t *testing.T) {
	gen := NewRoundRobinGenerator()
	_, err := gen.GenerateRound(context.Background(), GenerateRoundParams{Round: models.RoundRobin1, Teams: seededTeams(t, 1)})
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
	_, err = gen.GenerateRound(context.Background(), GenerateRoundParams{Round: models.RoundFinal, Teams: seededTeams(t, 4)})
	assert.ErrorIs(t, err, ErrUnsupportedRound)
}

func TestSingleElimination_QuarterfinalCanonicalPairs(t *testing.T) {
	plan, err := NewSingleEliminationGenerator().GenerateRound(context.Background(), GenerateRoundParams{
		TournamentID:     "t1",
		Round:            models.RoundQuarterfinal,
		Teams:            seededTeams(t, 8),
		StartMatchNumber: 13,
	})
	require.NoError(t, err)
	assert.Empty(t, plan.Byes)

	want := [][2]int{{1, 8}, {4, 5}, {3, 6}, {2, 7}}
	if diff := cmp.Diff(want, seedPairs(plan.Matches)); diff != "" {
		t.Errorf("quarterfinal pairs mismatch (-want +got):\n%s", diff)
	}
	for i, m := range plan.Matches {
		assert.Equal(t, i, m.BracketPosition)
		assert.Equal(t, 13+i, m.MatchNumber)
	}
}

func TestSingleElimination_FixedSizeTruncatesToTopSeeds(t *testing.T) {
	plan, err := NewSingleEliminationGenerator().GenerateRound(context.Background(), GenerateRoundParams{
		Round: models.RoundQuarterfinal,
		Teams: seededTeams(t, 12),
	})
	require.NoError(t, err)
	require.Len(t, plan.Matches, 4)
	for _, m := range plan.Matches {
		assert.LessOrEqual(t, m.Team1.Seed, 8)
		assert.LessOrEqual(t, m.Team2.Seed, 8)
	}

	plan, err = NewSingleEliminationGenerator().GenerateRound(context.Background(), GenerateRoundParams{
		Round: models.RoundSemifinal,
		Teams: seededTeams(t, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 4}, {2, 3}}, seedPairs(plan.Matches))
}

func TestSingleElimination_ByesGoToTopSeeds(t *testing.T) {
	plan, err := NewSingleEliminationGenerator().GenerateRound(context.Background(), GenerateRoundParams{
		Round: models.RoundQuarterfinal,
		Teams: seededTeams(t, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{4, 5}, {3, 6}}, seedPairs(plan.Matches))
	require.Len(t, plan.Byes, 2)
	assert.Equal(t, 1, plan.Byes[0].Team.CombinedSeed)
	assert.Equal(t, 0, plan.Byes[0].Position)
	assert.Equal(t, 2, plan.Byes[1].Team.CombinedSeed)
	assert.Equal(t, 3, plan.Byes[1].Position)
	assert.Equal(t, []int{1, 2}, []int{plan.Matches[0].BracketPosition, plan.Matches[1].BracketPosition})
}

func TestSingleElimination_AdvanceFromPositions(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	qf, err := gen.GenerateRound(context.Background(), GenerateRoundParams{Round: models.RoundQuarterfinal, Teams: seededTeams(t, 6)})
	require.NoError(t, err)

	// the higher seed wins every match
	for _, m := range qf.Matches {
		m.Status = models.MatchCompleted
		m.Winner = models.SideTeam1
	}
	idx := NewRoundIndex(qf.Matches, qf.Byes)
	sf, err := gen.GenerateRound(context.Background(), GenerateRoundParams{
		Round:    models.RoundSemifinal,
		Entrants: idx.Winners(models.RoundQuarterfinal),
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 4}, {3, 2}}, seedPairs(sf.Matches))
	assert.Empty(t, sf.Byes)
}

func TestSequential_OddTeamGetsBye(t *testing.T) {
	teams := SortBySeed(seededTeams(t, 5))
	entrants := make([]Entrant, len(teams))
	for i, tm := range teams {
		entrants[i] = Entrant{Team: tm, Position: 9 - i}
	}
	plan, err := NewSequentialGenerator().GenerateRound(context.Background(), GenerateRoundParams{
		Round:            models.RoundLosers1,
		Entrants:         entrants,
		StartMatchNumber: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 2}, {3, 4}}, seedPairs(plan.Matches), "no reseeding, arrival order kept")
	require.Len(t, plan.Byes, 1)
	assert.Equal(t, 5, plan.Byes[0].Team.CombinedSeed)
	assert.Equal(t, 20, plan.Matches[0].MatchNumber)

	_, err = NewSequentialGenerator().GenerateRound(context.Background(), GenerateRoundParams{
		Round: models.RoundGrandFinal, Entrants: entrants[:1],
	})
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
}

func TestGeneratorFor(t *testing.T) {
	assert.Equal(t, "RoundRobin", GeneratorFor(models.RoundRobin3).GetName())
	assert.Equal(t, "SingleElimination", GeneratorFor(models.RoundQuarterfinal).GetName())
	assert.Equal(t, "Sequential", GeneratorFor(models.RoundLosersSemifinal).GetName())
	assert.Equal(t, "Sequential", GeneratorFor(models.RoundGrandFinal).GetName())
}

func TestPreview(t *testing.T) {
	preview := Preview(models.RoundQuarterfinal, seededTeams(t, 6))
	require.Len(t, preview, 7)

	var byes, placeholders int
	for _, pm := range preview {
		if pm.IsBye {
			byes++
		}
		if pm.IsPlaceholder {
			placeholders++
		}
	}
	assert.Equal(t, 2, byes)
	assert.Equal(t, models.RoundFinal, preview[len(preview)-1].Round)
	assert.Equal(t, 3, placeholders)
}
