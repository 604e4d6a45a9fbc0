package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Dosada05/bracket-of-death/brackets"
	"github.com/Dosada05/bracket-of-death/models"
	"github.com/Dosada05/bracket-of-death/repositories"
)

// resolveTeams returns the tournament's teams. Stored teams win; otherwise
// teams are synthesized from the roster, and as a last resort rebuilt from
// stored results. Synthesized or rebuilt teams are written back on t, and
// the caller persists t. The second return reports whether t changed.
func resolveTeams(ctx context.Context, st repositories.Store, t *models.Tournament, log *zap.SugaredLogger) ([]models.Team, bool, error) {
	if len(t.GeneratedTeams) > 0 {
		return t.GeneratedTeams, false, nil
	}

	teams, err := synthesizeTeams(ctx, st, t)
	if err != nil {
		return nil, false, err
	}
	source := "roster"
	if len(teams) == 0 {
		teams, err = reconstructTeams(ctx, st, t)
		if err != nil {
			return nil, false, err
		}
		source = "results"
	}
	if len(teams) == 0 {
		return nil, false, transitionErrorf("tournament %s has no teams", t.ID)
	}

	log.Infow("Resolved tournament teams", "tournament_id", t.ID, "source", source, "teams", len(teams))
	t.GeneratedTeams = teams
	return teams, true, nil
}

type seededPlayer struct {
	models.TeamPlayer
	position int
}

// synthesizeTeams groups the roster in order into teams of one (singles) or
// two players. A player's seed comes from the stored seed metadata, then from
// career history when no metadata exists at all, then from roster position.
func synthesizeTeams(ctx context.Context, st repositories.Store, t *models.Tournament) ([]models.Team, error) {
	seen := make(map[string]bool, len(t.Players))
	var roster []seededPlayer
	for _, p := range t.Players {
		if p.PlayerID == "" || seen[p.PlayerID] {
			continue
		}
		seen[p.PlayerID] = true
		roster = append(roster, seededPlayer{
			TeamPlayer: models.TeamPlayer{PlayerID: p.PlayerID, PlayerName: p.PlayerName},
			position:   len(roster),
		})
	}
	if len(roster) == 0 {
		return nil, nil
	}

	if err := assignSeeds(ctx, st, t, roster); err != nil {
		return nil, err
	}

	size := 2
	if t.IsSingles() {
		size = 1
	}
	if len(roster) < size {
		return nil, transitionErrorf("not enough unique players to form teams: have %d, need %d", len(roster), size)
	}

	var teams []models.Team
	composed := make(map[string]bool)
	for i := 0; i < len(roster); i += size {
		end := i + size
		if end > len(roster) {
			end = len(roster)
		}
		group := roster[i:end]
		ids := make([]string, 0, len(group))
		names := make([]string, 0, len(group))
		seedSum := 0
		players := make([]models.TeamPlayer, 0, len(group))
		for _, p := range group {
			ids = append(ids, p.PlayerID)
			names = append(names, p.PlayerName)
			seedSum += p.Seed
			players = append(players, p.TeamPlayer)
		}
		key := models.PlayersKey(ids)
		if composed[key] {
			continue
		}
		composed[key] = true
		teams = append(teams, models.Team{
			TeamID:       fmt.Sprintf("%s-T%d", t.ID, len(teams)+1),
			TeamName:     strings.Join(names, " & "),
			Players:      players,
			CombinedSeed: int(math.Ceil(float64(seedSum) / float64(len(group)))),
		})
	}
	return teams, nil
}

func assignSeeds(ctx context.Context, st repositories.Store, t *models.Tournament, roster []seededPlayer) error {
	if len(t.GeneratedSeeds) > 0 {
		meta := make(map[string]models.SeedInfo, len(t.GeneratedSeeds))
		for _, s := range t.GeneratedSeeds {
			meta[s.PlayerID] = s
		}
		for i := range roster {
			p := &roster[i]
			p.Seed = p.position + 1
			if m, ok := meta[p.PlayerID]; ok {
				if m.Seed > 0 {
					p.Seed = m.Seed
				}
				if p.PlayerName == "" {
					p.PlayerName = m.PlayerName
				}
			}
			if p.PlayerName == "" {
				p.PlayerName = fmt.Sprintf("Player %d", p.position+1)
			}
		}
		return nil
	}

	ids := make([]string, 0, len(roster))
	for _, p := range roster {
		ids = append(ids, p.PlayerID)
	}
	players, err := st.FindPlayers(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load players for seeding: %w", err)
	}
	scores := make(map[string]float64, len(players))
	names := make(map[string]string, len(players))
	for _, p := range players {
		scores[p.ID] = brackets.SeedScore(p.Career)
		names[p.ID] = p.Name
	}

	order := make([]int, len(roster))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, oka := scores[roster[order[a]].PlayerID]
		sb, okb := scores[roster[order[b]].PlayerID]
		if oka != okb {
			return oka
		}
		return sa > sb
	})
	for rank, i := range order {
		p := &roster[i]
		p.Seed = rank + 1
		if p.PlayerName == "" {
			p.PlayerName = names[p.PlayerID]
		}
		if p.PlayerName == "" {
			p.PlayerName = fmt.Sprintf("Player %d", p.position+1)
		}
	}
	return nil
}

// reconstructTeams rebuilds teams of a historical tournament from its stored
// results, ordered by seed then finish. Teams keep the result's key so later
// statistics land on the same rows.
func reconstructTeams(ctx context.Context, st repositories.Store, t *models.Tournament) ([]models.Team, error) {
	results, err := st.FindTournamentResults(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results of tournament %s: %w", t.ID, err)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Seed != results[j].Seed {
			return results[i].Seed < results[j].Seed
		}
		return results[i].TotalStats.BODFinish < results[j].TotalStats.BODFinish
	})

	var teams []models.Team
	for _, r := range results {
		if len(r.Players) == 0 {
			continue
		}
		seed := r.Seed
		if seed == 0 {
			seed = len(teams) + 1
		}
		id := r.TeamKey
		if id == "" {
			id = fmt.Sprintf("%s-R%d", t.ID, len(teams)+1)
		}
		tm := models.Team{
			TeamID:       id,
			CombinedSeed: seed,
			CombinedStatistics: models.TeamStatistics{
				CombinedWinPct: r.TotalStats.WinPercentage,
			},
		}
		names := make([]string, 0, len(r.Players))
		for i, pid := range r.Players {
			name := fmt.Sprintf("Player %d", i+1)
			if i < len(r.PlayerNames) && r.PlayerNames[i] != "" {
				name = r.PlayerNames[i]
			}
			names = append(names, name)
			tm.Players = append(tm.Players, models.TeamPlayer{PlayerID: pid, PlayerName: name, Seed: seed})
		}
		tm.TeamName = strings.Join(names, " & ")
		if r.TeamName != "" {
			tm.TeamName = r.TeamName
		}
		teams = append(teams, tm)
	}
	return teams, nil
}

// championRef names the player recorded as champion for a winning team.
func championRef(team models.Team) *models.PlayerRef {
	if len(team.Players) == 0 {
		return nil
	}
	return &models.PlayerRef{PlayerID: team.Players[0].PlayerID, PlayerName: team.Players[0].PlayerName}
}
