package models

import (
	"sort"
	"strings"
)

type TeamPlayer struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Seed       int    `json:"seed"`
}

type TeamStatistics struct {
	AvgFinish          float64 `json:"avg_finish"`
	CombinedWinPct     float64 `json:"combined_win_pct"`
	TotalChampionships int     `json:"total_championships"`
	CombinedBodsPlayed int     `json:"combined_bods_played"`
}

// Team is a value object generated once at setup. CombinedSeed is lower for
// stronger teams.
type Team struct {
	TeamID             string         `json:"team_id"`
	TeamName           string         `json:"team_name"`
	Players            []TeamPlayer   `json:"players"`
	CombinedSeed       int            `json:"combined_seed"`
	CombinedStatistics TeamStatistics `json:"combined_statistics"`
}

func (t Team) PlayerIDs() []string {
	ids := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

func (t Team) PlayerNames() []string {
	names := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		names = append(names, p.PlayerName)
	}
	return names
}

// Snapshot embeds the team into a match slot.
func (t Team) Snapshot() MatchTeam {
	return MatchTeam{
		TeamID:      t.TeamID,
		Players:     t.PlayerIDs(),
		PlayerNames: t.PlayerNames(),
		Seed:        t.CombinedSeed,
	}
}

// TeamFromSnapshot rebuilds a team from a match slot, used when carrying
// winners and losers forward.
func TeamFromSnapshot(s MatchTeam) Team {
	t := Team{TeamID: s.Key(), CombinedSeed: s.Seed}
	for i, id := range s.Players {
		name := ""
		if i < len(s.PlayerNames) {
			name = s.PlayerNames[i]
		}
		t.Players = append(t.Players, TeamPlayer{PlayerID: id, PlayerName: name})
	}
	t.TeamName = strings.Join(s.PlayerNames, " & ")
	return t
}

// PlayersKey is the order-independent identity of a player group.
func PlayersKey(players []string) string {
	ids := append([]string(nil), players...)
	sort.Strings(ids)
	return strings.Join(ids, "|")
}
