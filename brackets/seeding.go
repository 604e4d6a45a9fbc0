package brackets

import (
	"sort"

	"github.com/Dosada05/bracket-of-death/models"
)

// SortBySeed orders teams strongest first. Teams sharing a seed keep their
// input order.
func SortBySeed(teams []models.Team) []models.Team {
	sorted := append([]models.Team(nil), teams...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CombinedSeed < sorted[j].CombinedSeed
	})
	return sorted
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// SeedOrder returns the 1-based seed placed in each slot of a bracket of the
// given size. Adjacent slots meet first and seeds 1 and 2 can only meet in
// the last round. For 8 slots it is 1,8,5,4,3,6,7,2.
func SeedOrder(size int) []int {
	if size < 2 {
		return []int{1}
	}
	order := []int{1, 2}
	for len(order) < size {
		n := len(order) * 2
		next := make([]int, 0, n)
		for i, s := range order {
			if i%2 == 0 {
				next = append(next, s, n+1-s)
			} else {
				next = append(next, n+1-s, s)
			}
		}
		order = next
	}
	return order
}

// SeedScore ranks a player for seeding from career history, higher is
// stronger. Players with fewer than two tournaments get a neutral score.
func SeedScore(c models.CareerStats) float64 {
	if c.BodsPlayed < 2 {
		return 50
	}
	score := c.WinningPercentage * 100
	score += float64(c.TotalChampionships) * 25
	if c.AvgFinish > 0 {
		if bonus := (10 - c.AvgFinish) * 5; bonus > 0 {
			score += bonus
		}
	}
	experience := float64(c.BodsPlayed)
	if experience > 50 {
		experience = 50
	}
	return score + experience
}
