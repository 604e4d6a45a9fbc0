package models

const noBestResult = 999

type CareerStats struct {
	BodsPlayed              int     `json:"bods_played"`
	GamesPlayed             int     `json:"games_played"`
	GamesWon                int     `json:"games_won"`
	BestResult              int     `json:"best_result"`
	AvgFinish               float64 `json:"avg_finish"`
	WinningPercentage       float64 `json:"winning_percentage"`
	TotalChampionships      int     `json:"total_championships"`
	DivisionChampionships   int     `json:"division_championships"`
	IndividualChampionships int     `json:"individual_championships"`
}

type Player struct {
	ID     string      `json:"id" db:"id"`
	Name   string      `json:"name" db:"name"`
	Career CareerStats `json:"career" db:"career"`
}

// CareerDelta is one tournament's contribution to a player's career.
type CareerDelta struct {
	GamesPlayed    int
	GamesWon       int
	Finish         int
	DivisionFormat bool
}

// Apply folds one finished tournament into the career totals.
func (c CareerStats) Apply(d CareerDelta) CareerStats {
	prevBods := c.BodsPlayed
	prevAvg := c.AvgFinish

	c.BodsPlayed++
	c.GamesPlayed += d.GamesPlayed
	c.GamesWon += d.GamesWon

	best := c.BestResult
	if best <= 0 {
		best = noBestResult
	}
	if d.Finish > 0 && d.Finish < best {
		best = d.Finish
	}
	c.BestResult = best

	if d.Finish == 1 {
		c.TotalChampionships++
		if d.DivisionFormat {
			c.DivisionChampionships++
		} else {
			c.IndividualChampionships++
		}
	}

	if c.GamesPlayed > 0 {
		c.WinningPercentage = float64(c.GamesWon) / float64(c.GamesPlayed)
	} else {
		c.WinningPercentage = 0
	}
	c.AvgFinish = (prevAvg*float64(prevBods) + float64(d.Finish)) / float64(c.BodsPlayed)
	return c
}
