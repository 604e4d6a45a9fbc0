package scoring

import "fmt"

// ValidityRule decides whether a final score is legal for the sport.
type ValidityRule interface {
	Check(team1, team2 int) (bool, string)
}

// ProSetRule is first to 11 games, win by two once both sides reach 10.
// A 0-0 score is accepted as a no-contest.
type ProSetRule struct {
	Target int
}

func NewProSetRule() ProSetRule {
	return ProSetRule{Target: 11}
}

func (r ProSetRule) Check(team1, team2 int) (bool, string) {
	target := r.Target
	if target <= 0 {
		target = 11
	}
	if team1 < 0 || team2 < 0 {
		return false, "scores cannot be negative"
	}
	if team1 == 0 && team2 == 0 {
		return true, ""
	}
	if team1 == team2 {
		return false, "scores cannot be tied"
	}

	high, low := team1, team2
	if low > high {
		high, low = low, high
	}
	if high == target && low <= target-2 {
		return true, ""
	}
	if low >= target-1 && high-low == 2 {
		return true, ""
	}
	return false, fmt.Sprintf("invalid score %d-%d: first to %d, win by two after %d-%d", team1, team2, target, target-1, target-1)
}
