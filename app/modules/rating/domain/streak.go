package ratingdomain

// StreakState is a signed streak plus the best win streak seen.
// Positive Current is a win streak, negative a loss streak.
type StreakState struct {
	Current int
	Best    int
}

// UpdateStreak advances a streak by one decisive result.
func UpdateStreak(current, best int, won bool) (int, int) {
	if won {
		next := 1
		if current > 0 {
			next = current + 1
		}
		return next, max(best, next)
	}

	next := -1
	if current < 0 {
		next = current - 1
	}
	return next, best
}

// Next returns the streak after a decisive result.
func (s StreakState) Next(won bool) StreakState {
	current, best := UpdateStreak(s.Current, s.Best, won)
	return StreakState{Current: current, Best: best}
}

// AfterDraw clears the running streak in either direction. Best is kept.
func (s StreakState) AfterDraw() StreakState {
	return StreakState{Current: 0, Best: s.Best}
}
