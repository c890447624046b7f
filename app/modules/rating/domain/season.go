package ratingdomain

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// SeasonInfo identifies a season by its date range. Dates are UTC midnight.
type SeasonInfo struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

type seasonBoundary struct {
	month time.Month
	label string
}

// seasonBoundaries are the fixed quarter starts of every calendar year.
var seasonBoundaries = [...]seasonBoundary{
	{time.January, "Winter"},
	{time.March, "Spring"},
	{time.June, "Summer"},
	{time.September, "Autumn"},
}

// SeasonForDate returns the season containing t. The calendar date of t is
// taken in UTC.
func SeasonForDate(t time.Time) SeasonInfo {
	t = t.UTC()
	year := t.Year()

	idx := 0
	for i, b := range seasonBoundaries {
		if t.Month() >= b.month {
			idx = i
		}
	}

	start := time.Date(year, seasonBoundaries[idx].month, 1, 0, 0, 0, 0, time.UTC)

	var nextStart time.Time
	if idx+1 < len(seasonBoundaries) {
		nextStart = time.Date(year, seasonBoundaries[idx+1].month, 1, 0, 0, 0, 0, time.UTC)
	} else {
		nextStart = time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	return SeasonInfo{
		Name:      fmt.Sprintf("%s %d", seasonBoundaries[idx].label, year),
		StartDate: start,
		EndDate:   nextStart.AddDate(0, 0, -1),
	}
}

// IsSeasonExpired reports whether now is strictly after the last millisecond
// of endDate's UTC calendar day.
func IsSeasonExpired(endDate, now time.Time) bool {
	end := endDate.UTC()
	lastInstant := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return now.UTC().After(lastInstant)
}

// MemberStanding is a member's singles record at the moment a season closes.
type MemberStanding struct {
	PlayerID    string
	Rating      int
	GamesPlayed int
	Wins        int
	Losses      int
	Draws       int
	BestStreak  int
}

// SeasonSnapshot is the archived final standing of one member.
type SeasonSnapshot struct {
	MemberStanding
	Rank int
}

// SeasonRolloverPlan is everything a collaborator must write to close the
// expired season and open the next one.
type SeasonRolloverPlan struct {
	Snapshots []SeasonSnapshot
	// ResetRating is applied to every member's singles track along with a
	// zeroed record and streak.
	ResetRating int
	Next        SeasonInfo
}

// PlanSeasonRollover ranks members by rating, then wins, then ID, and
// returns the snapshot to archive plus the season to open at now.
func PlanSeasonRollover(members []MemberStanding, baseline int, now time.Time) SeasonRolloverPlan {
	sorted := slices.Clone(members)
	slices.SortFunc(sorted, func(a, b MemberStanding) int {
		if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		return cmp.Compare(a.PlayerID, b.PlayerID)
	})

	snapshots := make([]SeasonSnapshot, len(sorted))
	for i, m := range sorted {
		snapshots[i] = SeasonSnapshot{MemberStanding: m, Rank: i + 1}
	}

	return SeasonRolloverPlan{
		Snapshots:   snapshots,
		ResetRating: clampFloor(baseline),
		Next:        SeasonForDate(now),
	}
}
