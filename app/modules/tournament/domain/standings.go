package tournamentdomain

import (
	"cmp"
	"slices"
)

const (
	PointsWin  = 3
	PointsDraw = 1
)

// Standing is one participant's accumulated tournament record.
type Standing struct {
	PlayerID  string `json:"player_id"`
	Points    int    `json:"points"`
	Wins      int    `json:"wins"`
	Draws     int    `json:"draws"`
	Losses    int    `json:"losses"`
	SetsWon   int    `json:"sets_won"`
	SetsLost  int    `json:"sets_lost"`
	EloRating int    `json:"elo_rating"`
}

// SetDifferential is sets won minus sets lost.
func (s Standing) SetDifferential() int {
	return s.SetsWon - s.SetsLost
}

// Played is the number of results recorded for the participant.
func (s Standing) Played() int {
	return s.Wins + s.Draws + s.Losses
}

// HeadToHead maps a pair to the winner of their meeting. A draw is stored as
// an empty winner.
type HeadToHead map[PairKey]string

// Record stores the outcome of a meeting. winnerID is empty for a draw.
func (h HeadToHead) Record(a, b, winnerID string) {
	h[PairKeyOf(a, b)] = winnerID
}

// RecordWin adds a decisive result to both standings.
func RecordWin(winner, loser *Standing, winnerSets, loserSets int) {
	winner.Points += PointsWin
	winner.Wins++
	winner.SetsWon += winnerSets
	winner.SetsLost += loserSets

	loser.Losses++
	loser.SetsWon += loserSets
	loser.SetsLost += winnerSets
}

// RecordDraw adds a drawn result to both standings.
func RecordDraw(a, b *Standing, aSets, bSets int) {
	a.Points += PointsDraw
	a.Draws++
	a.SetsWon += aSets
	a.SetsLost += bSets

	b.Points += PointsDraw
	b.Draws++
	b.SetsWon += bSets
	b.SetsLost += aSets
}

// SortStandings returns a new slice ordered by points, then the head-to-head
// winner of a tied pair, then set differential, then rating. Remaining ties
// keep their input order.
func SortStandings(standings []Standing, h2h HeadToHead) []Standing {
	out := slices.Clone(standings)
	slices.SortStableFunc(out, func(a, b Standing) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		switch h2h[PairKeyOf(a.PlayerID, b.PlayerID)] {
		case a.PlayerID:
			return -1
		case b.PlayerID:
			return 1
		}
		if c := cmp.Compare(b.SetDifferential(), a.SetDifferential()); c != 0 {
			return c
		}
		return cmp.Compare(b.EloRating, a.EloRating)
	})
	return out
}
