package ratingdomain

import (
	"math"
)

const (
	// RatingFloor is the lowest rating any player can hold.
	RatingFloor = 100

	// DefaultBaseline is the starting rating for a group that does not configure one.
	DefaultBaseline = 1000

	KFactorNovice       = 40
	KFactorIntermediate = 24
	KFactorVeteran      = 16
)

// RatingState is a player's rating on one track.
type RatingState struct {
	Rating      int
	GamesPlayed int
}

// KFactor returns the maximum swing for a player with the given experience.
// Under 10 games is novice, 10 through 30 is intermediate, anything above is veteran.
func KFactor(gamesPlayed int) int {
	switch {
	case gamesPlayed < 10:
		return KFactorNovice
	case gamesPlayed <= 30:
		return KFactorIntermediate
	default:
		return KFactorVeteran
	}
}

// ExpectedScore is the logistic win expectancy of rating against opponent.
func ExpectedScore(rating, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-rating)/400))
}

// EloResult is the outcome of a decisive singles match.
type EloResult struct {
	WinnerNew int
	LoserNew  int
	// Change is the winner's signed delta.
	Change int
}

// CalculateElo computes post-match ratings for a decisive singles result.
// Each side uses its own K-factor.
func CalculateElo(winnerRating, loserRating, winnerGamesPlayed, loserGamesPlayed int) EloResult {
	winnerExpected := ExpectedScore(float64(winnerRating), float64(loserRating))
	loserExpected := ExpectedScore(float64(loserRating), float64(winnerRating))

	winnerNew := adjust(winnerRating, KFactor(winnerGamesPlayed), 1, winnerExpected)
	loserNew := adjust(loserRating, KFactor(loserGamesPlayed), 0, loserExpected)

	return EloResult{
		WinnerNew: winnerNew,
		LoserNew:  loserNew,
		Change:    winnerNew - winnerRating,
	}
}

// DrawResult is the outcome of a drawn singles match.
type DrawResult struct {
	Player1New    int
	Player2New    int
	Player1Change int
	Player2Change int
}

// CalculateDraw computes post-match ratings when neither side won.
func CalculateDraw(player1Rating, player2Rating, player1GamesPlayed, player2GamesPlayed int) DrawResult {
	e1 := ExpectedScore(float64(player1Rating), float64(player2Rating))
	e2 := ExpectedScore(float64(player2Rating), float64(player1Rating))

	p1 := adjust(player1Rating, KFactor(player1GamesPlayed), 0.5, e1)
	p2 := adjust(player2Rating, KFactor(player2GamesPlayed), 0.5, e2)

	return DrawResult{
		Player1New:    p1,
		Player2New:    p2,
		Player1Change: p1 - player1Rating,
		Player2Change: p2 - player2Rating,
	}
}

// Team is a doubles pairing.
type Team [2]RatingState

// TeamRating is the mean of the two partners' ratings. It is always derived,
// never stored.
func TeamRating(t Team) float64 {
	return float64(t[0].Rating+t[1].Rating) / 2
}

// TeamKFactor is the smaller of the two partners' K-factors.
func TeamKFactor(t Team) int {
	return min(KFactor(t[0].GamesPlayed), KFactor(t[1].GamesPlayed))
}

// DoublesResult holds the new ratings of both partners on each side, in the
// same order as the input teams.
type DoublesResult struct {
	WinnersNew  [2]int
	LosersNew   [2]int
	WinnerDelta int
	LoserDelta  int
}

// CalculateDoublesElo applies one team-level delta to both partners on each side.
func CalculateDoublesElo(winners, losers Team) DoublesResult {
	winnerRating := TeamRating(winners)
	loserRating := TeamRating(losers)

	winnerDelta := int(math.Round(float64(TeamKFactor(winners)) * (1 - ExpectedScore(winnerRating, loserRating))))
	loserDelta := int(math.Round(float64(TeamKFactor(losers)) * (0 - ExpectedScore(loserRating, winnerRating))))

	var res DoublesResult
	res.WinnerDelta = winnerDelta
	res.LoserDelta = loserDelta
	for i := range 2 {
		res.WinnersNew[i] = clampFloor(winners[i].Rating + winnerDelta)
		res.LosersNew[i] = clampFloor(losers[i].Rating + loserDelta)
	}
	return res
}

func adjust(rating, k int, actual, expected float64) int {
	return clampFloor(int(math.Round(float64(rating) + float64(k)*(actual-expected))))
}

func clampFloor(rating int) int {
	if rating < RatingFloor {
		return RatingFloor
	}
	return rating
}
