package ratingservice

import (
	"errors"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
)

// Domain failures returned to callers. Infrastructure errors are wrapped
// separately.
var (
	ErrGroupRequired   = errors.New("group id is required")
	ErrGroupNotFound   = errors.New("group not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrMatchNotPending = errors.New("match is not pending")
	ErrInvalidSettings = errors.New("invalid group settings")
	ErrInvalidTrack    = errors.New("unknown rating track")
	// ErrTournamentMatch rejects edits to a match that a tournament fixture
	// points at. Tournament standings only change through the tournament.
	ErrTournamentMatch = errors.New("match belongs to a tournament")
)

// IsFailure reports whether err is a domain failure rather than an
// infrastructure error.
func IsFailure(err error) bool {
	for _, target := range []error{
		ErrGroupRequired,
		ErrGroupNotFound,
		ErrMatchNotFound,
		ErrMatchNotPending,
		ErrInvalidSettings,
		ErrInvalidTrack,
		ErrTournamentMatch,
		ratingdomain.ErrInvalidMatch,
		achievementdomain.ErrInvalidSetScores,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
