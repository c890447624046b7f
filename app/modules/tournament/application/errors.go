package tournamentservice

import (
	"errors"

	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	tournamentdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/domain"
)

// Domain failures. They are returned as errors but never retried.
var (
	ErrGroupRequired        = errors.New("group id is required")
	ErrNameRequired         = errors.New("tournament name is required")
	ErrInvalidPolicy        = errors.New("unknown unplayed fixture policy")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrTournamentCompleted  = errors.New("tournament is already completed")
	ErrFixtureNotFound      = errors.New("no fixture between these players")
	ErrFixtureAlreadyPlayed = errors.New("fixture already played")
	ErrNotATournamentPlayer = errors.New("player is not in this tournament")
	ErrSamePlayerBothSides  = errors.New("winner and loser must differ")
)

// IsFailure reports whether err is a domain failure rather than an
// infrastructure error. Rating failures raised while recording a fixture
// count as well.
func IsFailure(err error) bool {
	for _, target := range []error{
		ErrGroupRequired,
		ErrNameRequired,
		ErrInvalidPolicy,
		ErrTournamentNotFound,
		ErrTournamentCompleted,
		ErrFixtureNotFound,
		ErrFixtureAlreadyPlayed,
		ErrNotATournamentPlayer,
		ErrSamePlayerBothSides,
		tournamentdomain.ErrInvalidParticipants,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return ratingservice.IsFailure(err)
}
