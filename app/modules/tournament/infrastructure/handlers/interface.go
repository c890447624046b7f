package tournamenthandlers

import (
	"context"

	tournamentevents "github.com/Black-And-White-Club/pingpong-bot/app/events/tournament"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/handlerwrapper"
)

// Handlers defines the interface for tournament event handlers.
type Handlers interface {
	HandleTournamentCreateRequested(ctx context.Context, payload *tournamentevents.TournamentCreateRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleFixtureReportRequested(ctx context.Context, payload *tournamentevents.FixtureReportRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleForceCompleteRequested(ctx context.Context, payload *tournamentevents.TournamentRefPayloadV1) ([]handlerwrapper.Result, error)
	HandleStandingsRequested(ctx context.Context, payload *tournamentevents.TournamentRefPayloadV1) ([]handlerwrapper.Result, error)
}
