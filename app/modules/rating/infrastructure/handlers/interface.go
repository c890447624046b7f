package ratinghandlers

import (
	"context"

	ratingevents "github.com/Black-And-White-Club/pingpong-bot/app/events/rating"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/handlerwrapper"
)

// Handlers defines the interface for rating event handlers.
type Handlers interface {
	HandleMatchReportRequested(ctx context.Context, payload *ratingevents.MatchReportRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleDoublesMatchReportRequested(ctx context.Context, payload *ratingevents.DoublesMatchReportRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleDrawReportRequested(ctx context.Context, payload *ratingevents.DrawReportRequestedPayloadV1) ([]handlerwrapper.Result, error)

	HandleMatchConfirmRequested(ctx context.Context, payload *ratingevents.MatchLifecycleRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleMatchDisputeRequested(ctx context.Context, payload *ratingevents.MatchLifecycleRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleMatchUndoRequested(ctx context.Context, payload *ratingevents.MatchLifecycleRequestedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleGroupReplayRequested rebuilds a group on demand.
	HandleGroupReplayRequested(ctx context.Context, payload *ratingevents.GroupReplayRequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleGroupSettingsUpdateRequested(ctx context.Context, payload *ratingevents.GroupSettingsUpdateRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
