package ratinghandlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	ratingevents "github.com/Black-And-White-Club/pingpong-bot/app/events/rating"
	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	achievementnotify "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/infrastructure/notify"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/handlerwrapper"
)

// RatingHandlers implements the Handlers interface.
type RatingHandlers struct {
	service ratingservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewRatingHandlers creates a new RatingHandlers instance.
func NewRatingHandlers(
	service ratingservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("rating")
	}
	return &RatingHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleMatchReportRequested records a singles win.
func (h *RatingHandlers) HandleMatchReportRequested(ctx context.Context, payload *ratingevents.MatchReportRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "RatingHandlers.HandleMatchReportRequested")
	defer span.End()

	sets := make([]achievementdomain.SetScore, len(payload.Sets))
	for i, s := range payload.Sets {
		sets[i] = achievementdomain.SetScore{Winner: s.Winner, Loser: s.Loser}
	}
	res, err := h.service.ReportMatch(ctx, ratingservice.ReportMatchRequest{
		GroupID:    payload.GroupID,
		WinnerID:   payload.WinnerID,
		LoserID:    payload.LoserID,
		Sets:       sets,
		ReportedBy: payload.ReportedBy,
	})
	return h.recorded(ctx, payload.GroupID, res, err)
}

// HandleDoublesMatchReportRequested records a doubles win.
func (h *RatingHandlers) HandleDoublesMatchReportRequested(ctx context.Context, payload *ratingevents.DoublesMatchReportRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	res, err := h.service.ReportDoublesMatch(ctx, ratingservice.ReportDoublesRequest{
		GroupID:    payload.GroupID,
		Winners:    payload.WinnerIDs,
		Losers:     payload.LoserIDs,
		ReportedBy: payload.ReportedBy,
	})
	return h.recorded(ctx, payload.GroupID, res, err)
}

// HandleDrawReportRequested records a drawn singles match.
func (h *RatingHandlers) HandleDrawReportRequested(ctx context.Context, payload *ratingevents.DrawReportRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	res, err := h.service.ReportDraw(ctx, ratingservice.ReportDrawRequest{
		GroupID:    payload.GroupID,
		Player1ID:  payload.Player1ID,
		Player2ID:  payload.Player2ID,
		ReportedBy: payload.ReportedBy,
	})
	return h.recorded(ctx, payload.GroupID, res, err)
}

// recorded maps a report outcome to events. Domain failures become a failed
// event; anything else is returned so the message is retried.
func (h *RatingHandlers) recorded(ctx context.Context, groupID string, res *ratingservice.MatchResult, err error) ([]handlerwrapper.Result, error) {
	if err != nil {
		if !ratingservice.IsFailure(err) {
			return nil, err
		}
		h.logger.WarnContext(ctx, "Match report rejected",
			slog.String("group_id", groupID),
			slog.String("reason", err.Error()),
		)
		return []handlerwrapper.Result{{
			Topic:   ratingevents.MatchReportFailedV1,
			Payload: &ratingevents.MatchReportFailedPayloadV1{GroupID: groupID, Reason: err.Error()},
		}}, nil
	}

	out := []handlerwrapper.Result{{Topic: ratingevents.MatchRecordedV1, Payload: RecordedPayload(res)}}
	return append(out, achievementnotify.Results(res.GroupID, res.Unlocks, res.MatchID.String(), "")...), nil
}

// RecordedPayload converts a recorded match into its event payload.
func RecordedPayload(res *ratingservice.MatchResult) *ratingevents.MatchRecordedPayloadV1 {
	return &ratingevents.MatchRecordedPayloadV1{
		GroupID:       res.GroupID,
		MatchID:       res.MatchID.String(),
		Kind:          string(res.Kind),
		Status:        res.Status,
		Winners:       res.Winners,
		Losers:        res.Losers,
		RatingsBefore: res.RatingsBefore,
		RatingsAfter:  res.RatingsAfter,
		Change:        res.Change,
		PlayedAt:      res.PlayedAt,
	}
}

// HandleMatchConfirmRequested confirms a pending match.
func (h *RatingHandlers) HandleMatchConfirmRequested(ctx context.Context, payload *ratingevents.MatchLifecycleRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	return h.lifecycle(ctx, payload, ratingevents.MatchConfirmedV1, h.service.ConfirmMatch)
}

// HandleMatchDisputeRequested disputes a pending match.
func (h *RatingHandlers) HandleMatchDisputeRequested(ctx context.Context, payload *ratingevents.MatchLifecycleRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	return h.lifecycle(ctx, payload, ratingevents.MatchDisputedV1, h.service.DisputeMatch)
}

// HandleMatchUndoRequested removes a match.
func (h *RatingHandlers) HandleMatchUndoRequested(ctx context.Context, payload *ratingevents.MatchLifecycleRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	return h.lifecycle(ctx, payload, ratingevents.MatchUndoneV1, h.service.UndoMatch)
}

func (h *RatingHandlers) lifecycle(
	ctx context.Context,
	payload *ratingevents.MatchLifecycleRequestedPayloadV1,
	topic string,
	op func(ctx context.Context, groupID string, matchID uuid.UUID) (*ratingservice.LifecycleResult, error),
) ([]handlerwrapper.Result, error) {
	failed := func(reason string) []handlerwrapper.Result {
		return []handlerwrapper.Result{{
			Topic: ratingevents.MatchLifecycleFailedV1,
			Payload: &ratingevents.MatchLifecycleFailedPayloadV1{
				GroupID: payload.GroupID,
				MatchID: payload.MatchID,
				Reason:  reason,
			},
		}}
	}

	matchID, err := uuid.Parse(payload.MatchID)
	if err != nil {
		h.logger.WarnContext(ctx, "Invalid match id in request",
			slog.String("match_id", payload.MatchID),
			slog.String("error", err.Error()),
		)
		return failed(fmt.Sprintf("invalid match id %q", payload.MatchID)), nil
	}

	res, err := op(ctx, payload.GroupID, matchID)
	if err != nil {
		if !ratingservice.IsFailure(err) {
			return nil, err
		}
		return failed(err.Error()), nil
	}

	return []handlerwrapper.Result{{
		Topic: topic,
		Payload: &ratingevents.MatchLifecyclePayloadV1{
			GroupID:  res.GroupID,
			MatchID:  res.MatchID.String(),
			Status:   res.Status,
			Replayed: res.Replay != nil,
		},
	}}, nil
}

// HandleGroupReplayRequested rebuilds a group and reports any drift.
func (h *RatingHandlers) HandleGroupReplayRequested(ctx context.Context, payload *ratingevents.GroupReplayRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "RatingHandlers.HandleGroupReplayRequested")
	defer span.End()

	summary, err := h.service.ReplayGroup(ctx, payload.GroupID)
	if err != nil {
		return h.groupFailed(payload.GroupID, err)
	}
	return []handlerwrapper.Result{{
		Topic:   ratingevents.GroupReplayedV1,
		Payload: ReplayedPayload(summary),
	}}, nil
}

// HandleGroupSettingsUpdateRequested applies a settings change.
func (h *RatingHandlers) HandleGroupSettingsUpdateRequested(ctx context.Context, payload *ratingevents.GroupSettingsUpdateRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	settings, err := h.service.UpdateGroupSettings(ctx, payload.GroupID, ratingservice.GroupSettingsUpdate{
		BaselineRating:      payload.BaselineRating,
		AchievementsEnabled: payload.AchievementsEnabled,
		RequireConfirmation: payload.RequireConfirmation,
	})
	if err != nil {
		return h.groupFailed(payload.GroupID, err)
	}
	return []handlerwrapper.Result{{
		Topic: ratingevents.GroupSettingsUpdatedV1,
		Payload: &ratingevents.GroupSettingsUpdatedPayloadV1{
			GroupID:             settings.GroupID,
			BaselineRating:      settings.BaselineRating,
			AchievementsEnabled: settings.AchievementsEnabled,
			RequireConfirmation: settings.RequireConfirmation,
		},
	}}, nil
}

func (h *RatingHandlers) groupFailed(groupID string, err error) ([]handlerwrapper.Result, error) {
	if !ratingservice.IsFailure(err) {
		return nil, err
	}
	return []handlerwrapper.Result{{
		Topic:   ratingevents.GroupRequestFailedV1,
		Payload: &ratingevents.GroupRequestFailedPayloadV1{GroupID: groupID, Reason: err.Error()},
	}}, nil
}

// ReplayedPayload converts a replay summary into its event payload.
func ReplayedPayload(summary *ratingservice.ReplaySummary) *ratingevents.GroupReplayedPayloadV1 {
	out := &ratingevents.GroupReplayedPayloadV1{
		GroupID:         summary.GroupID,
		MatchesReplayed: summary.MatchesReplayed,
	}
	for _, d := range summary.Drift {
		out.Drift = append(out.Drift, ratingevents.PlayerDriftV1{
			PlayerID:       d.PlayerID,
			Track:          string(d.Track),
			StoredRating:   d.Stored.Rating,
			ReplayedRating: d.Replayed.Rating,
		})
	}
	return out
}

// RolledOverPayload converts a rollover into its event payload. It returns
// nil when nothing rolled over.
func RolledOverPayload(res *ratingservice.RolloverResult) *ratingevents.SeasonRolledOverPayloadV1 {
	if res == nil || !res.RolledOver || res.Closed == nil {
		return nil
	}
	out := &ratingevents.SeasonRolledOverPayloadV1{
		GroupID:      res.GroupID,
		ClosedSeason: res.Closed.Name,
		OpenedSeason: res.Active.Name,
		OpenedStart:  res.Active.StartDate,
		OpenedEnd:    res.Active.EndDate,
		PlayersReset: len(res.Snapshots),
	}
	if len(res.Snapshots) > 0 {
		out.ChampionID = res.Snapshots[0].PlayerID
	}
	return out
}
