package ratingqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/riverqueue/river"

	ratingevents "github.com/Black-And-White-Club/pingpong-bot/app/events/rating"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratinghandlers "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/handlers"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/handlerwrapper"
)

// Maintainer is the slice of the rating service the workers drive.
type Maintainer interface {
	ListGroupIDs(ctx context.Context) ([]string, error)
	RolloverSeasonIfExpired(ctx context.Context, groupID string, now time.Time) (*ratingservice.RolloverResult, error)
	ReplayGroup(ctx context.Context, groupID string) (*ratingservice.ReplaySummary, error)
}

var _ Maintainer = (ratingservice.Service)(nil)

// targets resolves the groups a job applies to.
func targets(ctx context.Context, svc Maintainer, groupID string) ([]string, error) {
	if groupID != "" {
		return []string{groupID}, nil
	}
	ids, err := svc.ListGroupIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return ids, nil
}

// SeasonRolloverWorker closes expired seasons and announces the new ones.
type SeasonRolloverWorker struct {
	river.WorkerDefaults[SeasonRolloverJob]
	service   Maintainer
	publisher message.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewSeasonRolloverWorker creates a rollover worker.
func NewSeasonRolloverWorker(logger *slog.Logger, service Maintainer, publisher message.Publisher) *SeasonRolloverWorker {
	return &SeasonRolloverWorker{service: service, publisher: publisher, logger: logger, now: time.Now}
}

// Work rolls every target group. Infrastructure errors are joined so river
// retries the job; groups that already rolled over are a no-op on retry.
func (w *SeasonRolloverWorker) Work(ctx context.Context, job *river.Job[SeasonRolloverJob]) error {
	groups, err := targets(ctx, w.service, job.Args.GroupID)
	if err != nil {
		return err
	}

	var errs []error
	rolled := 0
	for _, groupID := range groups {
		res, err := w.service.RolloverSeasonIfExpired(ctx, groupID, w.now())
		if err != nil {
			if ratingservice.IsFailure(err) {
				w.logger.WarnContext(ctx, "Season rollover skipped",
					slog.String("group_id", groupID),
					slog.String("reason", err.Error()),
				)
				continue
			}
			errs = append(errs, fmt.Errorf("group %s: %w", groupID, err))
			continue
		}

		payload := ratinghandlers.RolledOverPayload(res)
		if payload == nil {
			continue
		}
		rolled++
		if err := handlerwrapper.Publish(ctx, w.publisher, handlerwrapper.Result{
			Topic:   ratingevents.SeasonRolledOverV1,
			Payload: payload,
		}); err != nil {
			errs = append(errs, err)
		}
	}

	w.logger.InfoContext(ctx, "Season rollover sweep finished",
		slog.Int("groups", len(groups)),
		slog.Int("rolled_over", rolled),
		slog.Int("errors", len(errs)),
	)
	return errors.Join(errs...)
}

// GroupReplayWorker rebuilds groups and publishes the drift it repaired.
type GroupReplayWorker struct {
	river.WorkerDefaults[GroupReplayJob]
	service   Maintainer
	publisher message.Publisher
	logger    *slog.Logger
}

// NewGroupReplayWorker creates a replay worker.
func NewGroupReplayWorker(logger *slog.Logger, service Maintainer, publisher message.Publisher) *GroupReplayWorker {
	return &GroupReplayWorker{service: service, publisher: publisher, logger: logger}
}

// Timeout allows large groups to finish a full rebuild.
func (w *GroupReplayWorker) Timeout(*river.Job[GroupReplayJob]) time.Duration {
	return 10 * time.Minute
}

// Work replays every target group. A sweep only announces groups that
// drifted; a targeted replay always announces its summary.
func (w *GroupReplayWorker) Work(ctx context.Context, job *river.Job[GroupReplayJob]) error {
	groups, err := targets(ctx, w.service, job.Args.GroupID)
	if err != nil {
		return err
	}
	sweep := job.Args.GroupID == ""

	var errs []error
	for _, groupID := range groups {
		summary, err := w.service.ReplayGroup(ctx, groupID)
		if err != nil {
			if ratingservice.IsFailure(err) {
				w.logger.WarnContext(ctx, "Group replay skipped",
					slog.String("group_id", groupID),
					slog.String("reason", err.Error()),
				)
				continue
			}
			errs = append(errs, fmt.Errorf("group %s: %w", groupID, err))
			continue
		}
		if sweep && len(summary.Drift) == 0 {
			continue
		}
		if err := handlerwrapper.Publish(ctx, w.publisher, handlerwrapper.Result{
			Topic:   ratingevents.GroupReplayedV1,
			Payload: ratinghandlers.ReplayedPayload(summary),
		}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
