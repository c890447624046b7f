package ratingservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

// ConfirmMatch moves a pending match to confirmed.
func (s *RatingService) ConfirmMatch(ctx context.Context, groupID string, matchID uuid.UUID) (*LifecycleResult, error) {
	return execute(s, ctx, "ConfirmMatch", matchID.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[*LifecycleResult, error], error) {
		_, match, failure, err := s.loadForLifecycle(ctx, db, groupID, matchID)
		if failure != nil || err != nil {
			return lifecycleOutcome(failure, err)
		}
		if match.Status != ratingdb.StatusPending {
			return results.FailureResult[*LifecycleResult, error](
				fmt.Errorf("%w: match %s is %s", ErrMatchNotPending, matchID, match.Status),
			), nil
		}
		if err := s.repo.UpdateMatchStatus(ctx, db, groupID, matchID, ratingdb.StatusConfirmed); err != nil {
			return results.OperationResult[*LifecycleResult, error]{}, fmt.Errorf("failed to confirm match: %w", err)
		}
		return results.SuccessResult[*LifecycleResult, error](&LifecycleResult{
			GroupID: groupID,
			MatchID: matchID,
			Status:  ratingdb.StatusConfirmed,
		}), nil
	})
}

// DisputeMatch marks a pending match disputed and rebuilds the group
// without it.
func (s *RatingService) DisputeMatch(ctx context.Context, groupID string, matchID uuid.UUID) (*LifecycleResult, error) {
	return execute(s, ctx, "DisputeMatch", matchID.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[*LifecycleResult, error], error) {
		group, match, failure, err := s.loadForLifecycle(ctx, db, groupID, matchID)
		if failure != nil || err != nil {
			return lifecycleOutcome(failure, err)
		}
		if failure := tournamentGuard(match); failure != nil {
			return lifecycleOutcome(failure, nil)
		}
		if match.Status != ratingdb.StatusPending {
			return results.FailureResult[*LifecycleResult, error](
				fmt.Errorf("%w: match %s is %s", ErrMatchNotPending, matchID, match.Status),
			), nil
		}
		if err := s.repo.UpdateMatchStatus(ctx, db, groupID, matchID, ratingdb.StatusDisputed); err != nil {
			return results.OperationResult[*LifecycleResult, error]{}, fmt.Errorf("failed to dispute match: %w", err)
		}
		summary, err := s.replayLogic(ctx, db, group)
		if err != nil {
			return results.OperationResult[*LifecycleResult, error]{}, err
		}
		return results.SuccessResult[*LifecycleResult, error](&LifecycleResult{
			GroupID: groupID,
			MatchID: matchID,
			Status:  ratingdb.StatusDisputed,
			Replay:  summary,
		}), nil
	})
}

// UndoMatch deletes a match of any status and rebuilds the group.
// Achievements unlocked by the match are kept. Tournament matches are
// refused.
func (s *RatingService) UndoMatch(ctx context.Context, groupID string, matchID uuid.UUID) (*LifecycleResult, error) {
	return execute(s, ctx, "UndoMatch", matchID.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[*LifecycleResult, error], error) {
		group, match, failure, err := s.loadForLifecycle(ctx, db, groupID, matchID)
		if failure != nil || err != nil {
			return lifecycleOutcome(failure, err)
		}
		if failure := tournamentGuard(match); failure != nil {
			return lifecycleOutcome(failure, nil)
		}
		if err := s.repo.DeleteMatch(ctx, db, groupID, matchID); err != nil {
			return results.OperationResult[*LifecycleResult, error]{}, fmt.Errorf("failed to delete match: %w", err)
		}
		summary, err := s.replayLogic(ctx, db, group)
		if err != nil {
			return results.OperationResult[*LifecycleResult, error]{}, err
		}
		return results.SuccessResult[*LifecycleResult, error](&LifecycleResult{
			GroupID: groupID,
			MatchID: matchID,
			Status:  "undone",
			Replay:  summary,
		}), nil
	})
}

// loadForLifecycle locks the group and loads the match. A non-nil failure
// is a domain failure to hand back to the caller.
func (s *RatingService) loadForLifecycle(
	ctx context.Context,
	db bun.IDB,
	groupID string,
	matchID uuid.UUID,
) (*ratingdb.Group, *ratingdb.Match, error, error) {
	if groupID == "" {
		return nil, nil, ErrGroupRequired, nil
	}
	group, err := s.lockGroup(ctx, db, groupID, false)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return nil, nil, err, nil
		}
		return nil, nil, nil, err
	}
	match, err := s.repo.GetMatch(ctx, db, groupID, matchID)
	if err != nil {
		if errors.Is(err, ratingdb.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID), nil
		}
		return nil, nil, nil, fmt.Errorf("failed to load match: %w", err)
	}
	return group, match, nil, nil
}

// tournamentGuard refuses to remove a match from the log while a tournament
// fixture still counts it.
func tournamentGuard(match *ratingdb.Match) error {
	if match.TournamentID == nil {
		return nil
	}
	return fmt.Errorf("%w: match %s is part of tournament %s", ErrTournamentMatch, match.ID, *match.TournamentID)
}

func lifecycleOutcome(failure, err error) (results.OperationResult[*LifecycleResult, error], error) {
	if err != nil {
		return results.OperationResult[*LifecycleResult, error]{}, err
	}
	return results.FailureResult[*LifecycleResult, error](failure), nil
}
