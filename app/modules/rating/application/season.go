package ratingservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

// RolloverSeasonIfExpired closes the group's season when now is past its end:
// every singles standing is archived, singles tracks go back to the baseline
// and the season containing now is opened. A group without a season gets one
// opened for now.
func (s *RatingService) RolloverSeasonIfExpired(ctx context.Context, groupID string, now time.Time) (*RolloverResult, error) {
	now = now.UTC().Truncate(time.Microsecond)
	return execute(s, ctx, "RolloverSeasonIfExpired", groupID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*RolloverResult, error], error) {
		if groupID == "" {
			return results.FailureResult[*RolloverResult, error](ErrGroupRequired), nil
		}
		group, err := s.lockGroup(ctx, db, groupID, false)
		if err != nil {
			if errors.Is(err, ErrGroupNotFound) {
				return results.FailureResult[*RolloverResult, error](err), nil
			}
			return results.OperationResult[*RolloverResult, error]{}, err
		}
		res, err := s.rolloverLogic(ctx, db, group, now)
		if err != nil {
			return results.OperationResult[*RolloverResult, error]{}, err
		}
		return results.SuccessResult[*RolloverResult, error](res), nil
	})
}

// rolloverLogic expects the group lock to be held.
func (s *RatingService) rolloverLogic(ctx context.Context, db bun.IDB, group *ratingdb.Group, now time.Time) (*RolloverResult, error) {
	active, err := s.repo.GetActiveSeason(ctx, db, group.ID)
	if errors.Is(err, ratingdb.ErrNoActiveSeason) {
		info := ratingdomain.SeasonForDate(now)
		season := &ratingdb.Season{
			ID:        uuid.New(),
			GroupID:   group.ID,
			Name:      info.Name,
			StartDate: info.StartDate,
			EndDate:   info.EndDate,
			IsActive:  true,
			OpenedAt:  now,
		}
		if err := s.repo.CreateSeason(ctx, db, season); err != nil {
			return nil, fmt.Errorf("failed to open first season: %w", err)
		}
		return &RolloverResult{GroupID: group.ID, Active: seasonView(season)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active season: %w", err)
	}

	if !ratingdomain.IsSeasonExpired(active.EndDate, now) {
		return &RolloverResult{GroupID: group.ID, Active: seasonView(active)}, nil
	}

	rows, err := s.repo.ListTracks(ctx, db, group.ID, string(ratingdomain.TrackSingles))
	if err != nil {
		return nil, fmt.Errorf("failed to load singles standings: %w", err)
	}
	members := make([]ratingdomain.MemberStanding, 0, len(rows))
	for _, row := range rows {
		members = append(members, ratingdomain.MemberStanding{
			PlayerID:    row.PlayerID,
			Rating:      row.Rating,
			GamesPlayed: row.GamesPlayed,
			Wins:        row.Wins,
			Losses:      row.Losses,
			Draws:       row.Draws,
			BestStreak:  row.BestStreak,
		})
	}
	plan := ratingdomain.PlanSeasonRollover(members, group.BaselineRating, now)

	snapshots := make([]ratingdb.SeasonSnapshot, len(plan.Snapshots))
	reset := make([]ratingdb.PlayerTrack, len(plan.Snapshots))
	for i, snap := range plan.Snapshots {
		snapshots[i] = ratingdb.SeasonSnapshot{
			SeasonID:    active.ID,
			PlayerID:    snap.PlayerID,
			GroupID:     group.ID,
			Rank:        snap.Rank,
			Rating:      snap.Rating,
			GamesPlayed: snap.GamesPlayed,
			Wins:        snap.Wins,
			Losses:      snap.Losses,
			Draws:       snap.Draws,
			BestStreak:  snap.BestStreak,
		}
		reset[i] = trackFromDomain(group.ID, snap.PlayerID, ratingdomain.TrackSingles, ratingdomain.NewPlayerTrack(plan.ResetRating))
	}

	if err := s.repo.SaveSeasonSnapshots(ctx, db, snapshots); err != nil {
		return nil, fmt.Errorf("failed to archive season: %w", err)
	}
	if err := s.repo.DeactivateSeason(ctx, db, active.ID); err != nil {
		return nil, fmt.Errorf("failed to close season: %w", err)
	}
	if err := s.repo.UpsertTracks(ctx, db, reset); err != nil {
		return nil, fmt.Errorf("failed to reset singles tracks: %w", err)
	}

	next := &ratingdb.Season{
		ID:               uuid.New(),
		GroupID:          group.ID,
		Name:             plan.Next.Name,
		StartDate:        plan.Next.StartDate,
		EndDate:          plan.Next.EndDate,
		IsActive:         true,
		OpenedAt:         now,
		OpenedByRollover: true,
	}
	if err := s.repo.CreateSeason(ctx, db, next); err != nil {
		return nil, fmt.Errorf("failed to open season: %w", err)
	}

	s.metrics.RecordSeasonRollover(ctx)
	s.logger.InfoContext(ctx, "Season rolled over",
		slog.String("group_id", group.ID),
		slog.String("closed", active.Name),
		slog.String("opened", next.Name),
		slog.Int("players_reset", len(reset)),
	)

	closed := seasonView(active)
	return &RolloverResult{
		GroupID:    group.ID,
		RolledOver: true,
		Closed:     &closed,
		Active:     seasonView(next),
		Snapshots:  plan.Snapshots,
	}, nil
}
