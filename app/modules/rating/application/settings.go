package ratingservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

// GetGroupSettings returns the group's settings, or the defaults for a group
// that has not been used yet.
func (s *RatingService) GetGroupSettings(ctx context.Context, groupID string) (*GroupSettings, error) {
	return execute(s, ctx, "GetGroupSettings", groupID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*GroupSettings, error], error) {
		if groupID == "" {
			return results.FailureResult[*GroupSettings, error](ErrGroupRequired), nil
		}
		group, err := s.repo.GetGroup(ctx, db, groupID)
		if errors.Is(err, ratingdb.ErrNotFound) {
			return results.SuccessResult[*GroupSettings, error](&GroupSettings{
				GroupID:             groupID,
				BaselineRating:      s.baseline,
				AchievementsEnabled: true,
			}), nil
		}
		if err != nil {
			return results.OperationResult[*GroupSettings, error]{}, fmt.Errorf("failed to load group: %w", err)
		}
		return results.SuccessResult[*GroupSettings, error](settingsView(group)), nil
	})
}

// UpdateGroupSettings applies the non-nil fields of update. Changing the
// baseline rebuilds the group so stored ratings start from the new value.
func (s *RatingService) UpdateGroupSettings(ctx context.Context, groupID string, update GroupSettingsUpdate) (*GroupSettings, error) {
	return execute(s, ctx, "UpdateGroupSettings", groupID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*GroupSettings, error], error) {
		if groupID == "" {
			return results.FailureResult[*GroupSettings, error](ErrGroupRequired), nil
		}
		if update.BaselineRating != nil && *update.BaselineRating < ratingdomain.RatingFloor {
			return results.FailureResult[*GroupSettings, error](
				fmt.Errorf("%w: baseline %d is below the floor of %d", ErrInvalidSettings, *update.BaselineRating, ratingdomain.RatingFloor),
			), nil
		}

		group, err := s.lockGroup(ctx, db, groupID, true)
		if err != nil {
			return results.OperationResult[*GroupSettings, error]{}, err
		}

		rebase := update.BaselineRating != nil && *update.BaselineRating != group.BaselineRating
		if update.BaselineRating != nil {
			group.BaselineRating = *update.BaselineRating
		}
		if update.AchievementsEnabled != nil {
			group.AchievementsEnabled = *update.AchievementsEnabled
		}
		if update.RequireConfirmation != nil {
			group.RequireConfirmation = *update.RequireConfirmation
		}
		if err := s.repo.UpdateGroupSettings(ctx, db, group); err != nil {
			return results.OperationResult[*GroupSettings, error]{}, fmt.Errorf("failed to save settings: %w", err)
		}

		if rebase {
			if _, err := s.replayLogic(ctx, db, group); err != nil {
				return results.OperationResult[*GroupSettings, error]{}, err
			}
		}
		return results.SuccessResult[*GroupSettings, error](settingsView(group)), nil
	})
}

// GetLeaderboard ranks the players who have played on a track. Equal ratings
// share the better rank.
func (s *RatingService) GetLeaderboard(ctx context.Context, groupID string, track ratingdomain.Track) ([]LeaderboardEntry, error) {
	return execute(s, ctx, "GetLeaderboard", groupID, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]LeaderboardEntry, error], error) {
		if groupID == "" {
			return results.FailureResult[[]LeaderboardEntry, error](ErrGroupRequired), nil
		}
		if track != ratingdomain.TrackSingles && track != ratingdomain.TrackDoubles {
			return results.FailureResult[[]LeaderboardEntry, error](fmt.Errorf("%w: %q", ErrInvalidTrack, track)), nil
		}
		rows, err := s.repo.ListTracks(ctx, db, groupID, string(track))
		if err != nil {
			return results.OperationResult[[]LeaderboardEntry, error]{}, fmt.Errorf("failed to load tracks: %w", err)
		}

		entries := make([]LeaderboardEntry, 0, len(rows))
		for _, row := range rows {
			if row.GamesPlayed == 0 {
				continue
			}
			rank := len(entries) + 1
			if n := len(entries); n > 0 && entries[n-1].Rating == row.Rating {
				rank = entries[n-1].Rank
			}
			entries = append(entries, LeaderboardEntry{
				Rank:        rank,
				PlayerID:    row.PlayerID,
				PlayerTrack: trackToDomain(row),
			})
		}
		return results.SuccessResult[[]LeaderboardEntry, error](entries), nil
	})
}

// ListGroupIDs returns every group that has recorded anything.
func (s *RatingService) ListGroupIDs(ctx context.Context) ([]string, error) {
	return execute(s, ctx, "ListGroupIDs", "all", func(ctx context.Context, db bun.IDB) (results.OperationResult[[]string, error], error) {
		ids, err := s.repo.ListGroupIDs(ctx, db)
		if err != nil {
			return results.OperationResult[[]string, error]{}, err
		}
		return results.SuccessResult[[]string, error](ids), nil
	})
}
