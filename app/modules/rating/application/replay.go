package ratingservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/uptrace/bun"

	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

// ReplayGroup rebuilds the group's tracks and match snapshots from the active
// log and reports the players whose stored state had drifted.
func (s *RatingService) ReplayGroup(ctx context.Context, groupID string) (*ReplaySummary, error) {
	return execute(s, ctx, "ReplayGroup", groupID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*ReplaySummary, error], error) {
		if groupID == "" {
			return results.FailureResult[*ReplaySummary, error](ErrGroupRequired), nil
		}
		group, err := s.lockGroup(ctx, db, groupID, false)
		if err != nil {
			if errors.Is(err, ErrGroupNotFound) {
				return results.FailureResult[*ReplaySummary, error](err), nil
			}
			return results.OperationResult[*ReplaySummary, error]{}, err
		}
		summary, err := s.replayLogic(ctx, db, group)
		if err != nil {
			return results.OperationResult[*ReplaySummary, error]{}, err
		}
		return results.SuccessResult[*ReplaySummary, error](summary), nil
	})
}

// replayLogic expects the group lock to be held.
func (s *RatingService) replayLogic(ctx context.Context, db bun.IDB, group *ratingdb.Group) (*ReplaySummary, error) {
	start := time.Now()

	log, err := s.repo.ListActiveMatches(ctx, db, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match log: %w", err)
	}
	resets, err := s.repo.ListSeasonResets(ctx, db, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load season resets: %w", err)
	}

	replayed, err := ratingdomain.Replay(matchesToHistory(log), group.BaselineRating, resets...)
	if err != nil {
		return nil, fmt.Errorf("failed to replay group %s: %w", group.ID, err)
	}

	var drift []ratingdomain.TrackDrift
	var rows []ratingdb.PlayerTrack
	for _, track := range []ratingdomain.Track{ratingdomain.TrackSingles, ratingdomain.TrackDoubles} {
		stored, err := s.repo.ListTracks(ctx, db, group.ID, string(track))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s tracks: %w", track, err)
		}
		state := replayed.Singles
		if track == ratingdomain.TrackDoubles {
			state = replayed.Doubles
		}
		drift = append(drift, ratingdomain.DiffTracks(track, tracksToDomain(stored), state, group.BaselineRating)...)

		if err := s.repo.DeleteTracks(ctx, db, group.ID, string(track)); err != nil {
			return nil, fmt.Errorf("failed to clear %s tracks: %w", track, err)
		}
		for _, id := range ratingdomain.SortedIDs(state) {
			rows = append(rows, trackFromDomain(group.ID, id, track, state[id]))
		}
	}
	if err := s.repo.UpsertTracks(ctx, db, rows); err != nil {
		return nil, fmt.Errorf("failed to save replayed tracks: %w", err)
	}

	var rewrites []ratingdb.Match
	for i, snap := range replayed.Snapshots {
		m := log[i]
		if m.Change == snap.Change && maps.Equal(m.EloBefore, snap.RatingsBefore) && maps.Equal(m.EloAfter, snap.RatingsAfter) {
			continue
		}
		m.EloBefore = snap.RatingsBefore
		m.EloAfter = snap.RatingsAfter
		m.Change = snap.Change
		rewrites = append(rewrites, m)
	}
	if err := s.repo.UpdateMatchSnapshots(ctx, db, rewrites); err != nil {
		return nil, fmt.Errorf("failed to rewrite match snapshots: %w", err)
	}

	s.metrics.RecordReplay(ctx, time.Since(start), len(drift))
	if len(drift) > 0 {
		s.logger.WarnContext(ctx, "Replay corrected drifted tracks",
			slog.String("group_id", group.ID),
			slog.Int("drifted", len(drift)),
			slog.Int("matches", len(log)),
		)
	}

	return &ReplaySummary{
		GroupID:            group.ID,
		MatchesReplayed:    len(log),
		SnapshotsRewritten: len(rewrites),
		Drift:              drift,
	}, nil
}
