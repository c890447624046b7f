package ratingservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

// ReportMatch records a decisive singles match.
func (s *RatingService) ReportMatch(ctx context.Context, req ReportMatchRequest) (*MatchResult, error) {
	rec := RecordRequest{
		GroupID:    req.GroupID,
		Kind:       ratingdomain.KindSingles,
		Winners:    []string{req.WinnerID},
		Losers:     []string{req.LoserID},
		Sets:       req.Sets,
		ReportedBy: req.ReportedBy,
	}
	return execute(s, ctx, "ReportMatch", req.GroupID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*MatchResult, error], error) {
		return s.recordLogic(ctx, db, rec)
	})
}

// ReportDoublesMatch records a decisive doubles match.
func (s *RatingService) ReportDoublesMatch(ctx context.Context, req ReportDoublesRequest) (*MatchResult, error) {
	rec := RecordRequest{
		GroupID:    req.GroupID,
		Kind:       ratingdomain.KindDoubles,
		Winners:    req.Winners[:],
		Losers:     req.Losers[:],
		ReportedBy: req.ReportedBy,
	}
	return execute(s, ctx, "ReportDoublesMatch", req.GroupID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*MatchResult, error], error) {
		return s.recordLogic(ctx, db, rec)
	})
}

// ReportDraw records a drawn singles match.
func (s *RatingService) ReportDraw(ctx context.Context, req ReportDrawRequest) (*MatchResult, error) {
	rec := RecordRequest{
		GroupID:      req.GroupID,
		Kind:         ratingdomain.KindDraw,
		Winners:      []string{req.Player1ID},
		Losers:       []string{req.Player2ID},
		ReportedBy:   req.ReportedBy,
		TournamentID: req.TournamentID,
	}
	return execute(s, ctx, "ReportDraw", req.GroupID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*MatchResult, error], error) {
		return s.recordLogic(ctx, db, rec)
	})
}

// RecordInTx records a match inside the caller's transaction.
func (s *RatingService) RecordInTx(ctx context.Context, db bun.IDB, req RecordRequest) (*MatchResult, error) {
	result, err := s.recordLogic(ctx, db, req)
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

// TracksInTx returns the singles tracks of the given players, filling in a
// baseline track for players who have none.
func (s *RatingService) TracksInTx(ctx context.Context, db bun.IDB, groupID string, playerIDs []string) (map[string]ratingdomain.PlayerTrack, error) {
	baseline := s.baseline
	group, err := s.repo.GetGroup(ctx, db, groupID)
	switch {
	case err == nil:
		baseline = group.BaselineRating
	case !errors.Is(err, ratingdb.ErrNotFound):
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	stored, err := s.repo.GetTracks(ctx, db, groupID, string(ratingdomain.TrackSingles), playerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	out := make(map[string]ratingdomain.PlayerTrack, len(playerIDs))
	for _, id := range playerIDs {
		if row, ok := stored[id]; ok {
			out[id] = trackToDomain(row)
			continue
		}
		out[id] = ratingdomain.NewPlayerTrack(baseline)
	}
	return out, nil
}

// recordLogic is the single path every match takes into the ratings: lock
// the group, fold the match into the stored tracks with the same ledger step
// the replay uses, append it to the log and evaluate achievements.
func (s *RatingService) recordLogic(ctx context.Context, db bun.IDB, req RecordRequest) (results.OperationResult[*MatchResult, error], error) {
	if req.GroupID == "" {
		return results.FailureResult[*MatchResult, error](ErrGroupRequired), nil
	}

	now := s.clock()
	matchID := uuid.New()
	record := ratingdomain.MatchRecord{
		ID:       matchID.String(),
		Kind:     req.Kind,
		Winners:  req.Winners,
		Losers:   req.Losers,
		PlayedAt: now,
	}
	if err := record.Validate(); err != nil {
		return results.FailureResult[*MatchResult, error](err), nil
	}
	if req.Kind == ratingdomain.KindSingles {
		if err := achievementdomain.ValidateSets(req.Sets); err != nil {
			return results.FailureResult[*MatchResult, error](err), nil
		}
	} else if len(req.Sets) > 0 {
		return results.FailureResult[*MatchResult, error](
			fmt.Errorf("%w: sets are only recorded for decisive singles matches", achievementdomain.ErrInvalidSetScores),
		), nil
	}

	group, err := s.lockGroup(ctx, db, req.GroupID, true)
	if err != nil {
		return results.OperationResult[*MatchResult, error]{}, err
	}

	season, err := s.rolloverLogic(ctx, db, group, now)
	if err != nil {
		return results.OperationResult[*MatchResult, error]{}, err
	}

	track := req.Kind.Track()
	participants := record.Participants()
	stored, err := s.repo.GetTracks(ctx, db, group.ID, string(track), participants)
	if err != nil {
		return results.OperationResult[*MatchResult, error]{}, fmt.Errorf("failed to load tracks: %w", err)
	}

	ledger := ratingdomain.NewLedger(group.BaselineRating)
	for id, row := range stored {
		ledger.Seed(track, id, trackToDomain(row))
	}
	before := make(map[string]ratingdomain.PlayerTrack, len(participants))
	for _, id := range participants {
		before[id] = ledger.Get(track, id)
	}

	snap, err := ledger.Apply(record)
	if err != nil {
		return results.FailureResult[*MatchResult, error](err), nil
	}

	after := make(map[string]ratingdomain.PlayerTrack, len(participants))
	rows := make([]ratingdb.PlayerTrack, 0, len(participants))
	for _, id := range participants {
		t := ledger.Get(track, id)
		after[id] = t
		rows = append(rows, trackFromDomain(group.ID, id, track, t))
	}
	if err := s.repo.UpsertTracks(ctx, db, rows); err != nil {
		return results.OperationResult[*MatchResult, error]{}, fmt.Errorf("failed to save tracks: %w", err)
	}

	status := ratingdb.StatusConfirmed
	if group.RequireConfirmation {
		status = ratingdb.StatusPending
	}
	seasonID := season.Active.ID
	match := &ratingdb.Match{
		ID:           matchID,
		GroupID:      group.ID,
		Kind:         string(req.Kind),
		Status:       status,
		Winners:      req.Winners,
		Losers:       req.Losers,
		Sets:         req.Sets,
		EloBefore:    snap.RatingsBefore,
		EloAfter:     snap.RatingsAfter,
		Change:       snap.Change,
		SeasonID:     &seasonID,
		TournamentID: req.TournamentID,
		ReportedBy:   req.ReportedBy,
		PlayedAt:     now,
	}
	if err := s.repo.InsertMatch(ctx, db, match); err != nil {
		return results.OperationResult[*MatchResult, error]{}, fmt.Errorf("failed to save match: %w", err)
	}

	var unlocks []achievementdomain.Unlock
	if group.AchievementsEnabled {
		unlocks, err = s.evaluateAchievements(ctx, db, group.ID, match, before, after)
		if err != nil {
			return results.OperationResult[*MatchResult, error]{}, err
		}
	}

	s.metrics.RecordMatchRecorded(ctx, string(req.Kind))

	return results.SuccessResult[*MatchResult, error](&MatchResult{
		MatchID:       matchID,
		GroupID:       group.ID,
		Kind:          req.Kind,
		Status:        status,
		Winners:       req.Winners,
		Losers:        req.Losers,
		RatingsBefore: snap.RatingsBefore,
		RatingsAfter:  snap.RatingsAfter,
		Change:        snap.Change,
		PlayedAt:      now,
		Unlocks:       unlocks,
	}), nil
}

// lockGroup takes the group's row lock, creating the group first when create
// is set.
func (s *RatingService) lockGroup(ctx context.Context, db bun.IDB, groupID string, create bool) (*ratingdb.Group, error) {
	if create {
		if _, err := s.repo.EnsureGroup(ctx, db, groupID, s.baseline); err != nil {
			return nil, fmt.Errorf("failed to ensure group: %w", err)
		}
	}
	group, err := s.repo.LockGroup(ctx, db, groupID)
	if err != nil {
		if errors.Is(err, ratingdb.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to lock group: %w", err)
	}
	return group, nil
}
