package ratinghandlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
)

// ------------------------
// Fake Rating Service
// ------------------------

type FakeRatingService struct {
	trace []string

	ReportMatchFunc         func(ctx context.Context, req ratingservice.ReportMatchRequest) (*ratingservice.MatchResult, error)
	ReportDoublesMatchFunc  func(ctx context.Context, req ratingservice.ReportDoublesRequest) (*ratingservice.MatchResult, error)
	ReportDrawFunc          func(ctx context.Context, req ratingservice.ReportDrawRequest) (*ratingservice.MatchResult, error)
	LifecycleFunc           func(ctx context.Context, op, groupID string, matchID uuid.UUID) (*ratingservice.LifecycleResult, error)
	ReplayGroupFunc         func(ctx context.Context, groupID string) (*ratingservice.ReplaySummary, error)
	UpdateGroupSettingsFunc func(ctx context.Context, groupID string, update ratingservice.GroupSettingsUpdate) (*ratingservice.GroupSettings, error)
}

func NewFakeRatingService() *FakeRatingService {
	return &FakeRatingService{trace: []string{}}
}

func (f *FakeRatingService) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Service Interface Implementation ---

func (f *FakeRatingService) ReportMatch(ctx context.Context, req ratingservice.ReportMatchRequest) (*ratingservice.MatchResult, error) {
	f.record("ReportMatch")
	if f.ReportMatchFunc != nil {
		return f.ReportMatchFunc(ctx, req)
	}
	return &ratingservice.MatchResult{GroupID: req.GroupID}, nil
}

func (f *FakeRatingService) ReportDoublesMatch(ctx context.Context, req ratingservice.ReportDoublesRequest) (*ratingservice.MatchResult, error) {
	f.record("ReportDoublesMatch")
	if f.ReportDoublesMatchFunc != nil {
		return f.ReportDoublesMatchFunc(ctx, req)
	}
	return &ratingservice.MatchResult{GroupID: req.GroupID}, nil
}

func (f *FakeRatingService) ReportDraw(ctx context.Context, req ratingservice.ReportDrawRequest) (*ratingservice.MatchResult, error) {
	f.record("ReportDraw")
	if f.ReportDrawFunc != nil {
		return f.ReportDrawFunc(ctx, req)
	}
	return &ratingservice.MatchResult{GroupID: req.GroupID, Kind: ratingdomain.KindDraw}, nil
}

func (f *FakeRatingService) lifecycle(ctx context.Context, op, groupID string, matchID uuid.UUID) (*ratingservice.LifecycleResult, error) {
	f.record(op)
	if f.LifecycleFunc != nil {
		return f.LifecycleFunc(ctx, op, groupID, matchID)
	}
	return &ratingservice.LifecycleResult{GroupID: groupID, MatchID: matchID}, nil
}

func (f *FakeRatingService) ConfirmMatch(ctx context.Context, groupID string, matchID uuid.UUID) (*ratingservice.LifecycleResult, error) {
	return f.lifecycle(ctx, "ConfirmMatch", groupID, matchID)
}

func (f *FakeRatingService) DisputeMatch(ctx context.Context, groupID string, matchID uuid.UUID) (*ratingservice.LifecycleResult, error) {
	return f.lifecycle(ctx, "DisputeMatch", groupID, matchID)
}

func (f *FakeRatingService) UndoMatch(ctx context.Context, groupID string, matchID uuid.UUID) (*ratingservice.LifecycleResult, error) {
	return f.lifecycle(ctx, "UndoMatch", groupID, matchID)
}

func (f *FakeRatingService) ReplayGroup(ctx context.Context, groupID string) (*ratingservice.ReplaySummary, error) {
	f.record("ReplayGroup")
	if f.ReplayGroupFunc != nil {
		return f.ReplayGroupFunc(ctx, groupID)
	}
	return &ratingservice.ReplaySummary{GroupID: groupID}, nil
}

func (f *FakeRatingService) RolloverSeasonIfExpired(ctx context.Context, groupID string, now time.Time) (*ratingservice.RolloverResult, error) {
	f.record("RolloverSeasonIfExpired")
	return &ratingservice.RolloverResult{GroupID: groupID}, nil
}

func (f *FakeRatingService) UpdateGroupSettings(ctx context.Context, groupID string, update ratingservice.GroupSettingsUpdate) (*ratingservice.GroupSettings, error) {
	f.record("UpdateGroupSettings")
	if f.UpdateGroupSettingsFunc != nil {
		return f.UpdateGroupSettingsFunc(ctx, groupID, update)
	}
	return &ratingservice.GroupSettings{GroupID: groupID}, nil
}

func (f *FakeRatingService) GetGroupSettings(ctx context.Context, groupID string) (*ratingservice.GroupSettings, error) {
	f.record("GetGroupSettings")
	return &ratingservice.GroupSettings{GroupID: groupID}, nil
}

func (f *FakeRatingService) GetLeaderboard(ctx context.Context, groupID string, track ratingdomain.Track) ([]ratingservice.LeaderboardEntry, error) {
	f.record("GetLeaderboard")
	return nil, nil
}

func (f *FakeRatingService) RatingHistoryChart(ctx context.Context, groupID, playerID string) ([]byte, error) {
	f.record("RatingHistoryChart")
	return nil, nil
}

func (f *FakeRatingService) ListGroupIDs(ctx context.Context) ([]string, error) {
	f.record("ListGroupIDs")
	return nil, nil
}

// --- Accessors for assertions ---

func (f *FakeRatingService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ ratingservice.Service = (*FakeRatingService)(nil)
