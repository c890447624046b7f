package ratinghandlers

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	achievementevents "github.com/Black-And-White-Club/pingpong-bot/app/events/achievement"
	ratingevents "github.com/Black-And-White-Club/pingpong-bot/app/events/rating"
	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/handlerwrapper"
)

func newTestHandlers(svc *FakeRatingService) Handlers {
	return NewRatingHandlers(svc, slog.New(slog.DiscardHandler), noop.NewTracerProvider().Tracer("test"))
}

func topics(results []handlerwrapper.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Topic
	}
	return out
}

func TestHandleMatchReportRequested(t *testing.T) {
	matchID := uuid.New()
	playedAt := time.Date(2025, time.April, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		setupService func(*FakeRatingService)
		payload      *ratingevents.MatchReportRequestedPayloadV1
		wantTopics   []string
		wantErr      bool
	}{
		{
			name: "recorded with unlocks",
			setupService: func(f *FakeRatingService) {
				f.ReportMatchFunc = func(ctx context.Context, req ratingservice.ReportMatchRequest) (*ratingservice.MatchResult, error) {
					if len(req.Sets) != 2 || req.Sets[0] != (achievementdomain.SetScore{Winner: 11, Loser: 3}) {
						return nil, errors.New("sets not forwarded")
					}
					return &ratingservice.MatchResult{
						MatchID:      matchID,
						GroupID:      req.GroupID,
						Kind:         ratingdomain.KindSingles,
						Status:       "confirmed",
						Winners:      []string{req.WinnerID},
						Losers:       []string{req.LoserID},
						RatingsAfter: map[string]int{"alice": 1020, "bob": 980},
						Change:       20,
						PlayedAt:     playedAt,
						Unlocks: []achievementdomain.Unlock{
							{AchievementID: achievementdomain.FirstBlood, PlayerID: "alice"},
						},
					}, nil
				}
			},
			payload: &ratingevents.MatchReportRequestedPayloadV1{
				GroupID:  "g1",
				WinnerID: "alice",
				LoserID:  "bob",
				Sets:     []ratingevents.SetScoreV1{{Winner: 11, Loser: 3}, {Winner: 11, Loser: 5}},
			},
			wantTopics: []string{ratingevents.MatchRecordedV1, achievementevents.AchievementUnlockedV1},
		},
		{
			name: "domain failure becomes failed event",
			setupService: func(f *FakeRatingService) {
				f.ReportMatchFunc = func(ctx context.Context, req ratingservice.ReportMatchRequest) (*ratingservice.MatchResult, error) {
					return nil, ratingdomain.ErrInvalidMatch
				}
			},
			payload:    &ratingevents.MatchReportRequestedPayloadV1{GroupID: "g1", WinnerID: "alice", LoserID: "alice"},
			wantTopics: []string{ratingevents.MatchReportFailedV1},
		},
		{
			name: "infrastructure error is retried",
			setupService: func(f *FakeRatingService) {
				f.ReportMatchFunc = func(ctx context.Context, req ratingservice.ReportMatchRequest) (*ratingservice.MatchResult, error) {
					return nil, errors.New("database error")
				}
			},
			payload: &ratingevents.MatchReportRequestedPayloadV1{GroupID: "g1", WinnerID: "alice", LoserID: "bob"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeRatingService()
			tt.setupService(svc)
			h := newTestHandlers(svc)

			results, err := h.HandleMatchReportRequested(context.Background(), tt.payload)

			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, results)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTopics, topics(results))
		})
	}
}

func TestHandleMatchRecordedPayload(t *testing.T) {
	matchID := uuid.New()
	svc := NewFakeRatingService()
	svc.ReportDoublesMatchFunc = func(ctx context.Context, req ratingservice.ReportDoublesRequest) (*ratingservice.MatchResult, error) {
		return &ratingservice.MatchResult{
			MatchID: matchID,
			GroupID: req.GroupID,
			Kind:    ratingdomain.KindDoubles,
			Winners: req.Winners[:],
			Losers:  req.Losers[:],
			Change:  12,
		}, nil
	}
	h := newTestHandlers(svc)

	results, err := h.HandleDoublesMatchReportRequested(context.Background(), &ratingevents.DoublesMatchReportRequestedPayloadV1{
		GroupID:   "g1",
		WinnerIDs: [2]string{"a", "b"},
		LoserIDs:  [2]string{"c", "d"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	p, ok := results[0].Payload.(*ratingevents.MatchRecordedPayloadV1)
	require.True(t, ok)
	assert.Equal(t, matchID.String(), p.MatchID)
	assert.Equal(t, "doubles", p.Kind)
	assert.Equal(t, []string{"a", "b"}, p.Winners)
	assert.Equal(t, 12, p.Change)
}

func TestHandleDrawReportRequested(t *testing.T) {
	svc := NewFakeRatingService()
	h := newTestHandlers(svc)

	results, err := h.HandleDrawReportRequested(context.Background(), &ratingevents.DrawReportRequestedPayloadV1{GroupID: "g1", Player1ID: "a", Player2ID: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{ratingevents.MatchRecordedV1}, topics(results))
	assert.Equal(t, []string{"ReportDraw"}, svc.Trace())
}

func TestHandleMatchLifecycle(t *testing.T) {
	matchID := uuid.New()

	tests := []struct {
		name       string
		call       func(h Handlers, ctx context.Context, p *ratingevents.MatchLifecycleRequestedPayloadV1) ([]handlerwrapper.Result, error)
		matchID    string
		serviceErr error
		wantTopic  string
		wantTrace  []string
		wantErr    bool
	}{
		{
			name:      "confirm",
			call:      Handlers.HandleMatchConfirmRequested,
			matchID:   matchID.String(),
			wantTopic: ratingevents.MatchConfirmedV1,
			wantTrace: []string{"ConfirmMatch"},
		},
		{
			name:      "dispute",
			call:      Handlers.HandleMatchDisputeRequested,
			matchID:   matchID.String(),
			wantTopic: ratingevents.MatchDisputedV1,
			wantTrace: []string{"DisputeMatch"},
		},
		{
			name:      "undo",
			call:      Handlers.HandleMatchUndoRequested,
			matchID:   matchID.String(),
			wantTopic: ratingevents.MatchUndoneV1,
			wantTrace: []string{"UndoMatch"},
		},
		{
			name:      "invalid match id never reaches the service",
			call:      Handlers.HandleMatchUndoRequested,
			matchID:   "not-a-uuid",
			wantTopic: ratingevents.MatchLifecycleFailedV1,
			wantTrace: []string{},
		},
		{
			name:       "not pending",
			call:       Handlers.HandleMatchConfirmRequested,
			matchID:    matchID.String(),
			serviceErr: ratingservice.ErrMatchNotPending,
			wantTopic:  ratingevents.MatchLifecycleFailedV1,
			wantTrace:  []string{"ConfirmMatch"},
		},
		{
			name:       "infrastructure error",
			call:       Handlers.HandleMatchDisputeRequested,
			matchID:    matchID.String(),
			serviceErr: errors.New("timeout"),
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeRatingService()
			svc.LifecycleFunc = func(ctx context.Context, op, groupID string, id uuid.UUID) (*ratingservice.LifecycleResult, error) {
				if tt.serviceErr != nil {
					return nil, tt.serviceErr
				}
				return &ratingservice.LifecycleResult{GroupID: groupID, MatchID: id, Status: op}, nil
			}
			h := newTestHandlers(svc)

			results, err := tt.call(h, context.Background(), &ratingevents.MatchLifecycleRequestedPayloadV1{GroupID: "g1", MatchID: tt.matchID})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.wantTopic, results[0].Topic)
			assert.Equal(t, tt.wantTrace, svc.Trace())
		})
	}
}

func TestHandleGroupReplayRequested(t *testing.T) {
	svc := NewFakeRatingService()
	svc.ReplayGroupFunc = func(ctx context.Context, groupID string) (*ratingservice.ReplaySummary, error) {
		return &ratingservice.ReplaySummary{
			GroupID:         groupID,
			MatchesReplayed: 7,
			Drift: []ratingdomain.TrackDrift{{
				PlayerID: "bob",
				Track:    ratingdomain.TrackSingles,
				Stored:   ratingdomain.NewPlayerTrack(1077),
				Replayed: ratingdomain.NewPlayerTrack(1000),
			}},
		}, nil
	}
	h := newTestHandlers(svc)

	results, err := h.HandleGroupReplayRequested(context.Background(), &ratingevents.GroupReplayRequestedPayloadV1{GroupID: "g1"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	p := results[0].Payload.(*ratingevents.GroupReplayedPayloadV1)
	assert.Equal(t, 7, p.MatchesReplayed)
	assert.Equal(t, []ratingevents.PlayerDriftV1{{PlayerID: "bob", Track: "singles", StoredRating: 1077, ReplayedRating: 1000}}, p.Drift)

	svc.ReplayGroupFunc = func(ctx context.Context, groupID string) (*ratingservice.ReplaySummary, error) {
		return nil, ratingservice.ErrGroupNotFound
	}
	results, err = h.HandleGroupReplayRequested(context.Background(), &ratingevents.GroupReplayRequestedPayloadV1{GroupID: "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{ratingevents.GroupRequestFailedV1}, topics(results))
}

func TestHandleGroupSettingsUpdateRequested(t *testing.T) {
	baseline := 1200
	svc := NewFakeRatingService()
	svc.UpdateGroupSettingsFunc = func(ctx context.Context, groupID string, update ratingservice.GroupSettingsUpdate) (*ratingservice.GroupSettings, error) {
		if *update.BaselineRating < ratingdomain.RatingFloor {
			return nil, ratingservice.ErrInvalidSettings
		}
		return &ratingservice.GroupSettings{GroupID: groupID, BaselineRating: *update.BaselineRating}, nil
	}
	h := newTestHandlers(svc)

	results, err := h.HandleGroupSettingsUpdateRequested(context.Background(), &ratingevents.GroupSettingsUpdateRequestedPayloadV1{GroupID: "g1", BaselineRating: &baseline})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1200, results[0].Payload.(*ratingevents.GroupSettingsUpdatedPayloadV1).BaselineRating)

	low := 5
	results, err = h.HandleGroupSettingsUpdateRequested(context.Background(), &ratingevents.GroupSettingsUpdateRequestedPayloadV1{GroupID: "g1", BaselineRating: &low})
	require.NoError(t, err)
	assert.Equal(t, []string{ratingevents.GroupRequestFailedV1}, topics(results))
}

func TestRolledOverPayload(t *testing.T) {
	assert.Nil(t, RolledOverPayload(&ratingservice.RolloverResult{GroupID: "g1"}))

	closed := ratingservice.SeasonView{Name: "Spring 2025"}
	p := RolledOverPayload(&ratingservice.RolloverResult{
		GroupID:    "g1",
		RolledOver: true,
		Closed:     &closed,
		Active:     ratingservice.SeasonView{Name: "Summer 2025"},
		Snapshots: []ratingdomain.SeasonSnapshot{
			{MemberStanding: ratingdomain.MemberStanding{PlayerID: "alice"}, Rank: 1},
			{MemberStanding: ratingdomain.MemberStanding{PlayerID: "bob"}, Rank: 2},
		},
	})
	require.NotNil(t, p)
	assert.Equal(t, "alice", p.ChampionID)
	assert.Equal(t, 2, p.PlayersReset)
	assert.Equal(t, "Summer 2025", p.OpenedSeason)
}
