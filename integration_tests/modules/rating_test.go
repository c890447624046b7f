//go:build integration

package modules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ratingevents "github.com/Black-And-White-Club/pingpong-bot/app/events/rating"
	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	"github.com/Black-And-White-Club/pingpong-bot/integration_tests/testutils"
)

var straightSets = []achievementdomain.SetScore{{Winner: 11, Loser: 7}, {Winner: 11, Loser: 9}}

func TestRatingService_ReportUndoReplay(t *testing.T) {
	h := newHarness(t)
	svc := h.rating.RatingService
	group := groupID()

	first, err := svc.ReportMatch(h.ctx, ratingservice.ReportMatchRequest{GroupID: group, WinnerID: "alice", LoserID: "bob", Sets: straightSets})
	require.NoError(t, err)
	assert.Equal(t, 1020, first.RatingsAfter["alice"])
	assert.Equal(t, 980, first.RatingsAfter["bob"])

	second, err := svc.ReportMatch(h.ctx, ratingservice.ReportMatchRequest{GroupID: group, WinnerID: "alice", LoserID: "bob", Sets: straightSets})
	require.NoError(t, err)
	assert.Equal(t, 1038, second.RatingsAfter["alice"])
	assert.Equal(t, 962, second.RatingsAfter["bob"])

	board, err := svc.GetLeaderboard(h.ctx, group, ratingdomain.TrackSingles)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "alice", board[0].PlayerID)
	assert.Equal(t, 2, board[0].Wins)

	_, err = svc.UndoMatch(h.ctx, group, second.MatchID)
	require.NoError(t, err)

	board, err = svc.GetLeaderboard(h.ctx, group, ratingdomain.TrackSingles)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, 1020, board[0].Rating)
	assert.Equal(t, 980, board[1].Rating)

	summary, err := svc.ReplayGroup(h.ctx, group)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MatchesReplayed)
	assert.Empty(t, summary.Drift)
}

func TestRatingHandlers_MatchReportOverBus(t *testing.T) {
	h := newHarness(t)
	group := groupID()
	capture := testutils.CaptureTopics(h.ctx, t, h.bus, ratingevents.MatchRecordedV1, ratingevents.MatchReportFailedV1)

	h.publish(t, ratingevents.MatchReportRequestedV1, &ratingevents.MatchReportRequestedPayloadV1{
		GroupID:  group,
		WinnerID: "alice",
		LoserID:  "bob",
		Sets:     []ratingevents.SetScoreV1{{Winner: 11, Loser: 3}, {Winner: 11, Loser: 4}},
	})
	h.publish(t, ratingevents.MatchReportRequestedV1, &ratingevents.MatchReportRequestedPayloadV1{
		GroupID:  group,
		WinnerID: "alice",
		LoserID:  "alice",
	})

	recorded := testutils.WaitFor(t, capture, ratingevents.MatchRecordedV1, 1, func(p ratingevents.MatchRecordedPayloadV1) bool {
		return p.GroupID == group
	})
	assert.Equal(t, []string{"alice"}, recorded[0].Winners)
	assert.Equal(t, 1020, recorded[0].RatingsAfter["alice"])
	assert.Equal(t, 20, recorded[0].Change)

	failed := testutils.WaitFor(t, capture, ratingevents.MatchReportFailedV1, 1, func(p ratingevents.MatchReportFailedPayloadV1) bool {
		return p.GroupID == group
	})
	assert.NotEmpty(t, failed[0].Reason)
}
