package ratingservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	achievementdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/infrastructure/repositories"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
)

// evaluateAchievements runs the rule tables for a freshly recorded match and
// stores the grants. Draws unlock nothing.
func (s *RatingService) evaluateAchievements(
	ctx context.Context,
	db bun.IDB,
	groupID string,
	match *ratingdb.Match,
	before, after map[string]ratingdomain.PlayerTrack,
) ([]achievementdomain.Unlock, error) {
	kind := ratingdomain.MatchKind(match.Kind)
	if kind == ratingdomain.KindDraw || s.achievements == nil {
		return nil, nil
	}

	participants := make([]string, 0, len(match.Winners)+len(match.Losers))
	participants = append(participants, match.Winners...)
	participants = append(participants, match.Losers...)
	owned, err := s.achievements.GetOwned(ctx, db, groupID, participants)
	if err != nil {
		return nil, fmt.Errorf("failed to load owned achievements: %w", err)
	}

	var unlocks []achievementdomain.Unlock
	switch kind {
	case ratingdomain.KindSingles:
		mc, err := s.singlesContext(ctx, db, groupID, match, before, after, owned)
		if err != nil {
			return nil, err
		}
		unlocks = achievementdomain.EvaluateAchievements(mc)
	case ratingdomain.KindDoubles:
		unlocks = achievementdomain.EvaluateDoublesAchievements(doublesContext(match, before, after, owned))
	}

	return s.grant(ctx, db, groupID, unlocks, &match.ID, nil)
}

// TournamentAchievementsInTx evaluates the tournament rules once against the
// final table and stores the grants. Groups with achievements switched off
// unlock nothing.
func (s *RatingService) TournamentAchievementsInTx(
	ctx context.Context,
	db bun.IDB,
	groupID string,
	tournamentID uuid.UUID,
	tc achievementdomain.TournamentContext,
) ([]achievementdomain.Unlock, error) {
	if s.achievements == nil || len(tc.FinalStandings) == 0 {
		return nil, nil
	}
	group, err := s.repo.GetGroup(ctx, db, groupID)
	switch {
	case err == nil:
		if !group.AchievementsEnabled {
			return nil, nil
		}
	case !errors.Is(err, ratingdb.ErrNotFound):
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	players := make([]string, len(tc.FinalStandings))
	for i, fs := range tc.FinalStandings {
		players[i] = fs.PlayerID
	}
	owned, err := s.achievements.GetOwned(ctx, db, groupID, players)
	if err != nil {
		return nil, fmt.Errorf("failed to load owned achievements: %w", err)
	}
	tc.TournamentID = tournamentID.String()
	tc.Owned = owned

	return s.grant(ctx, db, groupID, achievementdomain.EvaluateTournamentAchievements(tc), nil, &tournamentID)
}

func (s *RatingService) singlesContext(
	ctx context.Context,
	db bun.IDB,
	groupID string,
	match *ratingdb.Match,
	before, after map[string]ratingdomain.PlayerTrack,
	owned achievementdomain.Owned,
) (achievementdomain.MatchContext, error) {
	winner, loser := match.Winners[0], match.Losers[0]

	log, err := s.repo.ListActiveMatches(ctx, db, groupID)
	if err != nil {
		return achievementdomain.MatchContext{}, fmt.Errorf("failed to load match history: %w", err)
	}
	pair := ratingdomain.HeadToHead(matchesToHistory(log), loser, winner)

	rows, err := s.repo.ListTracks(ctx, db, groupID, string(ratingdomain.TrackSingles))
	if err != nil {
		return achievementdomain.MatchContext{}, fmt.Errorf("failed to load standings: %w", err)
	}
	ratings := make(map[string]int, len(rows))
	for _, row := range rows {
		if row.GamesPlayed > 0 {
			ratings[row.PlayerID] = row.Rating
		}
	}

	return achievementdomain.MatchContext{
		WinnerID:                winner,
		LoserID:                 loser,
		WinnerRatingBefore:      before[winner].Rating,
		LoserRatingBefore:       before[loser].Rating,
		WinnerGamesPlayed:       after[winner].GamesPlayed,
		LoserGamesPlayed:        after[loser].GamesPlayed,
		WinnerTotalWins:         after[winner].Wins,
		WinnerStreakBefore:      before[winner].Streak.Current,
		WinnerStreakAfter:       after[winner].Streak.Current,
		LoserStreakAfter:        after[loser].Streak.Current,
		Sets:                    match.Sets,
		TotalMeetings:           pair.Meetings,
		LoserLossStreakVsWinner: pair.LossStreak,
		WinnerRank:              ratingdomain.RankOf(ratings, winner),
		Owned:                   owned,
	}, nil
}

func doublesContext(
	match *ratingdb.Match,
	before, after map[string]ratingdomain.PlayerTrack,
	owned achievementdomain.Owned,
) achievementdomain.DoublesContext {
	player := func(id string) achievementdomain.DoublesPlayer {
		a := after[id]
		return achievementdomain.DoublesPlayer{
			PlayerID:    id,
			GamesAfter:  a.GamesPlayed,
			WinsAfter:   a.Wins,
			StreakAfter: a.Streak.Current,
		}
	}
	team := func(ids []string) ratingdomain.Team {
		return ratingdomain.Team{before[ids[0]].RatingState, before[ids[1]].RatingState}
	}
	return achievementdomain.DoublesContext{
		Winners:          [2]achievementdomain.DoublesPlayer{player(match.Winners[0]), player(match.Winners[1])},
		Losers:           [2]achievementdomain.DoublesPlayer{player(match.Losers[0]), player(match.Losers[1])},
		WinnerTeamRating: ratingdomain.TeamRating(team(match.Winners)),
		LoserTeamRating:  ratingdomain.TeamRating(team(match.Losers)),
		Owned:            owned,
	}
}

// grant stores unlocks and returns the ones the store had not seen.
func (s *RatingService) grant(
	ctx context.Context,
	db bun.IDB,
	groupID string,
	unlocks []achievementdomain.Unlock,
	matchID, tournamentID *uuid.UUID,
) ([]achievementdomain.Unlock, error) {
	if len(unlocks) == 0 {
		return nil, nil
	}
	now := s.clock()
	rows := make([]achievementdb.PlayerAchievement, len(unlocks))
	for i, u := range unlocks {
		rows[i] = achievementdb.PlayerAchievement{
			GroupID:       groupID,
			PlayerID:      u.PlayerID,
			AchievementID: string(u.AchievementID),
			MatchID:       matchID,
			TournamentID:  tournamentID,
			UnlockedAt:    now,
		}
	}
	inserted, err := s.achievements.Grant(ctx, db, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to grant achievements: %w", err)
	}

	granted := make([]achievementdomain.Unlock, 0, len(inserted))
	for _, row := range inserted {
		granted = append(granted, achievementdomain.Unlock{
			AchievementID: achievementdomain.ID(row.AchievementID),
			PlayerID:      row.PlayerID,
		})
		s.metrics.RecordAchievementUnlocked(ctx, row.AchievementID)
	}
	return granted, nil
}
