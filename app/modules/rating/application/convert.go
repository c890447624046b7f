package ratingservice

import (
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
)

func trackToDomain(row ratingdb.PlayerTrack) ratingdomain.PlayerTrack {
	return ratingdomain.PlayerTrack{
		RatingState: ratingdomain.RatingState{Rating: row.Rating, GamesPlayed: row.GamesPlayed},
		Wins:        row.Wins,
		Losses:      row.Losses,
		Draws:       row.Draws,
		Streak:      ratingdomain.StreakState{Current: row.CurrentStreak, Best: row.BestStreak},
	}
}

func trackFromDomain(groupID, playerID string, track ratingdomain.Track, t ratingdomain.PlayerTrack) ratingdb.PlayerTrack {
	return ratingdb.PlayerTrack{
		GroupID:       groupID,
		PlayerID:      playerID,
		Track:         string(track),
		Rating:        t.Rating,
		GamesPlayed:   t.GamesPlayed,
		Wins:          t.Wins,
		Losses:        t.Losses,
		Draws:         t.Draws,
		CurrentStreak: t.Streak.Current,
		BestStreak:    t.Streak.Best,
	}
}

func tracksToDomain(rows []ratingdb.PlayerTrack) map[string]ratingdomain.PlayerTrack {
	out := make(map[string]ratingdomain.PlayerTrack, len(rows))
	for _, row := range rows {
		out[row.PlayerID] = trackToDomain(row)
	}
	return out
}

func matchToRecord(m ratingdb.Match) ratingdomain.MatchRecord {
	return ratingdomain.MatchRecord{
		ID:       m.ID.String(),
		Kind:     ratingdomain.MatchKind(m.Kind),
		Winners:  m.Winners,
		Losers:   m.Losers,
		PlayedAt: m.PlayedAt,
	}
}

func matchesToHistory(matches []ratingdb.Match) []ratingdomain.MatchRecord {
	history := make([]ratingdomain.MatchRecord, len(matches))
	for i, m := range matches {
		history[i] = matchToRecord(m)
	}
	return history
}

func seasonView(s *ratingdb.Season) SeasonView {
	return SeasonView{ID: s.ID, Name: s.Name, StartDate: s.StartDate, EndDate: s.EndDate}
}

func settingsView(g *ratingdb.Group) *GroupSettings {
	return &GroupSettings{
		GroupID:             g.ID,
		BaselineRating:      g.BaselineRating,
		AchievementsEnabled: g.AchievementsEnabled,
		RequireConfirmation: g.RequireConfirmation,
	}
}
