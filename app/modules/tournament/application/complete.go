package tournamentservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	tournamentdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

// ForceComplete closes a tournament early. Unplayed fixtures are resolved in
// schedule order by the tournament's policy; imposed draws are recorded as
// rating matches so they move ratings like any other draw.
func (s *TournamentService) ForceComplete(ctx context.Context, tournamentID uuid.UUID, requestedBy string) (*CompletionResult, error) {
	return execute(s, ctx, "ForceComplete", tournamentID.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[*CompletionResult, error], error) {
		t, failure, err := s.loadActive(ctx, db, tournamentID)
		if err != nil || failure != nil {
			return outcome[*CompletionResult](failure, err)
		}

		fixtures, err := s.repo.ListFixtures(ctx, db, t.ID)
		if err != nil {
			return results.OperationResult[*CompletionResult, error]{}, fmt.Errorf("failed to load fixtures: %w", err)
		}
		rows, err := s.repo.ListStandings(ctx, db, t.ID)
		if err != nil {
			return results.OperationResult[*CompletionResult, error]{}, fmt.Errorf("failed to load standings: %w", err)
		}
		tracks, err := s.recorder.TracksInTx(ctx, db, t.GroupID, t.ParticipantIDs)
		if err != nil {
			return results.OperationResult[*CompletionResult, error]{}, fmt.Errorf("failed to load ratings: %w", err)
		}

		schedule := make([]tournamentdomain.Fixture, len(fixtures))
		played := make(map[tournamentdomain.PairKey]bool, len(fixtures))
		byKey := make(map[tournamentdomain.PairKey]int, len(fixtures))
		for i, f := range fixtures {
			schedule[i] = fixtureToDomain(f)
			key := schedule[i].Key()
			byKey[key] = i
			played[key] = f.Played()
		}
		ratings := make(map[string]ratingdomain.RatingState, len(tracks))
		for id, tr := range tracks {
			ratings[id] = tr.RatingState
		}

		forced := tournamentdomain.ForceComplete(schedule, played, standingsToDomain(rows), ratings, tournamentdomain.PolicyByName(t.UnplayedPolicy))

		standingIndex := make(map[string]int, len(forced.Standings))
		for i, st := range forced.Standings {
			standingIndex[st.PlayerID] = i
		}

		now := s.clock()
		var (
			resolved    []tournamentdb.Fixture
			drawMatches []*ratingservice.MatchResult
		)
		for _, r := range forced.Resolutions {
			f := &fixtures[byKey[r.Fixture.Key()]]
			f.Outcome = string(r.Outcome)
			f.Forced = true
			f.ResolvedAt = &now

			if r.Outcome == tournamentdomain.OutcomeDraw {
				match, err := s.recorder.RecordInTx(ctx, db, ratingservice.RecordRequest{
					GroupID:      t.GroupID,
					Kind:         ratingdomain.KindDraw,
					Winners:      []string{r.Fixture.Player1ID},
					Losers:       []string{r.Fixture.Player2ID},
					ReportedBy:   requestedBy,
					TournamentID: &t.ID,
				})
				if err != nil {
					if ratingservice.IsFailure(err) {
						return results.FailureResult[*CompletionResult, error](err), nil
					}
					return results.OperationResult[*CompletionResult, error]{}, fmt.Errorf("failed to record forced draw %s: %w", r.Fixture.Key(), err)
				}
				f.MatchID = &match.MatchID
				drawMatches = append(drawMatches, match)
				// the stored ratings are authoritative over the policy's estimate
				for id, rating := range match.RatingsAfter {
					if i, ok := standingIndex[id]; ok {
						forced.Standings[i].EloRating = rating
					}
				}
			}
			resolved = append(resolved, *f)
		}

		if err := s.repo.UpdateFixtures(ctx, db, resolved); err != nil {
			return results.OperationResult[*CompletionResult, error]{}, fmt.Errorf("failed to save fixtures: %w", err)
		}
		if err := s.repo.UpsertStandings(ctx, db, standingsFromDomain(t, forced.Standings)); err != nil {
			return results.OperationResult[*CompletionResult, error]{}, fmt.Errorf("failed to save standings: %w", err)
		}

		completion, err := s.completeLogic(ctx, db, t, fixtures, forced.Standings, true, now)
		if err != nil {
			return results.OperationResult[*CompletionResult, error]{}, err
		}
		completion.Resolutions = forced.Resolutions
		completion.DrawMatches = drawMatches

		s.logger.InfoContext(ctx, "Tournament force completed",
			slog.String("tournament_id", t.ID.String()),
			slog.Int("resolved_fixtures", len(forced.Resolutions)),
			slog.String("policy", t.UnplayedPolicy),
		)
		return results.SuccessResult[*CompletionResult, error](completion), nil
	})
}

// completeLogic marks the tournament completed and runs the tournament
// achievement rules once against the final table.
func (s *TournamentService) completeLogic(
	ctx context.Context,
	db bun.IDB,
	t *tournamentdb.Tournament,
	fixtures []tournamentdb.Fixture,
	table []tournamentdomain.Standing,
	forced bool,
	now time.Time,
) (*CompletionResult, error) {
	if err := s.repo.CompleteTournament(ctx, db, t.ID, now, forced); err != nil {
		return nil, fmt.Errorf("failed to complete tournament: %w", err)
	}
	t.Status = tournamentdb.StatusCompleted
	t.CompletedAt = &now
	t.Forced = forced

	standings := ranked(table, headToHead(fixtures))

	playedFixtures := make(map[string]int, len(t.ParticipantIDs))
	for _, f := range fixtures {
		if f.Played() && !f.Forced {
			playedFixtures[f.Player1ID]++
			playedFixtures[f.Player2ID]++
		}
	}
	final := make([]achievementdomain.FinalStanding, len(standings))
	for i, st := range standings {
		final[i] = achievementdomain.FinalStanding{
			PlayerID: st.PlayerID,
			Wins:     st.Wins,
			Draws:    st.Draws,
			Losses:   st.Losses,
		}
	}

	unlocks, err := s.recorder.TournamentAchievementsInTx(ctx, db, t.GroupID, t.ID, achievementdomain.TournamentContext{
		FinalStandings:     final,
		ScheduledPerPlayer: len(t.ParticipantIDs) - 1,
		PlayedFixtures:     playedFixtures,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate tournament achievements: %w", err)
	}

	s.logger.InfoContext(ctx, "Tournament completed",
		slog.String("tournament_id", t.ID.String()),
		slog.Bool("forced", forced),
		slog.Int("unlocks", len(unlocks)),
	)

	return &CompletionResult{
		Tournament: tournamentView(t),
		Forced:     forced,
		Standings:  standings,
		Unlocks:    unlocks,
	}, nil
}
