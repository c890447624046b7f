package tournamentservice

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	tournamentdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

// ReportFixture records the fixture's singles match through the rating
// service, updates the table and completes the tournament after the last
// fixture. A played draw is rated as a draw and carries no sets.
func (s *TournamentService) ReportFixture(ctx context.Context, req ReportFixtureRequest) (*FixtureResult, error) {
	return execute(s, ctx, "ReportFixture", req.TournamentID.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[*FixtureResult, error], error) {
		if req.WinnerID == req.LoserID {
			return results.FailureResult[*FixtureResult, error](ErrSamePlayerBothSides), nil
		}

		t, failure, err := s.loadActive(ctx, db, req.TournamentID)
		if err != nil || failure != nil {
			return outcome[*FixtureResult](failure, err)
		}
		for _, id := range []string{req.WinnerID, req.LoserID} {
			if !slices.Contains(t.ParticipantIDs, id) {
				return results.FailureResult[*FixtureResult, error](fmt.Errorf("%w: %s", ErrNotATournamentPlayer, id)), nil
			}
		}

		fixtures, err := s.repo.ListFixtures(ctx, db, t.ID)
		if err != nil {
			return results.OperationResult[*FixtureResult, error]{}, fmt.Errorf("failed to load fixtures: %w", err)
		}
		key := tournamentdomain.PairKeyOf(req.WinnerID, req.LoserID)
		idx := slices.IndexFunc(fixtures, func(f tournamentdb.Fixture) bool {
			return f.PairLow == key.Low && f.PairHigh == key.High
		})
		if idx < 0 {
			return results.FailureResult[*FixtureResult, error](fmt.Errorf("%w: %s", ErrFixtureNotFound, key)), nil
		}
		if fixtures[idx].Played() {
			return results.FailureResult[*FixtureResult, error](fmt.Errorf("%w: %s", ErrFixtureAlreadyPlayed, key)), nil
		}

		kind := ratingdomain.KindSingles
		if req.Draw {
			kind = ratingdomain.KindDraw
		}
		match, err := s.recorder.RecordInTx(ctx, db, ratingservice.RecordRequest{
			GroupID:      t.GroupID,
			Kind:         kind,
			Winners:      []string{req.WinnerID},
			Losers:       []string{req.LoserID},
			Sets:         req.Sets,
			ReportedBy:   req.ReportedBy,
			TournamentID: &t.ID,
		})
		if err != nil {
			if ratingservice.IsFailure(err) {
				return results.FailureResult[*FixtureResult, error](err), nil
			}
			return results.OperationResult[*FixtureResult, error]{}, fmt.Errorf("failed to record match: %w", err)
		}

		winnerSets, loserSets := countSets(req.Sets)
		now := s.clock()
		fixture := &fixtures[idx]
		fixture.Outcome = tournamentdb.OutcomeWin
		fixture.WinnerID = req.WinnerID
		if req.Draw {
			fixture.Outcome = tournamentdb.OutcomeDraw
			fixture.WinnerID = ""
		}
		fixture.WinnerSets = winnerSets
		fixture.LoserSets = loserSets
		fixture.MatchID = &match.MatchID
		fixture.ResolvedAt = &now
		if err := s.repo.UpdateFixtures(ctx, db, []tournamentdb.Fixture{*fixture}); err != nil {
			return results.OperationResult[*FixtureResult, error]{}, fmt.Errorf("failed to save fixture: %w", err)
		}

		rows, err := s.repo.ListStandings(ctx, db, t.ID)
		if err != nil {
			return results.OperationResult[*FixtureResult, error]{}, fmt.Errorf("failed to load standings: %w", err)
		}
		table := standingsToDomain(rows)
		wi := slices.IndexFunc(table, func(st tournamentdomain.Standing) bool { return st.PlayerID == req.WinnerID })
		li := slices.IndexFunc(table, func(st tournamentdomain.Standing) bool { return st.PlayerID == req.LoserID })
		if wi < 0 || li < 0 {
			return results.OperationResult[*FixtureResult, error]{}, fmt.Errorf("standings missing for %s", key)
		}
		if req.Draw {
			tournamentdomain.RecordDraw(&table[wi], &table[li], winnerSets, loserSets)
		} else {
			tournamentdomain.RecordWin(&table[wi], &table[li], winnerSets, loserSets)
		}
		table[wi].EloRating = match.RatingsAfter[req.WinnerID]
		table[li].EloRating = match.RatingsAfter[req.LoserID]

		changed := []tournamentdb.Standing{}
		for _, st := range standingsFromDomain(t, table) {
			if st.PlayerID == req.WinnerID || st.PlayerID == req.LoserID {
				changed = append(changed, st)
			}
		}
		if err := s.repo.UpsertStandings(ctx, db, changed); err != nil {
			return results.OperationResult[*FixtureResult, error]{}, fmt.Errorf("failed to save standings: %w", err)
		}

		h2h := headToHead(fixtures)
		res := &FixtureResult{
			Tournament: tournamentView(t),
			Match:      match,
			Remaining:  remaining(fixtures),
			Standings:  ranked(table, h2h),
		}

		if res.Remaining == 0 {
			completion, err := s.completeLogic(ctx, db, t, fixtures, table, false, now)
			if err != nil {
				return results.OperationResult[*FixtureResult, error]{}, err
			}
			res.Completion = completion
			res.Tournament = completion.Tournament
		}

		return results.SuccessResult[*FixtureResult, error](res), nil
	})
}

// loadActive locks the tournament and rejects unknown or completed ones.
func (s *TournamentService) loadActive(ctx context.Context, db bun.IDB, id uuid.UUID) (*tournamentdb.Tournament, error, error) {
	t, err := s.repo.LockTournament(ctx, db, id)
	if err != nil {
		if errors.Is(err, tournamentdb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, id), nil
		}
		return nil, nil, fmt.Errorf("failed to lock tournament: %w", err)
	}
	if t.Status == tournamentdb.StatusCompleted {
		return nil, fmt.Errorf("%w: %s", ErrTournamentCompleted, id), nil
	}
	return t, nil, nil
}

func outcome[S any](failure, err error) (results.OperationResult[S, error], error) {
	if err != nil {
		return results.OperationResult[S, error]{}, err
	}
	return results.FailureResult[S, error](failure), nil
}

// countSets splits oriented set scores into sets taken by each side.
func countSets(sets []achievementdomain.SetScore) (winner, loser int) {
	for _, set := range sets {
		if set.Winner > set.Loser {
			winner++
		} else {
			loser++
		}
	}
	return winner, loser
}
