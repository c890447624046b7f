package tournamentservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	tournamentdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

// GetStandings returns the table sorted by points, head-to-head, set
// differential and rating, plus any circular ties among level players.
func (s *TournamentService) GetStandings(ctx context.Context, tournamentID uuid.UUID) (*StandingsView, error) {
	return execute(s, ctx, "GetStandings", tournamentID.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[*StandingsView, error], error) {
		view, failure, err := s.standingsView(ctx, db, tournamentID)
		if err != nil || failure != nil {
			return outcome[*StandingsView](failure, err)
		}
		return results.SuccessResult[*StandingsView, error](view), nil
	})
}

func (s *TournamentService) standingsView(ctx context.Context, db bun.IDB, id uuid.UUID) (*StandingsView, error, error) {
	t, err := s.repo.GetTournament(ctx, db, id)
	if err != nil {
		if errors.Is(err, tournamentdb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, id), nil
		}
		return nil, nil, fmt.Errorf("failed to load tournament: %w", err)
	}
	fixtures, err := s.repo.ListFixtures(ctx, db, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	rows, err := s.repo.ListStandings(ctx, db, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load standings: %w", err)
	}

	table := standingsToDomain(rows)
	h2h := headToHead(fixtures)
	return &StandingsView{
		Tournament:   tournamentView(t),
		Fixtures:     fixtureViews(fixtures),
		Standings:    ranked(table, h2h),
		CircularTies: tournamentdomain.CircularTies(table, h2h),
	}, nil, nil
}

// ListTournaments returns a group's tournaments, newest first.
func (s *TournamentService) ListTournaments(ctx context.Context, groupID string) ([]TournamentView, error) {
	return execute(s, ctx, "ListTournaments", groupID, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]TournamentView, error], error) {
		if groupID == "" {
			return results.FailureResult[[]TournamentView, error](ErrGroupRequired), nil
		}
		rows, err := s.repo.ListTournaments(ctx, db, groupID)
		if err != nil {
			return results.OperationResult[[]TournamentView, error]{}, fmt.Errorf("failed to list tournaments: %w", err)
		}
		out := make([]TournamentView, len(rows))
		for i := range rows {
			out[i] = tournamentView(&rows[i])
		}
		return results.SuccessResult[[]TournamentView, error](out), nil
	})
}
