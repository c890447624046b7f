package tournamentservice

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the contract for tournament operations. Mutations lock the
// tournament row and record matches through the rating service inside the
// same transaction.
type Service interface {
	// --- MUTATIONS ---

	CreateTournament(ctx context.Context, req CreateTournamentRequest) (*CreateResult, error)

	// ReportFixture records a played fixture and completes the tournament
	// when it was the last one.
	ReportFixture(ctx context.Context, req ReportFixtureRequest) (*FixtureResult, error)

	// ForceComplete resolves every unplayed fixture through the tournament's
	// policy and completes it.
	ForceComplete(ctx context.Context, tournamentID uuid.UUID, requestedBy string) (*CompletionResult, error)

	// --- READS ---

	GetStandings(ctx context.Context, tournamentID uuid.UUID) (*StandingsView, error)
	ListTournaments(ctx context.Context, groupID string) ([]TournamentView, error)

	// ExportStandings renders the table and schedule as an XLSX workbook.
	ExportStandings(ctx context.Context, tournamentID uuid.UUID) ([]byte, error)
}

var _ Service = (*TournamentService)(nil)
