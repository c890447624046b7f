package tournamentservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"

	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

const (
	standingsSheet = "Standings"
	fixturesSheet  = "Fixtures"
)

// ExportStandings renders the sorted table and the schedule as an XLSX
// workbook with one sheet each.
func (s *TournamentService) ExportStandings(ctx context.Context, tournamentID uuid.UUID) ([]byte, error) {
	return execute(s, ctx, "ExportStandings", tournamentID.String(), func(ctx context.Context, db bun.IDB) (results.OperationResult[[]byte, error], error) {
		view, failure, err := s.standingsView(ctx, db, tournamentID)
		if err != nil || failure != nil {
			return outcome[[]byte](failure, err)
		}
		data, err := renderWorkbook(view)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to render workbook: %w", err)
		}
		return results.SuccessResult[[]byte, error](data), nil
	})
}

func renderWorkbook(view *StandingsView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), standingsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(fixturesSheet); err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	standings := [][]any{{"Rank", "Player", "Points", "Wins", "Draws", "Losses", "Sets Won", "Sets Lost", "Set Diff", "Rating"}}
	for _, st := range view.Standings {
		standings = append(standings, []any{
			st.Rank, st.PlayerID, st.Points, st.Wins, st.Draws, st.Losses,
			st.SetsWon, st.SetsLost, st.SetDifferential(), st.EloRating,
		})
	}
	fixtures := [][]any{{"Round", "Player 1", "Player 2", "Result", "Winner", "Forced"}}
	for _, fx := range view.Fixtures {
		result := fx.Outcome
		if !fx.Played {
			result = "unplayed"
		}
		fixtures = append(fixtures, []any{fx.Round, fx.Player1ID, fx.Player2ID, result, fx.WinnerID, fx.Forced})
	}

	for sheet, rows := range map[string][][]any{standingsSheet: standings, fixturesSheet: fixtures} {
		if err := writeRows(f, sheet, rows, header); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}
