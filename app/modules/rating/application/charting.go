package ratingservice

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

// ChartPalette colours a rating chart.
type ChartPalette struct {
	Background  drawing.Color
	PrimaryLine drawing.Color
	AccentLine  drawing.Color
	TextColor   drawing.Color
}

// DefaultPalette is the palette used by RatingHistoryChart.
var DefaultPalette = ChartPalette{
	Background:  drawing.Color{R: 0x12, G: 0x1a, B: 0x17, A: 0xff},
	PrimaryLine: drawing.Color{R: 0x3f, G: 0xa3, B: 0x6b, A: 0xff},
	AccentLine:  drawing.Color{R: 0xe3, G: 0xb5, B: 0x3b, A: 0xff},
	TextColor:   drawing.Color{R: 0xe8, G: 0xe8, B: 0xe8, A: 0xff},
}

// RatingPoint is a player's singles rating after one match.
type RatingPoint struct {
	PlayedAt time.Time
	Rating   int
}

// RatingHistoryChart renders a PNG of the player's singles rating over the
// active log.
func (s *RatingService) RatingHistoryChart(ctx context.Context, groupID, playerID string) ([]byte, error) {
	return execute(s, ctx, "RatingHistoryChart", playerID, func(ctx context.Context, db bun.IDB) (results.OperationResult[[]byte, error], error) {
		if groupID == "" {
			return results.FailureResult[[]byte, error](ErrGroupRequired), nil
		}
		log, err := s.repo.ListActiveMatches(ctx, db, groupID)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to load match log: %w", err)
		}

		var points []RatingPoint
		for _, m := range log {
			if ratingdomain.MatchKind(m.Kind).Track() != ratingdomain.TrackSingles {
				continue
			}
			if rating, ok := m.EloAfter[playerID]; ok {
				points = append(points, RatingPoint{PlayedAt: m.PlayedAt, Rating: rating})
			}
		}

		png, err := GenerateRatingHistoryChart(points, DefaultPalette)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to render chart: %w", err)
		}
		return results.SuccessResult[[]byte, error](png), nil
	})
}

// GenerateRatingHistoryChart produces a PNG line chart of rating points.
func GenerateRatingHistoryChart(points []RatingPoint, palette ChartPalette) ([]byte, error) {
	// go-chart needs two points to draw a line
	if len(points) < 2 {
		return renderNoDataPlaceholder(palette)
	}

	xValues := make([]time.Time, len(points))
	yValues := make([]float64, len(points))
	low, high := points[0].Rating, points[0].Rating
	for i, p := range points {
		xValues[i] = p.PlayedAt
		yValues[i] = float64(p.Rating)
		low, high = min(low, p.Rating), max(high, p.Rating)
	}

	// explicit ranges; go-chart rejects a zero-width axis
	first, last := points[0].PlayedAt, points[len(points)-1].PlayedAt
	if !last.After(first) {
		last = first.Add(time.Hour)
	}

	mainSeries := chart.TimeSeries{
		Name:    "Rating",
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: palette.PrimaryLine,
			StrokeWidth: 2,
			DotWidth:    4,
			DotColor:    palette.AccentLine,
		},
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(first),
				Max: chart.TimeToFloat64(last),
			},
		},
		YAxis: chart.YAxis{
			Name: "Rating",
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
			Range: &chart.ContinuousRange{
				Min: float64(low - 25),
				Max: float64(high + 25),
			},
		},
		Series: []chart.Series{mainSeries},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "Not enough matches to chart"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{Style: chart.Style{Hidden: true}, Range: &chart.ContinuousRange{Min: 1, Max: 2}},
		YAxis: chart.YAxis{Style: chart.Style{Hidden: true}, Range: &chart.ContinuousRange{Min: 1, Max: 2}},
		// go-chart refuses to render without a visible series
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{1, 2},
				YValues: []float64{1, 1},
				Style:   chart.Style{StrokeColor: drawing.ColorTransparent},
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
