// Package server exposes the ops HTTP surface: health, metrics, rating
// charts and tournament exports.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	tournamentservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/application"
)

const healthTimeout = 5 * time.Second

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// RatingReader is the part of the rating service the ops server reads.
type RatingReader interface {
	GetLeaderboard(ctx context.Context, groupID string, track ratingdomain.Track) ([]ratingservice.LeaderboardEntry, error)
	RatingHistoryChart(ctx context.Context, groupID, playerID string) ([]byte, error)
}

// TournamentReader is the part of the tournament service the ops server reads.
type TournamentReader interface {
	GetStandings(ctx context.Context, tournamentID uuid.UUID) (*tournamentservice.StandingsView, error)
	ExportStandings(ctx context.Context, tournamentID uuid.UUID) ([]byte, error)
}

// Deps are the collaborators of the ops router. Nil readers leave their
// routes unmounted.
type Deps struct {
	Logger             *slog.Logger
	Registry           *prometheus.Registry
	Checks             map[string]HealthChecker
	Ratings            RatingReader
	Tournaments        TournamentReader
	ChartRatePerMinute int
}

type handlers struct {
	logger      *slog.Logger
	checks      map[string]HealthChecker
	ratings     RatingReader
	tournaments TournamentReader
}

// NewRouter builds the ops router.
func NewRouter(d Deps) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{logger: logger, checks: d.Checks, ratings: d.Ratings, tournaments: d.Tournaments}

	r := chi.NewRouter()
	r.Get("/healthz", h.health)
	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))
	}

	if d.Ratings != nil {
		r.Route("/api/groups/{groupID}", func(r chi.Router) {
			r.Get("/leaderboard", h.leaderboard)
			r.Group(func(r chi.Router) {
				if d.ChartRatePerMinute > 0 {
					r.Use(NewChartLimiter(d.ChartRatePerMinute).Middleware)
				}
				r.Get("/players/{playerID}/chart.png", h.chart)
			})
		})
	}

	if d.Tournaments != nil {
		r.Route("/api/tournaments/{tournamentID}", func(r chi.Router) {
			r.Get("/standings", h.standings)
			r.Get("/standings.xlsx", h.export)
		})
	}

	return r
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(h.checks))
	for _, name := range slices.Sorted(maps.Keys(h.checks)) {
		if err := h.checks[name].HealthCheck(ctx); err != nil {
			h.logger.WarnContext(ctx, "Health check failed",
				slog.String("check", name),
				slog.String("error", err.Error()),
			)
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}
	writeJSON(w, status, report)
}

type leaderboardRow struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
}

func (h *handlers) leaderboard(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	track := ratingdomain.TrackSingles
	if t := r.URL.Query().Get("track"); t != "" {
		track = ratingdomain.Track(t)
	}

	entries, err := h.ratings.GetLeaderboard(r.Context(), groupID, track)
	if err != nil {
		h.fail(w, r, "Failed to fetch leaderboard", err, ratingStatus(err))
		return
	}

	rows := make([]leaderboardRow, len(entries))
	for i, e := range entries {
		rows[i] = leaderboardRow{
			Rank:        e.Rank,
			PlayerID:    e.PlayerID,
			Rating:      e.Rating,
			GamesPlayed: e.GamesPlayed,
			Wins:        e.Wins,
			Losses:      e.Losses,
			Draws:       e.Draws,
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handlers) chart(w http.ResponseWriter, r *http.Request) {
	png, err := h.ratings.RatingHistoryChart(r.Context(), chi.URLParam(r, "groupID"), chi.URLParam(r, "playerID"))
	if err != nil {
		h.fail(w, r, "Failed to render chart", err, ratingStatus(err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

type standingsResponse struct {
	TournamentID string        `json:"tournament_id"`
	Name         string        `json:"name"`
	Status       string        `json:"status"`
	Standings    []standingRow `json:"standings"`
	CircularTies [][]string    `json:"circular_ties,omitempty"`
}

type standingRow struct {
	Rank      int    `json:"rank"`
	PlayerID  string `json:"player_id"`
	Points    int    `json:"points"`
	Wins      int    `json:"wins"`
	Draws     int    `json:"draws"`
	Losses    int    `json:"losses"`
	SetsWon   int    `json:"sets_won"`
	SetsLost  int    `json:"sets_lost"`
	EloRating int    `json:"elo_rating"`
}

func (h *handlers) standings(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tournamentID(w, r)
	if !ok {
		return
	}
	view, err := h.tournaments.GetStandings(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to fetch standings", err, tournamentStatus(err))
		return
	}

	resp := standingsResponse{
		TournamentID: view.Tournament.ID.String(),
		Name:         view.Tournament.Name,
		Status:       view.Tournament.Status,
		Standings:    make([]standingRow, len(view.Standings)),
		CircularTies: view.CircularTies,
	}
	for i, s := range view.Standings {
		resp.Standings[i] = standingRow{
			Rank:      s.Rank,
			PlayerID:  s.PlayerID,
			Points:    s.Points,
			Wins:      s.Wins,
			Draws:     s.Draws,
			Losses:    s.Losses,
			SetsWon:   s.SetsWon,
			SetsLost:  s.SetsLost,
			EloRating: s.EloRating,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tournamentID(w, r)
	if !ok {
		return
	}
	data, err := h.tournaments.ExportStandings(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to export standings", err, tournamentStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "standings-"+id.String()+".xlsx"))
	_, _ = w.Write(data)
}

func (h *handlers) tournamentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "tournamentID")
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid tournament id %q", raw), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, msg string, err error, status int) {
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg,
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.Error(w, msg, status)
		return
	}
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), status)
}

func ratingStatus(err error) int {
	switch {
	case errors.Is(err, ratingservice.ErrGroupNotFound):
		return http.StatusNotFound
	case ratingservice.IsFailure(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func tournamentStatus(err error) int {
	switch {
	case errors.Is(err, tournamentservice.ErrTournamentNotFound):
		return http.StatusNotFound
	case tournamentservice.IsFailure(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
