package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"

	"github.com/Black-And-White-Club/pingpong-bot/app"
	achievementdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/infrastructure/repositories"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
	"github.com/Black-And-White-Club/pingpong-bot/config"
	"github.com/Black-And-White-Club/pingpong-bot/db/bundb"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "pongbot",
		Usage: "ping-pong rating and tournament engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			replayCommand(),
			rolloverCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the event handlers, the maintenance queue and the ops server",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			obs := observability.New(config.ToObsConfig(cfg))

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := app.NewApp(cfg, obs)
			if err := application.Initialize(ctx); err != nil {
				_ = application.Close()
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			runErr := application.Run(ctx)
			obs.Logger.Info("Shutting down")
			if err := application.Close(); err != nil && runErr == nil {
				return err
			}
			return runErr
		},
	}
}

// newRatingService builds a rating service for one-off commands, without the
// event bus or the queue.
func newRatingService(cfg *config.Config, db *bun.DB) (*ratingservice.RatingService, *slog.Logger) {
	obs := observability.New(config.ToObsConfig(cfg))
	logger := obs.Logger.With(slog.String("module", "rating"))
	return ratingservice.NewRatingService(
		ratingdb.NewRepository(db),
		achievementdb.NewRepository(db),
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
		ratingservice.WithBaseline(cfg.Rating.BaselineRating),
	), logger
}

// forEachGroup runs fn for one group, or for every group when groupID is empty.
func forEachGroup(ctx context.Context, svc *ratingservice.RatingService, groupID string, fn func(groupID string) error) error {
	groups := []string{groupID}
	if groupID == "" {
		ids, err := svc.ListGroupIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list groups: %w", err)
		}
		groups = ids
	}
	for _, id := range groups {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

var groupFlag = &cli.StringFlag{
	Name:  "group",
	Usage: "group id; every group when empty",
}

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "rebuild ratings, streaks and season snapshots from match history",
		Flags: []cli.Flag{groupFlag},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := bundb.Open(c.Context, cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, logger := newRatingService(cfg, db)
			return forEachGroup(c.Context, svc, c.String("group"), func(groupID string) error {
				summary, err := svc.ReplayGroup(c.Context, groupID)
				if err != nil {
					return fmt.Errorf("replay %s: %w", groupID, err)
				}
				logger.InfoContext(c.Context, "Group replayed",
					slog.String("group_id", groupID),
					slog.Int("matches", summary.MatchesReplayed),
					slog.Int("snapshots", summary.SnapshotsRewritten),
					slog.Int("drifted_tracks", len(summary.Drift)),
				)
				for _, d := range summary.Drift {
					fmt.Printf("%s\t%+v\n", groupID, d)
				}
				return nil
			})
		},
	}
}

func rolloverCommand() *cli.Command {
	return &cli.Command{
		Name:  "rollover",
		Usage: "close expired seasons and open the next one",
		Flags: []cli.Flag{groupFlag},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := bundb.Open(c.Context, cfg.Postgres.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, logger := newRatingService(cfg, db)
			return forEachGroup(c.Context, svc, c.String("group"), func(groupID string) error {
				res, err := svc.RolloverSeasonIfExpired(c.Context, groupID, time.Now())
				if err != nil {
					return fmt.Errorf("rollover %s: %w", groupID, err)
				}
				logger.InfoContext(c.Context, "Season checked",
					slog.String("group_id", groupID),
					slog.Bool("rolled_over", res.RolledOver),
					slog.String("active_season", res.Active.Name),
				)
				return nil
			})
		},
	}
}
