package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"github.com/Black-And-White-Club/pingpong-bot/app/eventbus"
	"github.com/Black-And-White-Club/pingpong-bot/app/modules/rating"
	"github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament"
	"github.com/Black-And-White-Club/pingpong-bot/app/server"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
	"github.com/Black-And-White-Club/pingpong-bot/config"
	"github.com/Black-And-White-Club/pingpong-bot/db/bundb"
)

const (
	queueGroup      = "pingpong-bot"
	shutdownTimeout = 10 * time.Second
)

// App wires the modules to the database, the event bus and the ops server.
type App struct {
	Config           *config.Config
	Observability    observability.Observability
	DB               *bun.DB
	EventBus         eventbus.EventBus
	RatingModule     *rating.Module
	TournamentModule *tournament.Module

	routers       []*message.Router
	httpServer    *http.Server
	metricsServer *http.Server
}

// NewApp returns an App that still has to be initialized.
func NewApp(cfg *config.Config, obs observability.Observability) *App {
	return &App{Config: cfg, Observability: obs}
}

// Initialize opens the database and the event bus, then builds every module.
func (app *App) Initialize(ctx context.Context) error {
	logger := app.Observability.Logger

	db, err := bundb.Open(ctx, app.Config.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = db

	if app.Config.NATS.URL != "" {
		bus, err := eventbus.NewNATS(ctx, eventbus.Config{
			URL:              app.Config.NATS.URL,
			QueueGroup:       queueGroup,
			SubscribersCount: 4,
			AckWait:          30 * time.Second,
			Streams:          eventbus.DefaultStreams,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
		app.EventBus = bus
	} else {
		logger.WarnContext(ctx, "NATS URL not set, using in-memory event bus")
		app.EventBus = eventbus.NewInMemory(logger)
	}

	ratingRouter, err := app.newRouter("rating")
	if err != nil {
		return err
	}
	ratingModule, err := rating.NewRatingModule(ctx, app.Config, app.Observability, app.DB, app.EventBus, ratingRouter)
	if err != nil {
		return fmt.Errorf("failed to initialize rating module: %w", err)
	}
	app.RatingModule = ratingModule

	tournamentRouter, err := app.newRouter("tournament")
	if err != nil {
		return err
	}
	tournamentModule, err := tournament.NewTournamentModule(ctx, app.Config, app.Observability, app.DB, ratingModule.RatingService, app.EventBus, tournamentRouter)
	if err != nil {
		return fmt.Errorf("failed to initialize tournament module: %w", err)
	}
	app.TournamentModule = tournamentModule

	app.initServers()

	logger.InfoContext(ctx, "Application initialized",
		slog.Bool("nats", app.Config.NATS.URL != ""),
		slog.Bool("queue", ratingModule.QueueService != nil),
		slog.String("http_address", app.Config.HTTP.Address),
	)
	return nil
}

// newRouter returns a watermill router with the shared middleware stack.
// Each module owns one so its handlers can be closed independently.
func (app *App) newRouter(module string) (*message.Router, error) {
	wmLogger := watermill.NewSlogLogger(app.Observability.Logger.With(slog.String("router", module)))
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: shutdownTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s router: %w", module, err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
	)
	app.routers = append(app.routers, router)
	return router, nil
}

func (app *App) initServers() {
	checks := map[string]server.HealthChecker{
		"database": server.HealthCheckFunc(app.DB.PingContext),
	}
	if q := app.RatingModule.QueueService; q != nil {
		checks["queue"] = q
	}

	deps := server.Deps{
		Logger:             app.Observability.Logger,
		Checks:             checks,
		Ratings:            app.RatingModule.RatingService,
		Tournaments:        app.TournamentModule.TournamentService,
		ChartRatePerMinute: app.Config.HTTP.ChartRatePerMinute,
	}

	metricsAddr := app.Config.Observability.MetricsAddress
	if metricsAddr == "" || metricsAddr == app.Config.HTTP.Address {
		deps.Registry = app.Observability.Registry
	} else {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(app.Observability.Registry, promhttp.HandlerOpts{Registry: app.Observability.Registry}))
		app.metricsServer = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	if app.Config.HTTP.Address != "" {
		app.httpServer = &http.Server{
			Addr:              app.Config.HTTP.Address,
			Handler:           server.NewRouter(deps),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
}

// Run starts the routers, the modules and the HTTP servers and blocks until
// ctx is cancelled or one of them fails.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger
	g, ctx := errgroup.WithContext(ctx)

	for _, router := range app.routers {
		g.Go(func() error {
			if err := router.Run(ctx); err != nil {
				return fmt.Errorf("router stopped: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		app.RatingModule.Run(ctx, nil)
		return nil
	})
	g.Go(func() error {
		app.TournamentModule.Run(ctx, nil)
		return nil
	})

	for _, srv := range []*http.Server{app.httpServer, app.metricsServer} {
		if srv == nil {
			continue
		}
		g.Go(func() error {
			logger.InfoContext(ctx, "HTTP server listening", slog.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server %s: %w", srv.Addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// Close releases everything Initialize opened, in reverse order.
func (app *App) Close() error {
	logger := app.Observability.Logger
	var errs []error

	for _, router := range app.routers {
		if err := router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close router: %w", err))
		}
	}
	if app.TournamentModule != nil {
		if err := app.TournamentModule.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if app.RatingModule != nil {
		if err := app.RatingModule.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event bus: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("Application closed with errors", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Application closed")
	return nil
}
