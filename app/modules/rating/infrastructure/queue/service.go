package ratingqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
)

// QueueService defines the contract for scheduled rating maintenance.
type QueueService interface {
	// EnqueueReplay schedules a rebuild of one group, or all when groupID is empty.
	EnqueueReplay(ctx context.Context, groupID string) (int64, error)
	// EnqueueRollover schedules a season check for one group, or all when groupID is empty.
	EnqueueRollover(ctx context.Context, groupID string) (int64, error)
	// HealthCheck verifies the queue service is healthy
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Ensure Service implements QueueService
var _ QueueService = (*Service)(nil)

// Service runs rating maintenance jobs on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      bun.IDB
	metrics observability.Metrics
}

// Workers registers the rating workers.
func Workers(logger *slog.Logger, svc Maintainer, publisher message.Publisher) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewSeasonRolloverWorker(logger, svc, publisher))
	river.AddWorker(workers, NewGroupReplayWorker(logger, svc, publisher))
	return workers
}

// Options tunes the maintenance schedule.
type Options struct {
	SeasonCheckInterval time.Duration
	ReplayInterval      time.Duration
	MaxWorkers          int
}

func (o Options) withDefaults() Options {
	if o.SeasonCheckInterval <= 0 {
		o.SeasonCheckInterval = rolloverInterval
	}
	if o.ReplayInterval <= 0 {
		o.ReplayInterval = replayInterval
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = 5
	}
	return o
}

// PeriodicJobs is the maintenance schedule: a season sweep that also runs on
// start and a drift check over every group.
func PeriodicJobs(opts Options) []*river.PeriodicJob {
	opts = opts.withDefaults()
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(opts.SeasonCheckInterval),
			func() (river.JobArgs, *river.InsertOpts) { return SeasonRolloverJob{}, nil },
			&river.PeriodicJobOpts{RunOnStart: true},
		),
		river.NewPeriodicJob(
			river.PeriodicInterval(opts.ReplayInterval),
			func() (river.JobArgs, *river.InsertOpts) { return GroupReplayJob{}, nil },
			nil,
		),
	}
}

// NewService creates a River-based queue service for rating maintenance.
func NewService(ctx context.Context, db bun.IDB, logger *slog.Logger, dsn string, opts Options, metrics observability.Metrics, svc Maintainer, publisher message.Publisher) (*Service, error) {
	opts = opts.withDefaults()
	ctxLogger := logger.With(
		slog.String("operation", "new_rating_queue_service"),
		slog.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", slog.String("error", err.Error()))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			QueueName:          {MaxWorkers: opts.MaxWorkers},
		},
		Workers:      Workers(ctxLogger, svc, publisher),
		PeriodicJobs: PeriodicJobs(opts),
		Logger:       ctxLogger,
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))

	ctxLogger.Info("Rating queue service initialized")
	return &Service{
		client:  client,
		pool:    pool,
		logger:  ctxLogger,
		db:      db,
		metrics: metrics,
	}, nil
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	return s.track(ctx, "start_service", func() error {
		if err := s.client.Start(ctx); err != nil {
			return fmt.Errorf("failed to start River client: %w", err)
		}
		s.logger.Info("Rating queue service started")
		return nil
	})
}

// Stop drains running jobs and releases the pool.
func (s *Service) Stop(ctx context.Context) error {
	return s.track(ctx, "stop_service", func() error {
		defer s.pool.Close()
		if err := s.client.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop River client: %w", err)
		}
		s.logger.Info("Rating queue service stopped")
		return nil
	})
}

func (s *Service) EnqueueReplay(ctx context.Context, groupID string) (int64, error) {
	return s.insert(ctx, "enqueue_replay", GroupReplayJob{GroupID: groupID})
}

func (s *Service) EnqueueRollover(ctx context.Context, groupID string) (int64, error) {
	return s.insert(ctx, "enqueue_rollover", SeasonRolloverJob{GroupID: groupID})
}

func (s *Service) insert(ctx context.Context, operation string, args river.JobArgs) (int64, error) {
	var id int64
	err := s.track(ctx, operation, func() error {
		res, err := s.client.Insert(ctx, args, nil)
		if err != nil {
			return fmt.Errorf("failed to insert %s job: %w", args.Kind(), err)
		}
		id = res.Job.ID
		s.logger.InfoContext(ctx, "Rating job enqueued",
			slog.String("kind", args.Kind()),
			slog.Int64("job_id", id),
			slog.Bool("duplicate", res.UniqueSkippedAsDuplicate),
		)
		return nil
	})
	return id, err
}

// HealthCheck verifies the queue service is healthy
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.track(ctx, "health_check", func() error {
		if s.client == nil {
			return fmt.Errorf("river client is nil")
		}
		var count int
		err := s.db.NewSelect().
			Table("river_job").
			ColumnExpr("COUNT(*)").
			Where("queue = ?", QueueName).
			Where("state IN (?)", bun.In([]string{"available", "retryable"})).
			Scan(ctx, &count)
		if err != nil {
			return fmt.Errorf("queue service health check failed: %w", err)
		}
		s.logger.Debug("Queue service health check passed", slog.Int("pending_jobs", count))
		return nil
	})
}

func (s *Service) track(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, operation, "river")
	if err := fn(); err != nil {
		s.logger.ErrorContext(ctx, "Queue operation failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordOperationFailure(ctx, operation, "river")
		return err
	}
	s.metrics.RecordOperationSuccess(ctx, operation, "river")
	s.metrics.RecordOperationDuration(ctx, operation, "river", time.Since(start))
	return nil
}
